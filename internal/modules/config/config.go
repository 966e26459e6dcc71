package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gold_bot/internal/models"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	bridgeURLENV      = "MT5_BRIDGE_URL"
	symbolENV         = "MT5_SYMBOL"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	Broker struct {
		// URL моста к терминалу MT5 (REST + /ws поток котировок)
		BridgeURL string `yaml:"bridge_url"`
		Symbol    string `yaml:"symbol"`
		// таймаут одного запроса к мосту; дольше — считаем терминал недоступным
		RequestTimeoutSec int `yaml:"request_timeout_sec"`
	} `yaml:"broker"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	// Риск
	RiskPct           float64 `yaml:"risk_pct"`             // % equity на сделку по стопу
	DailyLossLimitPct float64 `yaml:"daily_loss_limit_pct"` // дневной стоп по символу
	MaxOpenRiskPct    float64 `yaml:"max_open_risk_pct"`

	// Кампании
	CampaignWindowMinutes  int            `yaml:"campaign_window_minutes"`
	CampaignMaxPerTier     map[string]int `yaml:"campaign_max_per_tier"`
	CampaignDefaultCap     int            `yaml:"campaign_default_cap"`
	CampaignMinSpacingSecs int            `yaml:"campaign_min_spacing_seconds"`

	// Lifecycle
	ReconcileSeconds      int            `yaml:"reconcile_seconds"`
	MaxPositionMinutes    map[string]int `yaml:"max_position_minutes"`
	DefaultPositionMinute int            `yaml:"default_position_minutes"`
	BETriggerR            float64        `yaml:"be_trigger_r"`
	BEBufferPoints        float64        `yaml:"be_buffer_points"`

	// Минимизатор убытка
	LossMinSoftUSD       float64 `yaml:"loss_min_soft_usd"`
	LossMinHardUSD       float64 `yaml:"loss_min_hard_usd"`
	LossMinRetracePoints float64 `yaml:"loss_min_retrace_points"`
	LossMinWindowSeconds int     `yaml:"loss_min_window_seconds"`

	// Исполнение
	Enabled               bool   `yaml:"enabled"`
	DeviationPoints       int    `yaml:"deviation_points"`
	OrderTag              string `yaml:"order_tag"`
	SignalIntervalSeconds int    `yaml:"signal_interval_seconds"`

	// Сигнальный источник (EMARSI)
	EMAShort      int     `yaml:"ema_short"`
	EMALong       int     `yaml:"ema_long"`
	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOverbought float64 `yaml:"rsi_overbought"`
	RSIOSold      float64 `yaml:"rsi_oversold"`
	StopPoints    float64 `yaml:"stop_points"`    // дистанция SL от входа в пунктах
	TakeProfitRR  float64 `yaml:"take_profit_rr"` // TP = entry ± RR * |entry-SL|
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		RiskPct:           0.75,
		DailyLossLimitPct: 3.0,
		MaxOpenRiskPct:    5.0,

		CampaignWindowMinutes: 10,
		CampaignMaxPerTier: map[string]int{
			models.TierLow:    2,
			models.TierMedium: 3,
			models.TierHigh:   6,
		},
		CampaignDefaultCap:     6,
		CampaignMinSpacingSecs: 60,

		ReconcileSeconds: 30,
		MaxPositionMinutes: map[string]int{
			models.TierLow:    10,
			models.TierMedium: 10,
			models.TierHigh:   20,
		},
		DefaultPositionMinute: 10,
		BETriggerR:            1.0,
		BEBufferPoints:        2,

		LossMinSoftUSD:       3,
		LossMinHardUSD:       12,
		LossMinRetracePoints: 15,
		LossMinWindowSeconds: 20,

		DeviationPoints:       30,
		OrderTag:              "gold_bot",
		SignalIntervalSeconds: 30,

		EMAShort:      intFromEnv("EMA_SHORT", 9),
		EMALong:       intFromEnv("EMA_LONG", 21),
		RSIPeriod:     intFromEnv("RSI_PERIOD", 14),
		RSIOverbought: floatFromEnv("RSI_OVERBOUGHT", 70),
		RSIOSold:      floatFromEnv("RSI_OVERSOLD", 30),
		StopPoints:    500,
		TakeProfitRR:  2.0,
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if u := os.Getenv(bridgeURLENV); u != "" {
		config.Broker.BridgeURL = u
	}
	if s := os.Getenv(symbolENV); s != "" {
		config.Broker.Symbol = s
	}
	if config.Broker.Symbol == "" {
		config.Broker.Symbol = "XAUUSD"
	}
	if config.Broker.RequestTimeoutSec <= 0 {
		config.Broker.RequestTimeoutSec = 10
	}

	return &config, nil
}

// Risk проецирует yaml-поверхность в настройки движка.
func (c *Config) Risk() models.RiskSettings {
	return models.RiskSettings{
		RiskPct:           c.RiskPct,
		DailyLossLimitPct: c.DailyLossLimitPct,
		MaxOpenRiskPct:    c.MaxOpenRiskPct,
	}
}

func (c *Config) Campaign() models.CampaignSettings {
	maxPer := make(map[models.Tier]int, len(c.CampaignMaxPerTier))
	for tier, n := range c.CampaignMaxPerTier {
		maxPer[tier] = n
	}
	return models.CampaignSettings{
		Window:     time.Duration(c.CampaignWindowMinutes) * time.Minute,
		MaxPerTier: maxPer,
		DefaultCap: c.CampaignDefaultCap,
		MinSpacing: time.Duration(c.CampaignMinSpacingSecs) * time.Second,
	}
}

func (c *Config) Lifecycle() models.LifecycleSettings {
	maxAge := make(map[models.Tier]time.Duration, len(c.MaxPositionMinutes))
	for tier, m := range c.MaxPositionMinutes {
		maxAge[tier] = time.Duration(m) * time.Minute
	}
	return models.LifecycleSettings{
		ReconcileInterval: time.Duration(c.ReconcileSeconds) * time.Second,
		MaxAgePerTier:     maxAge,
		DefaultMaxAge:     time.Duration(c.DefaultPositionMinute) * time.Minute,
		BETriggerR:        c.BETriggerR,
		BEBufferPoints:    c.BEBufferPoints,
	}
}

func (c *Config) LossMin() models.LossMinSettings {
	return models.LossMinSettings{
		SoftLossUSD:   c.LossMinSoftUSD,
		HardLossUSD:   c.LossMinHardUSD,
		RetracePoints: c.LossMinRetracePoints,
		Window:        time.Duration(c.LossMinWindowSeconds) * time.Second,
	}
}

func (c *Config) Execution() models.ExecutionSettings {
	return models.ExecutionSettings{
		Enabled:         c.Enabled,
		DeviationPoints: c.DeviationPoints,
		OrderTag:        c.OrderTag,
		SignalInterval:  time.Duration(c.SignalIntervalSeconds) * time.Second,
	}
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
