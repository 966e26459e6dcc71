package models

import "time"

// RiskSettings — сайзинг и дневные лимиты.
type RiskSettings struct {
	RiskPct           float64 // % equity на сделку по стопу
	DailyLossLimitPct float64 // дневной лимит реализованного убытка, % equity
	MaxOpenRiskPct    float64 // суммарный открытый риск по символу, % equity
}

// CampaignSettings — rolling-window лимиты входов по (symbol, side, tier).
type CampaignSettings struct {
	Window     time.Duration
	MaxPerTier map[Tier]int
	DefaultCap int // для незнакомых tier-бакетов
	MinSpacing time.Duration
}

// LifecycleSettings — правила ведения открытых позиций.
type LifecycleSettings struct {
	ReconcileInterval time.Duration
	MaxAgePerTier     map[Tier]time.Duration
	DefaultMaxAge     time.Duration
	BETriggerR        float64 // перенос в безубыток при unrealized >= N*R
	BEBufferPoints    float64 // отступ от entry в пунктах в сторону профита
}

// LossMinSettings — отложенное закрытие убыточной позиции:
// разовая попытка дождаться отката на RetracePoints в пределах Window.
type LossMinSettings struct {
	SoftLossUSD   float64 // в пределах — закрываем сразу, ждать нечего
	HardLossUSD   float64 // за пределом — закрываем сразу, хуже делать нельзя
	RetracePoints float64
	Window        time.Duration
}

// ExecutionSettings — параметры отправки ордеров.
type ExecutionSettings struct {
	Enabled         bool
	DeviationPoints int
	OrderTag        string
	SignalInterval  time.Duration
}
