package signals

import (
	"context"
	"math"
	"sync"

	"gold_bot/internal/models"
	"gold_bot/internal/modules/config"
)

// EMARSI — тренд по паре EMA + перекупленность/перепроданность по RSI.
// Уровень сигнала (LOW/MEDIUM/HIGH) выводится из глубины RSI-экстремума.
type EMARSI struct {
	mu       sync.Mutex
	emaShort map[string]float64
	emaLong  map[string]float64
	rsi      map[string]*rsiState

	emaShortN, emaLongN, rsiN int
	overbought, oversold      float64
	stopPoints                float64
	takeProfitRR              float64
	point                     float64
}

type rsiState struct {
	prev        float64
	avgGain     float64
	avgLoss     float64
	initialized bool
}

func NewEMARSI(cfg *config.Config) *EMARSI {
	return &EMARSI{
		emaShort:     map[string]float64{},
		emaLong:      map[string]float64{},
		rsi:          map[string]*rsiState{},
		emaShortN:    cfg.EMAShort,
		emaLongN:     cfg.EMALong,
		rsiN:         cfg.RSIPeriod,
		overbought:   cfg.RSIOverbought,
		oversold:     cfg.RSIOSold,
		stopPoints:   cfg.StopPoints,
		takeProfitRR: cfg.TakeProfitRR,
		point:        0.01, // XAUUSD; уточняется первым же тиком с SymbolInfo наружного слоя
	}
}

// SetPoint — размер пункта инструмента, если он известен точнее дефолта.
func (s *EMARSI) SetPoint(p float64) {
	if p <= 0 {
		return
	}
	s.mu.Lock()
	s.point = p
	s.mu.Unlock()
}

func (s *EMARSI) Evaluate(_ context.Context, q *models.Quote) (*models.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol, price := q.Symbol, q.Price

	kShort := 2.0 / float64(s.emaShortN+1)
	kLong := 2.0 / float64(s.emaLongN+1)
	if s.emaShort[symbol] == 0 {
		s.emaShort[symbol] = price
	}
	if s.emaLong[symbol] == 0 {
		s.emaLong[symbol] = price
	}
	s.emaShort[symbol] = s.emaShort[symbol] + kShort*(price-s.emaShort[symbol])
	s.emaLong[symbol] = s.emaLong[symbol] + kLong*(price-s.emaLong[symbol])

	r := s.rsi[symbol]
	if r == nil {
		r = &rsiState{}
		s.rsi[symbol] = r
	}
	if !r.initialized {
		r.prev = price
		r.initialized = true
		return nil, nil
	}
	change := price - r.prev
	gain := 0.0
	loss := 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}
	alpha := 1.0 / float64(s.rsiN)
	if r.avgGain == 0 && r.avgLoss == 0 {
		r.avgGain, r.avgLoss = gain, loss
	} else {
		r.avgGain = (1-alpha)*r.avgGain + alpha*gain
		r.avgLoss = (1-alpha)*r.avgLoss + alpha*loss
	}
	r.prev = price
	// avgLoss == 0: чистый рост — RSI 100, полный штиль — нейтральные 50
	rsi := 100.0
	if r.avgLoss != 0 {
		rs := r.avgGain / r.avgLoss
		rsi = 100 - (100 / (1 + rs))
	} else if r.avgGain == 0 {
		rsi = 50
	}

	dir := 0
	depth := 0.0
	if s.emaShort[symbol] > s.emaLong[symbol] && rsi < s.oversold {
		dir = 1
		depth = s.oversold - rsi
	}
	if s.emaShort[symbol] < s.emaLong[symbol] && rsi > s.overbought {
		dir = -1
		depth = rsi - s.overbought
	}
	if dir == 0 {
		return nil, nil
	}

	stopDist := s.stopPoints * s.point
	entry := price
	stop := entry - float64(dir)*stopDist
	tp := entry + float64(dir)*stopDist*s.takeProfitRR

	tier, conf := tierFromDepth(depth, s.oversold)

	return &models.Signal{
		Symbol:     symbol,
		Direction:  dir,
		Tier:       tier,
		Entry:      entry,
		Stop:       stop,
		TakeProfit: tp,
		Confidence: conf,
		Strategy:   "emarsi",
		Reason:     "ema trend + rsi extreme",
	}, nil
}

// tierFromDepth: чем глубже RSI ушёл за порог, тем выше уровень.
func tierFromDepth(depth, scale float64) (models.Tier, float64) {
	if scale <= 0 {
		scale = 30
	}
	conf := math.Min(1, depth/scale)
	switch {
	case conf >= 0.5:
		return models.TierHigh, conf
	case conf >= 0.2:
		return models.TierMedium, conf
	default:
		return models.TierLow, conf
	}
}
