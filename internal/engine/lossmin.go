package engine

import (
	"time"

	"gold_bot/internal/models"
)

// lossMinState — разовая отложенная попытка закрыться получше.
// Взводится в момент, когда тайм-аут позиции уже наступил, а убыток
// между soft и hard порогом: ждём короткого отката к safety-цели.
// Всегда разрешается в пределах окна — вечного откладывания нет.
type lossMinState struct {
	ticket    int64
	armedAt   time.Time
	target    float64
	direction int
}

type lossMinOutcome int

const (
	lossMinWait lossMinOutcome = iota
	lossMinCloseRetrace
	lossMinCloseWindow
	lossMinCloseHard
)

func (o lossMinOutcome) reason() string {
	switch o {
	case lossMinCloseRetrace:
		return "LOSS_MIN_RETRACE"
	case lossMinCloseWindow:
		return "LOSS_MIN_TIMEOUT"
	case lossMinCloseHard:
		return "HARD_LOSS"
	default:
		return ""
	}
}

func (ls *lossMinState) evaluate(now time.Time, price, profit float64, cfg models.LossMinSettings) lossMinOutcome {
	// hard-потолок важнее отката: не даём гэмблу углубить убыток
	if profit <= -cfg.HardLossUSD {
		return lossMinCloseHard
	}
	if ls.direction > 0 && price >= ls.target {
		return lossMinCloseRetrace
	}
	if ls.direction < 0 && price <= ls.target {
		return lossMinCloseRetrace
	}
	if now.Sub(ls.armedAt) >= cfg.Window {
		return lossMinCloseWindow
	}
	return lossMinWait
}
