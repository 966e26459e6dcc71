package models

// Side — "BUY"/"SELL" или пустая строка.
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

func SideFromDirection(dir int) Side {
	switch {
	case dir > 0:
		return SideBuy
	case dir < 0:
		return SideSell
	default:
		return SideNone
	}
}

func (s Side) Direction() int {
	switch s {
	case SideBuy:
		return 1
	case SideSell:
		return -1
	default:
		return 0
	}
}

// Tier — уровень уверенности сигнала. Свободная строка, не enum:
// независимые стратегии могут заводить свои бакеты ("HIGH_SWING" и т.п.)
// и не делить кампейн-бюджет с чужим HIGH.
type Tier = string

const (
	TierLow    Tier = "LOW"
	TierMedium Tier = "MEDIUM"
	TierHigh   Tier = "HIGH"
)

// Signal — направленный сигнал от источника. Direction 0 = нет сигнала.
type Signal struct {
	Symbol     string
	Direction  int // +1 long / -1 short / 0 flat
	Tier       Tier
	TierLabel  string // суб-бакет кампании (TIER1/TIER2/FARMER), опционально
	Entry      float64
	Stop       float64
	TakeProfit float64
	Confidence float64
	Strategy   string
	Reason     string
}
