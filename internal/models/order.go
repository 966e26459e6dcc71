package models

import "time"

// ManagedOrder — открытый тикет, который мы ведём после исполнения.
// Ровно один на открытый тикет брокера; мутирует только lifecycle-менеджер.
type ManagedOrder struct {
	Ticket    int64
	OpenTime  time.Time
	Entry     float64
	SL        float64
	TP        float64
	Direction int // +1 long / -1 short
	Volume    float64
	Tier      Tier
	TierLabel string

	// Risk — initial |entry - sl|, фиксируется при регистрации:
	// после переноса SL в безубыток R считать уже не из чего.
	Risk float64

	BreakevenDone bool
	LossMinDone   bool   // one-shot: второй раз минимизатор не взводим
	CloseReason   string // выставляется при нашем закрытии, уходит в запись
}

type TradeStatus string

const (
	TradeSent   TradeStatus = "SENT"
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

// TradeRecord — строка в хранилище, ключ — тикет брокера.
// Поля закрытия заполняются прогрессивно по мере обогащения.
type TradeRecord struct {
	Ticket     int64
	CampaignID string // write-ahead id, присвоенный до отправки ордера
	Symbol     string
	Direction  int
	Entry      float64
	SL         float64
	TP         float64
	Lots       float64
	Status     TradeStatus
	Tier       Tier
	TierLabel  string
	OpenTime   time.Time
	CloseTime  *time.Time
	ClosePrice *float64
	PnL        *float64
	PnLR       *float64
	Reason     string
}

// RiskDistance — начальная дистанция до стопа; 0, если стопа не было.
func (r *TradeRecord) RiskDistance() float64 {
	d := r.Entry - r.SL
	if d < 0 {
		d = -d
	}
	return d
}
