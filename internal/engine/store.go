package engine

import (
	"context"
	"time"

	"gold_bot/internal/models"
)

// TradesStore — контракт журнала сделок (ключ — тикет брокера).
// Частичные апдейты обязательны: поля закрытия доезжают по мере
// обогащения из истории сделок.
type TradesStore interface {
	// Insert пишет write-ahead строку со статусом SENT до отправки ордера.
	Insert(ctx context.Context, rec *models.TradeRecord) error
	// MarkOpen привязывает тикет к write-ahead строке после подтверждения.
	MarkOpen(ctx context.Context, campaignID string, ticket int64, volume, price float64) error
	// UpdateFields — частичный апдейт по тикету.
	UpdateFields(ctx context.Context, ticket int64, fields map[string]any) error
	// Open — открытые сделки символа (для восстановления после рестарта).
	Open(ctx context.Context, symbol string) ([]models.TradeRecord, error)
	// RecentAdmitted — входы за период, для реконструкции окон кампаний.
	RecentAdmitted(ctx context.Context, symbol string, since time.Time) ([]models.TradeRecord, error)
}
