// Package signals: источники торговых сигналов. Движок знает только
// интерфейс Source; как сигнал посчитан — его не касается.
package signals

import (
	"context"

	"gold_bot/internal/models"
)

type Source interface {
	// Evaluate — ноль или один сигнал на тик; nil = нечего делать.
	Evaluate(ctx context.Context, q *models.Quote) (*models.Signal, error)
}
