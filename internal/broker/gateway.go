// Package broker объявляет типизированный контракт терминала.
// Реализации: internal/modules/mt5_client (HTTP-мост к терминалу MT5)
// и in-memory фейк в тестах движка.
package broker

import (
	"context"
	"time"

	"gold_bot/internal/models"
)

// Gateway — минимальная поверхность, которая нужна боту от брокера.
// Любой вызов может вернуть ошибку: терминал периодически недоступен,
// это штатный режим, а не фатал.
type Gateway interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	SymbolInfo(ctx context.Context, symbol string) (*models.SymbolInfo, error)
	Account(ctx context.Context) (*models.AccountState, error)
	OpenPositions(ctx context.Context, symbol string) ([]models.BrokerPosition, error)
	RecentDeals(ctx context.Context, symbol string, since, until time.Time) ([]models.Deal, error)

	// CalcMargin — маржа, которую брокер потребует под volume лотов.
	// Брокерская функция непрозрачна (зависит от плеча и инструмента),
	// поэтому сайзер ищет допустимый лот поиском, а не формулой.
	CalcMargin(ctx context.Context, side models.Side, symbol string, volume, price float64) (float64, error)

	OrderSend(ctx context.Context, req models.OrderRequest) (*models.OrderResult, error)
	ModifyStop(ctx context.Context, ticket int64, sl, tp float64) error
	ClosePosition(ctx context.Context, ticket int64) error
}
