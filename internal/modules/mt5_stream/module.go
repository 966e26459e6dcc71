package mt5_stream

import (
	"context"

	"gold_bot/internal/engine"
	"gold_bot/internal/modules/mt5_stream/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("mt5_stream",
		fx.Provide(
			service.NewClient,
			func(c *service.Client) engine.QuoteCache { return c },
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go c.Run(ctx)
					return nil
				},
			})
		}),
	)
}
