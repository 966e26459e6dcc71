package mt5_client

import (
	"gold_bot/internal/broker"
	"gold_bot/internal/modules/mt5_client/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("mt5_client",
		fx.Provide(
			service.NewClient,
			func(c *service.Client) broker.Gateway { return c },
		),
	)
}
