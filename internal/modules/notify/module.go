package notify

import (
	"context"

	"gold_bot/internal/engine"
	"gold_bot/internal/modules/notify/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			service.NewTelegram,
			func(t *service.Telegram) engine.Notifier { return t },
		),
		fx.Invoke(func(lc fx.Lifecycle, t *service.Telegram, s *engine.Session, ctx context.Context) {
			t.SetControls(s)
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					t.Start(ctx)
					return nil
				},
			})
		}),
	)
}
