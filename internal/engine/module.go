package engine

import (
	"context"

	"gold_bot/internal/broker"
	"gold_bot/internal/modules/config"
	"gold_bot/internal/signals"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			func(gw broker.Gateway, cfg *config.Config) *Sizer {
				return NewSizer(gw, cfg.Risk())
			},
			func(gw broker.Gateway, sizer *Sizer, trades TradesStore, cfg *config.Config) *Submitter {
				return NewSubmitter(gw, sizer, trades, cfg.Broker.Symbol, cfg.Execution())
			},
			func(cfg *config.Config) *Campaign {
				return NewCampaign(cfg.Campaign())
			},
			func(gw broker.Gateway, trades TradesStore, notifier Notifier, cfg *config.Config) *Lifecycle {
				return NewLifecycle(gw, trades, notifier, cfg.Broker.Symbol, cfg.Risk(), cfg.Lifecycle(), cfg.LossMin())
			},
			func(
				gw broker.Gateway,
				quotes QuoteCache,
				src signals.Source,
				submitter *Submitter,
				campaign *Campaign,
				lifecycle *Lifecycle,
				trades TradesStore,
				notifier Notifier,
				cfg *config.Config,
			) *Session {
				return NewSession(cfg.Broker.Symbol, gw, quotes, src, submitter, campaign, lifecycle, trades, notifier,
					cfg.Risk(), cfg.Execution(), cfg.Campaign())
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, s *Session, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					s.Start(ctx)
					return nil
				},
			})
		}),
	)
}
