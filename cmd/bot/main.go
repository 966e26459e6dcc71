package main

import (
	"context"
	"log"

	"gold_bot/internal/engine"
	"gold_bot/internal/modules/config"
	"gold_bot/internal/modules/mt5_client"
	"gold_bot/internal/modules/mt5_stream"
	"gold_bot/internal/modules/notify"
	"gold_bot/internal/modules/postgres"
	"gold_bot/internal/signals"
	"gold_bot/pkg/logger"
	"gold_bot/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		mt5_client.Module(),
		mt5_stream.Module(),
		signals.Module(),
		engine.Module(),
		notify.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			if cfg.Jaeger.Host == "" {
				return
			}
			tracing.SetServiceName("gold_bot")
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				logger.Warn("jaeger init: %v", err)
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					closeTracer()
					return nil
				},
			})
		}),
	)
	app.Run()
}
