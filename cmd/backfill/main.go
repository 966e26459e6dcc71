// Утилита дозаполнения закрытых сделок: находит в журнале строки без
// цены закрытия и добирает её вместе с P&L из истории сделок терминала.
// Нужна после длительного простоя бота, когда позиции закрылись без него.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"gold_bot/internal/models"
	"gold_bot/internal/modules/config"
	mt5 "gold_bot/internal/modules/mt5_client/service"
	"gold_bot/internal/store/trades"
	"gold_bot/pkg/db"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

func main() {
	viper.SetDefault("symbol", "XAUUSD")
	viper.SetDefault("bridge_url", "http://127.0.0.1:8787")
	viper.SetDefault("since_hours", 72)
	viper.SetDefault("request_timeout_sec", 10)
	viper.SetDefault("dry_run", false)

	_ = viper.BindEnv("db_dsn", "DATABASE_DSN")
	_ = viper.BindEnv("bridge_url", "MT5_BRIDGE_URL")
	_ = viper.BindEnv("symbol", "MT5_SYMBOL")
	_ = viper.BindEnv("since_hours", "SINCE_HOURS")
	_ = viper.BindEnv("dry_run", "DRY_RUN")

	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "backfill: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	dsn := viper.GetString("db_dsn")
	if dsn == "" {
		return errors.New("DATABASE_DSN is required")
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn})
	if err != nil {
		return errors.Wrap(err, "connect db")
	}
	manager := db.NewPgTxManager(pool)
	defer manager.Close()

	repo := trades.New(manager)

	cfg := &config.Config{}
	cfg.Broker.BridgeURL = viper.GetString("bridge_url")
	cfg.Broker.RequestTimeoutSec = viper.GetInt("request_timeout_sec")
	gw := mt5.NewClient(cfg)

	symbol := viper.GetString("symbol")
	since := time.Now().Add(-time.Duration(viper.GetInt("since_hours")) * time.Hour)
	dryRun := viper.GetBool("dry_run")

	rows, err := repo.MissingClose(ctx, symbol)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("nothing to backfill")
		return nil
	}

	deals, err := gw.RecentDeals(ctx, symbol, since, time.Now())
	if err != nil {
		return errors.Wrap(err, "load deals")
	}

	// последний exit-deal каждой позиции
	exits := make(map[int64]models.Deal, len(deals))
	for _, d := range deals {
		if d.Type != models.DealExit {
			continue
		}
		if prev, ok := exits[d.PositionID]; !ok || d.Time.After(prev.Time) {
			exits[d.PositionID] = d
		}
	}

	var filled int
	for _, rec := range rows {
		deal, ok := exits[rec.Ticket]
		if !ok {
			fmt.Printf("ticket %d: no exit deal since %s, skipped\n", rec.Ticket, since.Format(time.RFC3339))
			continue
		}

		fields := map[string]any{
			"close_time":  deal.Time,
			"close_price": deal.Price,
			"pnl":         deal.Profit,
		}
		if riskDist := rec.RiskDistance(); riskDist > 0 {
			fields["pnl_r"] = float64(rec.Direction) * (deal.Price - rec.Entry) / riskDist
		}

		if dryRun {
			fmt.Printf("ticket %d: would set close=%.2f pnl=%.2f\n", rec.Ticket, deal.Price, deal.Profit)
			continue
		}
		if err := repo.UpdateFields(ctx, rec.Ticket, fields); err != nil {
			return err
		}
		filled++
		fmt.Printf("ticket %d: close=%.2f pnl=%.2f\n", rec.Ticket, deal.Price, deal.Profit)
	}

	fmt.Printf("backfilled %d of %d\n", filled, len(rows))
	return nil
}
