package trades

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gold_bot/internal/models"
	"gold_bot/pkg/db"

	"github.com/jackc/pgx/v5"
)

// Trades — журнал сделок в Postgres. Ключ — тикет брокера; строка
// создаётся со статусом SENT до отправки ордера и дозаполняется по мере
// жизни позиции.
type Trades struct {
	tx db.TxManager
}

func New(tx db.TxManager) *Trades {
	return &Trades{tx: tx}
}

// updatableColumns — whitelist для частичных апдейтов; всё остальное
// меняется только через Insert/MarkOpen.
var updatableColumns = map[string]struct{}{
	"status":      {},
	"sl":          {},
	"tp":          {},
	"close_time":  {},
	"close_price": {},
	"pnl":         {},
	"pnl_r":       {},
	"reason":      {},
}

func (t *Trades) Insert(ctx context.Context, rec *models.TradeRecord) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Trades.Insert: %w", err)
		}
	}()

	_, err = t.tx.Conn().Exec(ctx, `
		INSERT INTO trades
			(ticket, campaign_id, symbol, direction, entry, sl, tp, lots, status, tier, tier_label, open_time, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		rec.Ticket, rec.CampaignID, rec.Symbol, rec.Direction,
		rec.Entry, rec.SL, rec.TP, rec.Lots,
		rec.Status, rec.Tier, rec.TierLabel, rec.OpenTime, rec.Reason,
	)
	return
}

// MarkOpen привязывает подтверждённый тикет к write-ahead строке и
// фиксирует фактические объём и цену исполнения. В транзакции: строка
// должна привязаться к тикету ровно один раз.
func (t *Trades) MarkOpen(ctx context.Context, campaignID string, ticket int64, volume, price float64) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Trades.MarkOpen: %w", err)
		}
	}()

	return t.tx.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
			SELECT id FROM trades
			WHERE campaign_id = $1 AND status = $2
			FOR UPDATE`,
			campaignID, models.TradeSent,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("no SENT row for campaign %s: %w", campaignID, err)
		}
		_, err = tx.Exec(ctx, `
			UPDATE trades
			SET ticket = $1, lots = $2, entry = $3, status = $4
			WHERE id = $5`,
			ticket, volume, price, models.TradeOpen, id,
		)
		return err
	})
}

func (t *Trades) UpdateFields(ctx context.Context, ticket int64, fields map[string]any) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Trades.UpdateFields: %w", err)
		}
	}()

	if len(fields) == 0 {
		return nil
	}

	set := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for col, val := range fields {
		if _, ok := updatableColumns[col]; !ok {
			return fmt.Errorf("column %q is not updatable", col)
		}
		args = append(args, val)
		set = append(set, col+" = $"+strconv.Itoa(len(args)))
	}
	args = append(args, ticket)

	_, err = t.tx.Conn().Exec(ctx,
		"UPDATE trades SET "+strings.Join(set, ", ")+" WHERE ticket = $"+strconv.Itoa(len(args)),
		args...,
	)
	return
}

func (t *Trades) Open(ctx context.Context, symbol string) (recs []models.TradeRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Trades.Open: %w", err)
		}
	}()

	rows, err := t.tx.Conn().Query(ctx, `
		SELECT ticket, campaign_id, symbol, direction, entry, sl, tp, lots, status, tier, tier_label, open_time, reason
		FROM trades
		WHERE symbol = $1 AND status = $2
		ORDER BY open_time`,
		symbol, models.TradeOpen,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.TradeRecord
		if err = rows.Scan(
			&rec.Ticket, &rec.CampaignID, &rec.Symbol, &rec.Direction,
			&rec.Entry, &rec.SL, &rec.TP, &rec.Lots,
			&rec.Status, &rec.Tier, &rec.TierLabel, &rec.OpenTime, &rec.Reason,
		); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// RecentAdmitted — все входы символа за период, независимо от статуса.
// По ним после рестарта восстанавливаются окна кампаний.
func (t *Trades) RecentAdmitted(ctx context.Context, symbol string, since time.Time) (recs []models.TradeRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Trades.RecentAdmitted: %w", err)
		}
	}()

	rows, err := t.tx.Conn().Query(ctx, `
		SELECT ticket, campaign_id, symbol, direction, entry, sl, tp, lots, status, tier, tier_label, open_time, reason
		FROM trades
		WHERE symbol = $1 AND open_time >= $2
		ORDER BY open_time`,
		symbol, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.TradeRecord
		if err = rows.Scan(
			&rec.Ticket, &rec.CampaignID, &rec.Symbol, &rec.Direction,
			&rec.Entry, &rec.SL, &rec.TP, &rec.Lots,
			&rec.Status, &rec.Tier, &rec.TierLabel, &rec.OpenTime, &rec.Reason,
		); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// MissingClose — закрытые сделки без цены закрытия, для backfill-утилиты.
func (t *Trades) MissingClose(ctx context.Context, symbol string) (recs []models.TradeRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Trades.MissingClose: %w", err)
		}
	}()

	rows, err := t.tx.Conn().Query(ctx, `
		SELECT ticket, campaign_id, symbol, direction, entry, sl, tp, lots, status, tier, tier_label, open_time, reason
		FROM trades
		WHERE symbol = $1 AND status = $2 AND close_price IS NULL AND ticket <> 0
		ORDER BY open_time`,
		symbol, models.TradeClosed,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.TradeRecord
		if err = rows.Scan(
			&rec.Ticket, &rec.CampaignID, &rec.Symbol, &rec.Direction,
			&rec.Entry, &rec.SL, &rec.TP, &rec.Lots,
			&rec.Status, &rec.Tier, &rec.TierLabel, &rec.OpenTime, &rec.Reason,
		); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
