package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"gold_bot/internal/models"
)

func (c *Client) OpenPositions(ctx context.Context, symbol string) ([]models.BrokerPosition, error) {
	var rows []positionRow
	q := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/positions", q, &rows); err != nil {
		return nil, fmt.Errorf("OpenPositions: %w", err)
	}

	out := make([]models.BrokerPosition, 0, len(rows))
	for _, row := range rows {
		side := models.SideBuy
		if row.Type == 1 {
			side = models.SideSell
		}
		out = append(out, models.BrokerPosition{
			Ticket:   row.Ticket,
			Symbol:   row.Symbol,
			Side:     side,
			Entry:    row.PriceOpen,
			Current:  row.PriceCur,
			Volume:   row.Volume,
			SL:       row.SL,
			TP:       row.TP,
			Profit:   row.Profit,
			OpenTime: time.Unix(row.Time, 0),
		})
	}
	return out, nil
}

func (c *Client) RecentDeals(ctx context.Context, symbol string, since, until time.Time) ([]models.Deal, error) {
	var rows []dealRow
	q := url.Values{
		"symbol": {symbol},
		"from":   {strconv.FormatInt(since.Unix(), 10)},
		"to":     {strconv.FormatInt(until.Unix(), 10)},
	}
	if err := c.getJSON(ctx, "/deals", q, &rows); err != nil {
		return nil, fmt.Errorf("RecentDeals: %w", err)
	}

	out := make([]models.Deal, 0, len(rows))
	for _, row := range rows {
		typ := models.DealEntry
		if row.Entry == 1 {
			typ = models.DealExit
		}
		out = append(out, models.Deal{
			PositionID: row.PositionID,
			Type:       typ,
			Price:      row.Price,
			Volume:     row.Volume,
			Profit:     row.Profit,
			Time:       time.Unix(row.Time, 0),
		})
	}
	return out, nil
}
