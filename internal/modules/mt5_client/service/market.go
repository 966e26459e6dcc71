package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"gold_bot/internal/models"
)

func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	var resp quoteResponse
	q := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/quote", q, &resp); err != nil {
		return nil, fmt.Errorf("Quote: %w", err)
	}
	if resp.Price <= 0 {
		return nil, fmt.Errorf("Quote: empty tick for %s", symbol)
	}
	return &models.Quote{
		Symbol:       symbol,
		Price:        resp.Price,
		Bid:          resp.Bid,
		Ask:          resp.Ask,
		SpreadPoints: resp.SpreadPoints,
		Time:         time.Unix(resp.Time, 0),
	}, nil
}

func (c *Client) SymbolInfo(ctx context.Context, symbol string) (*models.SymbolInfo, error) {
	var resp symbolInfoResponse
	q := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, "/symbol_info", q, &resp); err != nil {
		return nil, fmt.Errorf("SymbolInfo: %w", err)
	}
	if resp.VolumeMin <= 0 || resp.VolumeStep <= 0 || resp.Point <= 0 {
		return nil, fmt.Errorf("SymbolInfo: bad constraints for %s: min=%v step=%v point=%v",
			symbol, resp.VolumeMin, resp.VolumeStep, resp.Point)
	}
	tickSize := resp.TickSize
	if tickSize <= 0 {
		tickSize = resp.Point
	}
	tickValue := resp.TickValue
	if tickValue <= 0 {
		tickValue = 1
	}
	return &models.SymbolInfo{
		Symbol:        symbol,
		MinLot:        resp.VolumeMin,
		MaxLot:        resp.VolumeMax,
		LotStep:       resp.VolumeStep,
		Point:         resp.Point,
		TickSize:      tickSize,
		TickValue:     tickValue,
		MinStopPoints: resp.StopsLevel,
		Digits:        resp.Digits,
	}, nil
}

func (c *Client) Account(ctx context.Context) (*models.AccountState, error) {
	var resp accountResponse
	if err := c.getJSON(ctx, "/account", nil, &resp); err != nil {
		return nil, fmt.Errorf("Account: %w", err)
	}
	return &models.AccountState{
		Equity:     resp.Equity,
		FreeMargin: resp.MarginFree,
	}, nil
}
