package service

import (
	"context"
	"fmt"

	"gold_bot/internal/models"
)

func (c *Client) CalcMargin(ctx context.Context, side models.Side, symbol string, volume, price float64) (float64, error) {
	if volume <= 0 {
		return 0, fmt.Errorf("CalcMargin: volume <= 0")
	}
	var resp calcMarginResponse
	err := c.postJSON(ctx, "/order_calc_margin", calcMarginRequest{
		Side:   string(side),
		Symbol: symbol,
		Volume: volume,
		Price:  price,
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("CalcMargin: %w", err)
	}
	if resp.Margin == nil {
		return 0, fmt.Errorf("CalcMargin: terminal returned null for %s %.2f lots", symbol, volume)
	}
	return *resp.Margin, nil
}

func (c *Client) OrderSend(ctx context.Context, req models.OrderRequest) (*models.OrderResult, error) {
	var resp orderSendResponse
	err := c.postJSON(ctx, "/order_send", orderSendRequest{
		Symbol:    req.Symbol,
		Side:      string(req.Side),
		Volume:    req.Volume,
		Price:     req.Price,
		SL:        req.SL,
		TP:        req.TP,
		Deviation: req.DeviationPoints,
		Comment:   req.Comment,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("OrderSend: %w", err)
	}
	if resp.Retcode != retcodeDone {
		return nil, fmt.Errorf("OrderSend: rejected retcode=%d comment=%q", resp.Retcode, resp.Comment)
	}
	return &models.OrderResult{
		Ticket: resp.Ticket,
		Volume: resp.Volume,
		Price:  resp.Price,
	}, nil
}

func (c *Client) ModifyStop(ctx context.Context, ticket int64, sl, tp float64) error {
	var resp okResponse
	err := c.postJSON(ctx, "/position_modify", modifyStopRequest{Ticket: ticket, SL: sl, TP: tp}, &resp)
	if err != nil {
		return fmt.Errorf("ModifyStop: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("ModifyStop: rejected retcode=%d comment=%q", resp.Retcode, resp.Comment)
	}
	return nil
}

func (c *Client) ClosePosition(ctx context.Context, ticket int64) error {
	var resp okResponse
	err := c.postJSON(ctx, "/position_close", closePositionRequest{Ticket: ticket}, &resp)
	if err != nil {
		return fmt.Errorf("ClosePosition: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("ClosePosition: rejected retcode=%d comment=%q", resp.Retcode, resp.Comment)
	}
	return nil
}
