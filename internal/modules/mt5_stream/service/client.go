package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"gold_bot/internal/models"
	"gold_bot/internal/modules/config"
	"gold_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// Client — websocket-поток котировок от моста.
// Держит последний тик в кеше; движок берёт его вместо лишнего
// REST-запроса, а при устаревании падает обратно на Gateway.Quote.
type Client struct {
	wsURL    string
	symbol   string
	wsDialer *websocket.Dialer

	mu   sync.RWMutex
	last map[string]models.Quote
}

func NewClient(cfg *config.Config) *Client {
	wsURL := cfg.Broker.BridgeURL
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	return &Client{
		wsURL:    wsURL + "/ws/quotes",
		symbol:   cfg.Broker.Symbol,
		wsDialer: &websocket.Dialer{},
		last:     make(map[string]models.Quote),
	}
}

// Latest — последний тик по символу, ok=false если ещё ничего не пришло.
func (c *Client) Latest(symbol string) (models.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.last[symbol]
	return q, ok
}

func (c *Client) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := c.wsDialer.Dial(c.wsURL, nil)
		if err != nil {
			logger.Warn("[WS] dial error: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		sub := map[string]any{
			"op":      "subscribe",
			"symbols": []string{c.symbol},
		}
		if err := conn.WriteJSON(sub); err != nil {
			logger.Warn("[WS] subscribe error: %v", err)
			_ = conn.Close()
			continue
		}

		// keepalive: мост закрывает молчащие соединения
		stopPing := make(chan struct{})
		go func() {
			t := time.NewTicker(20 * time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-stopPing:
					return
				case <-t.C:
					_ = conn.WriteJSON(map[string]string{"op": "ping"})
				}
			}
		}()

		c.readLoop(ctx, conn)
		close(stopPing)
		_ = conn.Close()
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Warn("[WS] read error: %v", err)
			return
		}

		var frame struct {
			Symbol       string  `json:"symbol"`
			Price        float64 `json:"price"`
			Bid          float64 `json:"bid"`
			Ask          float64 `json:"ask"`
			SpreadPoints float64 `json:"spread_points"`
			Time         int64   `json:"time"`
		}
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			continue
		}
		if frame.Symbol == "" || frame.Price <= 0 {
			continue
		}

		c.mu.Lock()
		c.last[frame.Symbol] = models.Quote{
			Symbol:       frame.Symbol,
			Price:        frame.Price,
			Bid:          frame.Bid,
			Ask:          frame.Ask,
			SpreadPoints: frame.SpreadPoints,
			Time:         time.Unix(frame.Time, 0),
		}
		c.mu.Unlock()
	}
}
