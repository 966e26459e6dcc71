package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gold_bot/internal/broker"
	"gold_bot/internal/models"
	"gold_bot/internal/signals"
	"gold_bot/pkg/logger"
)

// QuoteCache — последний тик из websocket-потока; ok=false, если потока нет.
type QuoteCache interface {
	Latest(symbol string) (models.Quote, bool)
}

// Session — вся торговля одного символа: сигнальный цикл, отправка,
// сверка позиций. Все stateful-компоненты принадлежат сессии; второй
// символ — вторая сессия, общего мутабельного состояния между ними нет.
type Session struct {
	symbol string

	gw        broker.Gateway
	quotes    QuoteCache
	src       signals.Source
	submitter *Submitter
	campaign  *Campaign
	lifecycle *Lifecycle
	trades    TradesStore
	notifier  Notifier

	risk models.RiskSettings
	exec models.ExecutionSettings

	campaignWindow time.Duration
}

func NewSession(
	symbol string,
	gw broker.Gateway,
	quotes QuoteCache,
	src signals.Source,
	submitter *Submitter,
	campaign *Campaign,
	lifecycle *Lifecycle,
	trades TradesStore,
	notifier Notifier,
	risk models.RiskSettings,
	exec models.ExecutionSettings,
	campaignCfg models.CampaignSettings,
) *Session {
	return &Session{
		symbol:         symbol,
		gw:             gw,
		quotes:         quotes,
		src:            src,
		submitter:      submitter,
		campaign:       campaign,
		lifecycle:      lifecycle,
		trades:         trades,
		notifier:       notifier,
		risk:           risk,
		exec:           exec,
		campaignWindow: campaignCfg.Window,
	}
}

// Start поднимает фоновые циклы сессии. Не блокирует.
func (s *Session) Start(ctx context.Context) {
	// источник сигналов считает дистанции в пунктах — отдаём ему
	// реальный размер пункта, как только терминал доступен
	if ps, ok := s.src.(interface{ SetPoint(float64) }); ok {
		if info, err := s.gw.SymbolInfo(ctx, s.symbol); err == nil {
			ps.SetPoint(info.Point)
		}
	}

	s.lifecycle.Restore(ctx)
	s.seedCampaign(ctx)

	go s.signalLoop(ctx)
	go s.reconcileLoop(ctx)
	go s.healthLoop(ctx)
}

// Pause останавливает новые входы; открытые позиции продолжают вестись.
func (s *Session) Pause() { s.submitter.SetEnabled(false) }

// Resume снова разрешает новые входы.
func (s *Session) Resume() { s.submitter.SetEnabled(true) }

// StatusText — человекочитаемая сводка для /status.
func (s *Session) StatusText(ctx context.Context) string {
	acct, err := s.gw.Account(ctx)
	if err != nil {
		return fmt.Sprintf("%s: брокер недоступен: %v", s.symbol, err)
	}
	return fmt.Sprintf(
		"📊 %s\nequity: %.2f\nfree margin: %.2f\nпозиций: %d\nвходы: %s\nдневной стоп: %v",
		s.symbol, acct.Equity, acct.FreeMargin,
		s.lifecycle.TrackedCount(),
		map[bool]string{true: "включены", false: "на паузе"}[s.submitter.Enabled()],
		s.lifecycle.HaltNewOrders(),
	)
}

// seedCampaign восстанавливает окна кампаний из журнала: единственная
// защита от потери Record при падении между отправкой и записью.
func (s *Session) seedCampaign(ctx context.Context) {
	if s.trades == nil {
		return
	}
	rows, err := s.trades.RecentAdmitted(ctx, s.symbol, time.Now().Add(-s.campaignWindow))
	if err != nil {
		logger.Warn("campaign seed %s: %v", s.symbol, err)
		return
	}
	for _, row := range rows {
		side := models.SideFromDirection(row.Direction)
		if side == models.SideNone {
			continue
		}
		s.campaign.Seed(s.symbol, side, row.Tier, row.OpenTime)
	}
	if len(rows) > 0 {
		logger.Info("campaign seed %s: %d entries", s.symbol, len(rows))
	}
}

func (s *Session) signalLoop(ctx context.Context) {
	ticker := time.NewTicker(s.exec.SignalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.onTick(ctx)
		}
	}
}

func (s *Session) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(s.lifecycle.cfg.ReconcileInterval)
	defer ticker.Stop()

	s.lifecycle.Reconcile(ctx) // сразу при старте

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.lifecycle.Reconcile(ctx)
		}
	}
}

func (s *Session) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			openCount := 0
			if positions, err := s.gw.OpenPositions(ctx, s.symbol); err == nil {
				openCount = len(positions)
			}
			logger.Info("[HEALTH] %s open=%d halt=%v enabled=%v",
				s.symbol, openCount, s.lifecycle.HaltNewOrders(), s.submitter.Enabled())
		}
	}
}

// quote: свежий тик из websocket-кеша, иначе REST-запрос к мосту.
func (s *Session) quote(ctx context.Context) (*models.Quote, error) {
	if s.quotes != nil {
		if q, ok := s.quotes.Latest(s.symbol); ok && time.Since(q.Time) < s.exec.SignalInterval {
			return &q, nil
		}
	}
	return s.gw.Quote(ctx, s.symbol)
}

func (s *Session) onTick(ctx context.Context) {
	q, err := s.quote(ctx)
	if err != nil {
		logger.Warn("[TICK] %s quote: %v", s.symbol, err)
		return
	}

	sig, err := s.src.Evaluate(ctx, q)
	if err != nil {
		logger.Warn("[EVAL] %s: %v", s.symbol, err)
		return
	}
	if sig == nil || sig.Direction == 0 {
		return
	}
	logger.Info("[SIGNAL] %s dir=%d tier=%s conf=%.2f @ %.2f", s.symbol, sig.Direction, sig.Tier, sig.Confidence, sig.Entry)

	if s.lifecycle.HaltNewOrders() {
		logger.Info("[SKIP] %s: daily loss halt", s.symbol)
		return
	}
	if !s.openRiskAllows(ctx, sig) {
		logger.Info("[SKIP] %s: open risk cap", s.symbol)
		return
	}

	side := models.SideFromDirection(sig.Direction)
	if !s.campaign.Allow(s.symbol, side, sig.Tier, time.Now()) {
		logger.Info("[SKIP] %s %s %s: campaign window", s.symbol, side, sig.Tier)
		return
	}

	placed, err := s.submitter.PlaceMarketOrder(ctx, sig)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnaffordable), errors.Is(err, ErrDisabled):
			logger.Info("[SKIP] %s: %v", s.symbol, err)
		case errors.Is(err, ErrConstraint):
			logger.Info("[SKIP] %s: %v", s.symbol, err)
		default:
			logger.Warn("[ORDER] %s: %v", s.symbol, err)
		}
		return
	}

	now := time.Now()
	s.campaign.Record(s.symbol, side, sig.Tier, now)
	s.lifecycle.Track(models.ManagedOrder{
		Ticket:    placed.Ticket,
		OpenTime:  now,
		Entry:     placed.Price,
		SL:        placed.SL,
		TP:        placed.TP,
		Direction: sig.Direction,
		Volume:    placed.Volume,
		Tier:      sig.Tier,
		TierLabel: sig.TierLabel,
	})

	if s.notifier != nil {
		s.notifier.Sendf("✅ [%s] OPEN %-4s @ %.2f | SL=%.2f TP=%.2f lots=%.2f | tier=%s (%s)",
			s.symbol, side, placed.Price, placed.SL, placed.TP, placed.Volume, sig.Tier, sig.Strategy)
	}
}

// openRiskAllows — суммарный открытый риск по символу не должен превышать
// MaxOpenRiskPct от equity.
func (s *Session) openRiskAllows(ctx context.Context, sig *models.Signal) bool {
	if s.risk.MaxOpenRiskPct <= 0 {
		return true
	}
	info, err := s.gw.SymbolInfo(ctx, s.symbol)
	if err != nil {
		logger.Warn("[RISK] %s: constraints: %v", s.symbol, err)
		return false
	}
	acct, err := s.gw.Account(ctx)
	if err != nil {
		logger.Warn("[RISK] %s: account: %v", s.symbol, err)
		return false
	}
	if acct.Equity <= 0 {
		return false
	}
	return s.lifecycle.OpenRisk(info) < acct.Equity*s.risk.MaxOpenRiskPct/100.0
}
