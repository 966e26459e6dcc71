package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"gold_bot/internal/broker"
	"gold_bot/internal/models"
	"gold_bot/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

var (
	// ErrUnaffordable — валидный скип: сайзер вернул 0.
	ErrUnaffordable = errors.New("lot size unaffordable")
	// ErrConstraint — SL/TP не встают на правильную сторону от входа.
	ErrConstraint = errors.New("stop constraints unsatisfiable")
	// ErrDisabled — глобальный kill-switch.
	ErrDisabled = errors.New("trading disabled")
)

// Submitter — конвейер валидации и отправки рыночного ордера.
// Без ретраев: любой отказ — скип, следующий тик пересчитает всё
// заново по свежим ценам и ограничениям.
type Submitter struct {
	gw     broker.Gateway
	sizer  *Sizer
	trades TradesStore
	symbol string
	exec   models.ExecutionSettings

	enabled atomic.Bool
}

func NewSubmitter(gw broker.Gateway, sizer *Sizer, trades TradesStore, symbol string, exec models.ExecutionSettings) *Submitter {
	s := &Submitter{
		gw:     gw,
		sizer:  sizer,
		trades: trades,
		symbol: symbol,
		exec:   exec,
	}
	s.enabled.Store(exec.Enabled)
	return s
}

// SetEnabled — supervisory kill-switch. Выключение не бросает открытые
// позиции: lifecycle продолжает их вести.
func (s *Submitter) SetEnabled(v bool) { s.enabled.Store(v) }
func (s *Submitter) Enabled() bool     { return s.enabled.Load() }

// Placed — подтверждённое исполнение вместе с нормализованными стопами,
// как они реально ушли брокеру.
type Placed struct {
	Ticket int64
	Volume float64
	Price  float64
	Side   models.Side
	SL     float64
	TP     float64
}

// PlaceMarketOrder проводит сигнал через все ворота и отправляет ордер.
// Любая ошибка означает "ордер не отправлен"; наверх она не эскалируется,
// сессия только логирует и ждёт следующего тика.
func (s *Submitter) PlaceMarketOrder(ctx context.Context, sig *models.Signal) (*Placed, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "submitter.place_market_order")
	defer span.Finish()

	side := models.SideFromDirection(sig.Direction)
	if side == models.SideNone {
		return nil, fmt.Errorf("PlaceMarketOrder: flat signal")
	}

	info, err := s.gw.SymbolInfo(ctx, s.symbol)
	if err != nil {
		return nil, fmt.Errorf("PlaceMarketOrder: constraints: %w", err)
	}

	sl, tp, err := normalizeStops(info, sig.Direction, sig.Entry, sig.Stop, sig.TakeProfit)
	if err != nil {
		return nil, fmt.Errorf("PlaceMarketOrder: entry=%.5f sl=%.5f tp=%.5f: %w",
			sig.Entry, sig.Stop, sig.TakeProfit, err)
	}

	acct, err := s.gw.Account(ctx)
	if err != nil {
		return nil, fmt.Errorf("PlaceMarketOrder: account: %w", err)
	}

	lot, err := s.sizer.LotSize(ctx, info, acct, side, sig.Entry, sl)
	if err != nil {
		return nil, fmt.Errorf("PlaceMarketOrder: %w", err)
	}
	if lot <= 0 {
		return nil, ErrUnaffordable
	}
	// defensive: лот ещё раз на сетку шага
	lot = snapToStep(lot, info.LotStep)
	if lot < info.MinLot {
		return nil, ErrUnaffordable
	}

	// kill-switch проверяем последним, прямо перед брокером
	if !s.enabled.Load() {
		return nil, ErrDisabled
	}

	campaignID := fmt.Sprintf("%s-%d", s.exec.OrderTag, time.Now().UnixNano())
	s.writeAhead(ctx, campaignID, sig, side, sl, tp, lot)

	res, err := s.gw.OrderSend(ctx, models.OrderRequest{
		Symbol:          s.symbol,
		Side:            side,
		Volume:          lot,
		Price:           sig.Entry,
		SL:              sl,
		TP:              tp,
		DeviationPoints: s.exec.DeviationPoints,
		Comment:         s.exec.OrderTag,
	})
	if err != nil {
		return nil, fmt.Errorf("PlaceMarketOrder: %w", err)
	}

	if s.trades != nil {
		if err := s.trades.MarkOpen(ctx, campaignID, res.Ticket, res.Volume, res.Price); err != nil {
			logger.Warn("trade journal mark open ticket=%d: %v", res.Ticket, err)
		}
	}
	return &Placed{
		Ticket: res.Ticket,
		Volume: res.Volume,
		Price:  res.Price,
		Side:   side,
		SL:     sl,
		TP:     tp,
	}, nil
}

// writeAhead пишет SENT-строку до отправки. Падение между отправкой и
// записью тикета чинится на рестарте: окна кампаний реконструируются из
// журнала, а недожившая строка переучитывает бюджет в безопасную сторону.
func (s *Submitter) writeAhead(ctx context.Context, campaignID string, sig *models.Signal, side models.Side, sl, tp, lot float64) {
	if s.trades == nil {
		return
	}
	err := s.trades.Insert(ctx, &models.TradeRecord{
		CampaignID: campaignID,
		Symbol:     s.symbol,
		Direction:  sig.Direction,
		Entry:      sig.Entry,
		SL:         sl,
		TP:         tp,
		Lots:       lot,
		Status:     models.TradeSent,
		Tier:       sig.Tier,
		TierLabel:  sig.TierLabel,
		OpenTime:   time.Now().UTC(),
	})
	if err != nil {
		// журнал не должен блокировать торговлю
		logger.Warn("trade journal write-ahead %s %s: %v", s.symbol, side, err)
	}
}

// normalizeStops выравнивает SL/TP на тиковую сетку и растягивает их
// наружу до минимальной дистанции брокера. Если после этого стороны
// не сходятся (SL строго по убыточную, TP строго по прибыльную сторону),
// ордер не отправляется.
func normalizeStops(info *models.SymbolInfo, dir int, entry, sl, tp float64) (float64, float64, error) {
	tick := info.TickSize
	nsl := roundToTick(sl, tick)
	ntp := roundToTick(tp, tick)
	minDist := info.MinStopPoints * info.Point

	if dir > 0 {
		if entry-nsl < minDist {
			nsl = roundDownToTick(entry-minDist, tick)
		}
		if ntp-entry < minDist {
			ntp = roundUpToTick(entry+minDist, tick)
		}
		if !(nsl < entry && ntp > entry) {
			return 0, 0, ErrConstraint
		}
	} else {
		if nsl-entry < minDist {
			nsl = roundUpToTick(entry+minDist, tick)
		}
		if entry-ntp < minDist {
			ntp = roundDownToTick(entry-minDist, tick)
		}
		if !(nsl > entry && ntp < entry) {
			return 0, 0, ErrConstraint
		}
	}
	return nsl, ntp, nil
}
