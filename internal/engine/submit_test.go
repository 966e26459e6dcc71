package engine

import (
	"context"
	"testing"

	"gold_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSubmitter(gw *fakeGateway, trades *fakeTrades) *Submitter {
	sizer := NewSizer(gw, models.RiskSettings{RiskPct: 1.0})
	var store TradesStore
	if trades != nil {
		store = trades
	}
	return NewSubmitter(gw, sizer, store, "XAUUSD", models.ExecutionSettings{
		Enabled:         true,
		DeviationPoints: 30,
		OrderTag:        "gold_bot",
	})
}

func buySignal() *models.Signal {
	return &models.Signal{
		Symbol:     "XAUUSD",
		Direction:  1,
		Tier:       models.TierHigh,
		Entry:      2000.0,
		Stop:       1995.0,
		TakeProfit: 2010.0,
	}
}

func TestPlaceMarketOrder_HappyPath(t *testing.T) {
	gw := newFakeGateway()
	trades := newFakeTrades()
	s := newTestSubmitter(gw, trades)

	placed, err := s.PlaceMarketOrder(context.Background(), buySignal())
	require.NoError(t, err)

	require.Len(t, gw.sentOrders, 1)
	req := gw.sentOrders[0]
	assert.Equal(t, models.SideBuy, req.Side)
	assert.InDelta(t, 0.2, req.Volume, 1e-9)
	assert.InDelta(t, 1995.0, req.SL, 1e-9)
	assert.InDelta(t, 2010.0, req.TP, 1e-9)
	assert.Equal(t, 30, req.DeviationPoints)
	assert.Equal(t, "gold_bot", req.Comment)

	assert.Equal(t, int64(1001), placed.Ticket)
	assert.Equal(t, models.SideBuy, placed.Side)

	// write-ahead строка привязана к тикету
	require.Len(t, trades.rows, 1)
	for _, rec := range trades.rows {
		assert.Equal(t, int64(1001), rec.Ticket)
		assert.Equal(t, models.TradeOpen, rec.Status)
	}
}

func TestPlaceMarketOrder_StopsWidenedToBrokerMinimum(t *testing.T) {
	gw := newFakeGateway()
	gw.info.MinStopPoints = 300 // 3.00 при point=0.01
	s := newTestSubmitter(gw, nil)

	sig := buySignal()
	sig.Stop = 1999.0       // ближе минимума
	sig.TakeProfit = 2001.0 // тоже ближе

	placed, err := s.PlaceMarketOrder(context.Background(), sig)
	require.NoError(t, err)

	assert.LessOrEqual(t, placed.SL, 1997.0, "SL widened outward, away from entry")
	assert.GreaterOrEqual(t, placed.TP, 2003.0, "TP widened outward, away from entry")
}

func TestPlaceMarketOrder_SideConstraintAborts(t *testing.T) {
	gw := newFakeGateway()
	s := newTestSubmitter(gw, nil)

	sig := buySignal()
	sig.Stop = 2005.0 // SL по прибыльную сторону для лонга

	_, err := s.PlaceMarketOrder(context.Background(), sig)
	require.ErrorIs(t, err, ErrConstraint)
	assert.Empty(t, gw.sentOrders, "no order may reach the broker")
}

func TestPlaceMarketOrder_FlatSignalRejected(t *testing.T) {
	gw := newFakeGateway()
	s := newTestSubmitter(gw, nil)

	sig := buySignal()
	sig.Direction = 0

	_, err := s.PlaceMarketOrder(context.Background(), sig)
	require.Error(t, err)
	assert.Empty(t, gw.sentOrders)
}

func TestPlaceMarketOrder_UnaffordableSkips(t *testing.T) {
	gw := newFakeGateway()
	gw.acct.FreeMargin = 0.5
	s := newTestSubmitter(gw, nil)

	_, err := s.PlaceMarketOrder(context.Background(), buySignal())
	require.ErrorIs(t, err, ErrUnaffordable)
	assert.Empty(t, gw.sentOrders)
}

func TestPlaceMarketOrder_KillSwitch(t *testing.T) {
	gw := newFakeGateway()
	trades := newFakeTrades()
	s := newTestSubmitter(gw, trades)

	s.SetEnabled(false)
	_, err := s.PlaceMarketOrder(context.Background(), buySignal())
	require.ErrorIs(t, err, ErrDisabled)
	assert.Empty(t, gw.sentOrders)
	assert.Empty(t, trades.rows, "disabled order must not hit the journal either")

	s.SetEnabled(true)
	_, err = s.PlaceMarketOrder(context.Background(), buySignal())
	require.NoError(t, err)
	assert.Len(t, gw.sentOrders, 1)
}

func TestPlaceMarketOrder_JournalFailureDoesNotBlock(t *testing.T) {
	gw := newFakeGateway()
	trades := newFakeTrades()
	trades.insertErr = assert.AnError
	s := newTestSubmitter(gw, trades)

	_, err := s.PlaceMarketOrder(context.Background(), buySignal())
	require.NoError(t, err, "journal outage must not stop trading")
	assert.Len(t, gw.sentOrders, 1)
}

func TestPlaceMarketOrder_BrokerRejection(t *testing.T) {
	gw := newFakeGateway()
	gw.orderErr = assert.AnError
	s := newTestSubmitter(gw, nil)

	_, err := s.PlaceMarketOrder(context.Background(), buySignal())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnaffordable)
}

func TestNormalizeStops_TickGrid(t *testing.T) {
	info := &models.SymbolInfo{TickSize: 0.25, Point: 0.01}

	sl, tp, err := normalizeStops(info, 1, 2000.0, 1995.13, 2010.13)
	require.NoError(t, err)

	assert.InDelta(t, 1995.25, sl, 1e-9)
	assert.InDelta(t, 2010.25, tp, 1e-9)
}

func TestNormalizeStops_ShortSide(t *testing.T) {
	info := &models.SymbolInfo{TickSize: 0.01, Point: 0.01, MinStopPoints: 100}

	sl, tp, err := normalizeStops(info, -1, 2000.0, 2000.5, 1999.5)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, sl, 2001.0)
	assert.LessOrEqual(t, tp, 1999.0)
}
