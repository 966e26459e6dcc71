package engine

import (
	"context"
	"testing"
	"time"

	"gold_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	sig *models.Signal
	err error
}

func (f *fakeSource) Evaluate(_ context.Context, _ *models.Quote) (*models.Signal, error) {
	return f.sig, f.err
}

func newTestSession(gw *fakeGateway, trades *fakeTrades, src *fakeSource) (*Session, *Lifecycle, *Campaign) {
	submitter := newTestSubmitter(gw, trades)
	campaign := newTestCampaign(10*time.Minute, 0)
	lifecycle := newTestLifecycle(gw, trades, 20*time.Second)

	var store TradesStore
	if trades != nil {
		store = trades
	}
	s := NewSession("XAUUSD", gw, nil, src, submitter, campaign, lifecycle, store, nil,
		models.RiskSettings{RiskPct: 1.0, DailyLossLimitPct: 3.0, MaxOpenRiskPct: 5.0},
		models.ExecutionSettings{Enabled: true, DeviationPoints: 30, OrderTag: "gold_bot", SignalInterval: 30 * time.Second},
		models.CampaignSettings{Window: 10 * time.Minute},
	)
	return s, lifecycle, campaign
}

func TestSessionTick_PlacesAndTracks(t *testing.T) {
	gw := newFakeGateway()
	trades := newFakeTrades()
	src := &fakeSource{sig: buySignal()}
	s, lifecycle, campaign := newTestSession(gw, trades, src)

	s.onTick(context.Background())

	require.Len(t, gw.sentOrders, 1)
	assert.Equal(t, 1, lifecycle.TrackedCount())
	assert.Equal(t, 1, campaign.Count("XAUUSD", models.SideBuy, models.TierHigh, time.Now()))
}

func TestSessionTick_FlatSignalDoesNothing(t *testing.T) {
	gw := newFakeGateway()
	src := &fakeSource{sig: nil}
	s, _, _ := newTestSession(gw, nil, src)

	s.onTick(context.Background())
	assert.Empty(t, gw.sentOrders)
}

func TestSessionTick_HaltBlocksEntries(t *testing.T) {
	gw := newFakeGateway()
	src := &fakeSource{sig: buySignal()}
	s, lifecycle, _ := newTestSession(gw, nil, src)

	// дневной лимит выбран: сверка взводит halt
	gw.deals = []models.Deal{
		{PositionID: 3, Type: models.DealExit, Profit: -400, Time: time.Now().Add(-time.Minute)},
	}
	lifecycle.Reconcile(context.Background())
	require.True(t, lifecycle.HaltNewOrders())

	s.onTick(context.Background())
	assert.Empty(t, gw.sentOrders, "halted session must not submit")
}

func TestSessionTick_CampaignBudgetBlocks(t *testing.T) {
	gw := newFakeGateway()
	src := &fakeSource{sig: buySignal()}
	s, _, campaign := newTestSession(gw, nil, src)

	now := time.Now()
	for i := 0; i < 6; i++ { // HIGH cap
		campaign.Record("XAUUSD", models.SideBuy, models.TierHigh, now)
	}

	s.onTick(context.Background())
	assert.Empty(t, gw.sentOrders)
}

func TestSessionTick_OpenRiskCapBlocks(t *testing.T) {
	gw := newFakeGateway()
	src := &fakeSource{sig: buySignal()}
	s, lifecycle, _ := newTestSession(gw, nil, src)

	// открытый риск 5 * 100$ = 500$ = 5% от equity 10000 — кап выбран
	for i := int64(1); i <= 5; i++ {
		lifecycle.Track(trackedLong(i, time.Minute, models.TierHigh))
	}

	s.onTick(context.Background())
	assert.Empty(t, gw.sentOrders)
}

func TestSessionTick_EvaluateErrorSkipsQuietly(t *testing.T) {
	gw := newFakeGateway()
	src := &fakeSource{err: assert.AnError}
	s, _, _ := newTestSession(gw, nil, src)

	s.onTick(context.Background())
	assert.Empty(t, gw.sentOrders)
}

func TestSessionStart_SeedsCampaignFromJournal(t *testing.T) {
	gw := newFakeGateway()
	trades := newFakeTrades()
	trades.openRows = []models.TradeRecord{
		{Ticket: 5, Symbol: "XAUUSD", Direction: 1, Tier: models.TierLow, OpenTime: time.Now().Add(-2 * time.Minute)},
		{Ticket: 6, Symbol: "XAUUSD", Direction: 1, Tier: models.TierLow, OpenTime: time.Now().Add(-time.Minute)},
	}
	src := &fakeSource{sig: buySignal()}
	s, _, campaign := newTestSession(gw, trades, src)

	s.seedCampaign(context.Background())
	assert.Equal(t, 2, campaign.Count("XAUUSD", models.SideBuy, models.TierLow, time.Now()))
	assert.False(t, campaign.Allow("XAUUSD", models.SideBuy, models.TierLow, time.Now()), "restart must not reset the budget")
}
