package engine

import (
	"context"
	"sync"
	"time"

	"gold_bot/internal/models"
)

// fakeGateway — in-memory брокер для тестов движка. Поля выставляются
// тестом напрямую, вызовы записываются для проверок.
type fakeGateway struct {
	mu sync.Mutex

	quote models.Quote
	info  models.SymbolInfo
	acct  models.AccountState

	positions []models.BrokerPosition
	deals     []models.Deal

	// CalcMargin возвращает volume*marginPerLot
	marginPerLot float64

	quoteErr  error
	infoErr   error
	acctErr   error
	posErr    error
	dealsErr  error
	marginErr error
	orderErr  error
	modifyErr error
	closeErr  error

	orderRes models.OrderResult

	sentOrders    []models.OrderRequest
	modifyCalls   []modifyCall
	closedTickets []int64
	marginCalls   int
	dealsWindows  [][2]time.Time
}

type modifyCall struct {
	ticket int64
	sl, tp float64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		info: models.SymbolInfo{
			Symbol:        "XAUUSD",
			MinLot:        0.01,
			MaxLot:        100,
			LotStep:       0.01,
			Point:         0.01,
			TickSize:      0.01,
			TickValue:     1.0, // 1 лот = 100 oz: тик в $0.01 стоит $1
			MinStopPoints: 0,
			Digits:        2,
		},
		acct:         models.AccountState{Equity: 10000, FreeMargin: 10000},
		marginPerLot: 100,
		orderRes:     models.OrderResult{Ticket: 1001, Volume: 0.2, Price: 2000},
	}
}

func (f *fakeGateway) Quote(_ context.Context, _ string) (*models.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	q := f.quote
	return &q, nil
}

func (f *fakeGateway) SymbolInfo(_ context.Context, _ string) (*models.SymbolInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	info := f.info
	return &info, nil
}

func (f *fakeGateway) Account(_ context.Context) (*models.AccountState, error) {
	if f.acctErr != nil {
		return nil, f.acctErr
	}
	a := f.acct
	return &a, nil
}

func (f *fakeGateway) OpenPositions(_ context.Context, _ string) ([]models.BrokerPosition, error) {
	if f.posErr != nil {
		return nil, f.posErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.BrokerPosition, len(f.positions))
	copy(out, f.positions)
	return out, nil
}

func (f *fakeGateway) RecentDeals(_ context.Context, _ string, since, until time.Time) ([]models.Deal, error) {
	if f.dealsErr != nil {
		return nil, f.dealsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dealsWindows = append(f.dealsWindows, [2]time.Time{since, until})
	var out []models.Deal
	for _, d := range f.deals {
		if !d.Time.Before(since) && !d.Time.After(until) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeGateway) CalcMargin(_ context.Context, _ models.Side, _ string, volume, _ float64) (float64, error) {
	f.mu.Lock()
	f.marginCalls++
	f.mu.Unlock()
	if f.marginErr != nil {
		return 0, f.marginErr
	}
	return volume * f.marginPerLot, nil
}

func (f *fakeGateway) OrderSend(_ context.Context, req models.OrderRequest) (*models.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	f.sentOrders = append(f.sentOrders, req)
	res := f.orderRes
	if res.Volume == 0 {
		res.Volume = req.Volume
	}
	if res.Price == 0 {
		res.Price = req.Price
	}
	return &res, nil
}

func (f *fakeGateway) ModifyStop(_ context.Context, ticket int64, sl, tp float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modifyErr != nil {
		return f.modifyErr
	}
	f.modifyCalls = append(f.modifyCalls, modifyCall{ticket: ticket, sl: sl, tp: tp})
	return nil
}

func (f *fakeGateway) ClosePosition(_ context.Context, ticket int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closedTickets = append(f.closedTickets, ticket)
	return nil
}

// fakeTrades — журнал в памяти.
type fakeTrades struct {
	mu      sync.Mutex
	rows    map[string]*models.TradeRecord // по campaignID
	updates map[int64][]map[string]any

	insertErr error
	openRows  []models.TradeRecord
}

func newFakeTrades() *fakeTrades {
	return &fakeTrades{
		rows:    make(map[string]*models.TradeRecord),
		updates: make(map[int64][]map[string]any),
	}
}

func (f *fakeTrades) Insert(_ context.Context, rec *models.TradeRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rec
	f.rows[rec.CampaignID] = &cp
	return nil
}

func (f *fakeTrades) MarkOpen(_ context.Context, campaignID string, ticket int64, volume, price float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.rows[campaignID]
	if !ok {
		return nil
	}
	rec.Ticket = ticket
	rec.Lots = volume
	rec.Entry = price
	rec.Status = models.TradeOpen
	return nil
}

func (f *fakeTrades) UpdateFields(_ context.Context, ticket int64, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[ticket] = append(f.updates[ticket], fields)
	return nil
}

func (f *fakeTrades) Open(_ context.Context, _ string) ([]models.TradeRecord, error) {
	return f.openRows, nil
}

func (f *fakeTrades) RecentAdmitted(_ context.Context, _ string, _ time.Time) ([]models.TradeRecord, error) {
	return f.openRows, nil
}

// lastUpdate — последний частичный апдейт тикета, nil если не было.
func (f *fakeTrades) lastUpdate(ticket int64) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	ups := f.updates[ticket]
	if len(ups) == 0 {
		return nil
	}
	return ups[len(ups)-1]
}

// fakeNotifier копит отправленные сообщения.
type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) Sendf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, format)
}
