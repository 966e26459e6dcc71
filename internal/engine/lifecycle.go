package engine

import (
	"context"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gold_bot/internal/broker"
	"gold_bot/internal/models"
	"gold_bot/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

// Notifier — то, чем lifecycle сообщает о событиях наружу (telegram).
type Notifier interface {
	Sendf(format string, args ...any)
}

// Lifecycle ведёт открытые тикеты символа: сверяет наше состояние с
// брокерским, добирает цену/время/PnL закрытых извне сделок из истории,
// двигает стоп в безубыток, закрывает пересидевшие позиции и гоняет
// минимизатор убытка. Единственный владелец ManagedOrder и lossMinState.
type Lifecycle struct {
	gw       broker.Gateway
	trades   TradesStore
	notifier Notifier
	symbol   string

	risk    models.RiskSettings
	cfg     models.LifecycleSettings
	lossCfg models.LossMinSettings

	mu      sync.Mutex // single-flight Reconcile + managed/lossMin
	managed map[int64]*models.ManagedOrder
	lossMin map[int64]*lossMinState

	halt atomic.Bool
}

func NewLifecycle(
	gw broker.Gateway,
	trades TradesStore,
	notifier Notifier,
	symbol string,
	risk models.RiskSettings,
	cfg models.LifecycleSettings,
	lossCfg models.LossMinSettings,
) *Lifecycle {
	return &Lifecycle{
		gw:       gw,
		trades:   trades,
		notifier: notifier,
		symbol:   symbol,
		risk:     risk,
		cfg:      cfg,
		lossCfg:  lossCfg,
		managed:  make(map[int64]*models.ManagedOrder),
		lossMin:  make(map[int64]*lossMinState),
	}
}

// HaltNewOrders — дневной лимит убытка выбран; submission-путь обязан
// спросить перед каждым новым входом. Сбрасывается сам, когда очередная
// сверка увидит дневной P&L обратно в норме (на практике — новый день).
func (l *Lifecycle) HaltNewOrders() bool { return l.halt.Load() }

// TrackedCount — сколько тикетов сейчас под управлением.
func (l *Lifecycle) TrackedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.managed)
}

// Track регистрирует подтверждённый тикет. R фиксируем сразу:
// после переноса стопа в безубыток исходную дистанцию не восстановить.
func (l *Lifecycle) Track(ord models.ManagedOrder) {
	ord.Risk = math.Abs(ord.Entry - ord.SL)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.managed[ord.Ticket] = &ord
}

// Restore поднимает незакрытые сделки из журнала после рестарта.
func (l *Lifecycle) Restore(ctx context.Context) {
	if l.trades == nil {
		return
	}
	rows, err := l.trades.Open(ctx, l.symbol)
	if err != nil {
		logger.Warn("lifecycle restore %s: %v", l.symbol, err)
		return
	}
	for _, row := range rows {
		if row.Ticket == 0 {
			continue // SENT-строка без тикета: ордер не подтвердился
		}
		l.Track(models.ManagedOrder{
			Ticket:    row.Ticket,
			OpenTime:  row.OpenTime,
			Entry:     row.Entry,
			SL:        row.SL,
			TP:        row.TP,
			Direction: row.Direction,
			Volume:    row.Lots,
			Tier:      row.Tier,
			TierLabel: row.TierLabel,
		})
	}
	if len(rows) > 0 {
		logger.Info("lifecycle restore %s: %d trades", l.symbol, len(rows))
	}
}

// OpenRisk — суммарный денежный риск по ведомым позициям.
func (l *Lifecycle) OpenRisk(info *models.SymbolInfo) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0.0
	for _, st := range l.managed {
		if st.Risk <= 0 || info.TickSize <= 0 {
			continue
		}
		total += st.Risk / info.TickSize * info.TickValue * st.Volume
	}
	return total
}

// Reconcile — одна сверка с брокером. Любой отказ брокерского чтения
// прерывает цикл целиком, без мутаций: терминал недоступен — пробуем
// в следующий запланированный проход.
func (l *Lifecycle) Reconcile(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	span, ctx := opentracing.StartSpanFromContext(ctx, "lifecycle.reconcile")
	defer span.Finish()

	now := time.Now()

	acct, err := l.gw.Account(ctx)
	if err != nil {
		logger.Warn("reconcile %s: account: %v", l.symbol, err)
		return
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	deals, err := l.gw.RecentDeals(ctx, l.symbol, midnight, now)
	if err != nil {
		logger.Warn("reconcile %s: deals: %v", l.symbol, err)
		return
	}

	info, err := l.gw.SymbolInfo(ctx, l.symbol)
	if err != nil {
		logger.Warn("reconcile %s: symbol info: %v", l.symbol, err)
		return
	}

	positions, err := l.gw.OpenPositions(ctx, l.symbol)
	if err != nil {
		logger.Warn("reconcile %s: positions: %v", l.symbol, err)
		return
	}

	// дальше все чтения на руках — можно мутировать
	l.updateDailyHalt(acct, deals)

	open := make(map[int64]models.BrokerPosition, len(positions))
	for _, p := range positions {
		open[p.Ticket] = p
	}

	for ticket, st := range l.managed {
		if _, ok := open[ticket]; !ok {
			l.finalizeClosed(ctx, st, deals, now)
		}
	}

	for _, p := range positions {
		st, ok := l.managed[p.Ticket]
		if !ok {
			continue // чужая позиция (ручная) — не трогаем
		}
		l.applyExitRules(ctx, info, p, st, now)
	}
}

func (l *Lifecycle) updateDailyHalt(acct *models.AccountState, deals []models.Deal) {
	realized := 0.0
	for _, d := range deals {
		if d.Type == models.DealExit {
			realized += d.Profit
		}
	}

	halt := false
	if realized < 0 && acct.Equity > 0 {
		lossPct := -realized / acct.Equity * 100.0
		halt = lossPct >= l.risk.DailyLossLimitPct
	}
	if halt && !l.halt.Load() {
		logger.Warn("daily loss limit hit %s: realized=%.2f equity=%.2f", l.symbol, realized, acct.Equity)
		l.notify("🛑 [%s] Дневной лимит убытка выбран (%.2f): новые входы остановлены", l.symbol, realized)
	}
	l.halt.Store(halt)
}

// finalizeClosed — тикет пропал из открытых: сделка закрыта (SL/TP/время/
// вручную). Обогащаем запись последним exit-дилом позиции; если истории
// нет — закрываем запись тем, что знаем: потерять тикет из трекинга
// нельзя, неполная запись — можно.
func (l *Lifecycle) finalizeClosed(ctx context.Context, st *models.ManagedOrder, deals []models.Deal, now time.Time) {
	reason := st.CloseReason
	if reason == "" {
		reason = "EXTERNAL"
	}
	fields := map[string]any{
		"status": string(models.TradeClosed),
		"reason": reason,
	}

	exit := latestExitDeal(deals, st.Ticket)
	if exit == nil {
		// позиция могла открыться до полуночи — добираем окно шире
		wider, err := l.gw.RecentDeals(ctx, l.symbol, st.OpenTime.Add(-time.Minute), now)
		if err == nil {
			exit = latestExitDeal(wider, st.Ticket)
		}
	}
	if exit != nil {
		fields["close_time"] = exit.Time.UTC()
		fields["close_price"] = exit.Price
		fields["pnl"] = exit.Profit
		if st.Risk > 0 {
			fields["pnl_r"] = float64(st.Direction) * (exit.Price - st.Entry) / st.Risk
		}
	} else {
		logger.Warn("close enrichment failed ticket=%d: no exit deal found", st.Ticket)
	}

	if l.trades != nil {
		if err := l.trades.UpdateFields(ctx, st.Ticket, fields); err != nil {
			logger.Warn("trade journal close ticket=%d: %v", st.Ticket, err)
		}
	}

	delete(l.managed, st.Ticket)
	delete(l.lossMin, st.Ticket)

	if exit != nil {
		l.notify("📕 [%s] Закрыт тикет %d | %.2f | pnl=%.2f | %s", l.symbol, st.Ticket, exit.Price, exit.Profit, reason)
	} else {
		l.notify("📕 [%s] Закрыт тикет %d | %s (без обогащения)", l.symbol, st.Ticket, reason)
	}
}

func latestExitDeal(deals []models.Deal, ticket int64) *models.Deal {
	var best *models.Deal
	for i := range deals {
		d := &deals[i]
		if d.PositionID != ticket || d.Type != models.DealExit {
			continue
		}
		// частичные закрытия: берём последний exit, он финальный
		if best == nil || d.Time.After(best.Time) {
			best = d
		}
	}
	return best
}

func (l *Lifecycle) applyExitRules(ctx context.Context, info *models.SymbolInfo, pos models.BrokerPosition, st *models.ManagedOrder, now time.Time) {
	// взведённый минимизатор разбирается первым и блокирует остальные правила
	if ls, ok := l.lossMin[st.Ticket]; ok {
		if out := ls.evaluate(now, pos.Current, pos.Profit, l.lossCfg); out != lossMinWait {
			l.closeNow(ctx, st, out.reason())
		}
		return
	}

	l.maybeBreakeven(ctx, info, pos, st)

	if now.Sub(st.OpenTime) >= l.maxAgeFor(st.Tier) {
		l.timeExit(ctx, info, pos, st, now)
	}
}

// maybeBreakeven двигает SL к входу после BETriggerR. Латч BreakevenDone
// гарантирует один modify-вызов на пересечение порога, а не на каждый цикл.
func (l *Lifecycle) maybeBreakeven(ctx context.Context, info *models.SymbolInfo, pos models.BrokerPosition, st *models.ManagedOrder) {
	if st.BreakevenDone || st.Risk <= 0 {
		return
	}
	unrealR := float64(st.Direction) * (pos.Current - st.Entry) / st.Risk
	if unrealR < l.cfg.BETriggerR {
		return
	}

	newSL := st.Entry + float64(st.Direction)*l.cfg.BEBufferPoints*info.Point
	newSL = roundToTick(newSL, info.TickSize)
	if err := l.gw.ModifyStop(ctx, st.Ticket, newSL, st.TP); err != nil {
		logger.Warn("breakeven ticket=%d: %v", st.Ticket, err)
		return
	}
	st.BreakevenDone = true
	st.SL = newSL
	l.notify("🛡 [%s] SL в безубыток, тикет %d -> %.2f (%.2fR)", l.symbol, st.Ticket, newSL, unrealR)
}

// timeExit — позиция пересидела свой максимум. Профит или терпимый
// убыток — закрываем сразу; запредельный убыток — тоже сразу; между
// порогами один раз взводим минимизатор.
func (l *Lifecycle) timeExit(ctx context.Context, info *models.SymbolInfo, pos models.BrokerPosition, st *models.ManagedOrder, now time.Time) {
	if st.LossMinDone || pos.Profit >= -l.lossCfg.SoftLossUSD {
		l.closeNow(ctx, st, "TIME")
		return
	}
	if pos.Profit <= -l.lossCfg.HardLossUSD {
		l.closeNow(ctx, st, "HARD_LOSS")
		return
	}

	target := pos.Current + float64(st.Direction)*l.lossCfg.RetracePoints*info.Point
	l.lossMin[st.Ticket] = &lossMinState{
		ticket:    st.Ticket,
		armedAt:   now,
		target:    target,
		direction: st.Direction,
	}
	st.LossMinDone = true
	logger.Info("loss minimizer armed ticket=%d target=%.2f window=%s", st.Ticket, target, l.lossCfg.Window)
}

func (l *Lifecycle) closeNow(ctx context.Context, st *models.ManagedOrder, reason string) {
	st.CloseReason = reason
	delete(l.lossMin, st.Ticket)
	if err := l.gw.ClosePosition(ctx, st.Ticket); err != nil {
		// повторим в следующем цикле: правило выхода всё ещё сработает
		logger.Warn("close ticket=%d (%s): %v", st.Ticket, reason, err)
		return
	}
	l.notify("🕒 [%s] Закрываем тикет %d | %s", l.symbol, st.Ticket, reason)
	// из managed не удаляем: следующая сверка увидит пропажу тикета
	// и финализирует запись с обогащением из истории сделок
}

func (l *Lifecycle) maxAgeFor(tier models.Tier) time.Duration {
	if age, ok := l.cfg.MaxAgePerTier[strings.ToUpper(tier)]; ok {
		return age
	}
	return l.cfg.DefaultMaxAge
}

func (l *Lifecycle) notify(format string, args ...any) {
	if l.notifier == nil {
		return
	}
	l.notifier.Sendf(format, args...)
}
