package engine

import (
	"context"
	"fmt"
	"math"

	"gold_bot/internal/broker"
	"gold_bot/internal/models"
)

// marginUseFraction — сколько свободной маржи разрешаем занять ордером.
const marginUseFraction = 0.95

// maxMarginSearchIters — верхняя граница бинарного поиска по сетке лотов.
const maxMarginSearchIters = 20

// Sizer считает размер позиции в лотах из двух независимых ограничений:
//   - риск: RiskPct от equity, делённый на денежный риск одного лота по стопу;
//   - маржа: максимальный лот, чья маржа влезает в marginUseFraction
//     свободной маржи.
//
// Побеждает более жёсткое. Маржу брокер считает сам (плечо и инструмент
// непрозрачны), поэтому допустимый лот ищем бинарным поиском по сетке
// шага лота, а не формулой.
type Sizer struct {
	gw      broker.Gateway
	riskPct float64
}

func NewSizer(gw broker.Gateway, risk models.RiskSettings) *Sizer {
	return &Sizer{gw: gw, riskPct: risk.RiskPct}
}

// LotSize возвращает (0, nil) как валидный отказ от сделки:
// нулевой риск, нет маржи даже на минимальный лот и т.п.
// Ошибка означает, что посчитать не удалось (брокер недоступен).
func (s *Sizer) LotSize(
	ctx context.Context,
	info *models.SymbolInfo,
	acct *models.AccountState,
	side models.Side,
	entry, stop float64,
) (float64, error) {
	dist := math.Abs(entry - stop)
	if dist <= 0 {
		return 0, nil // неопределённый риск — не торгуем
	}
	if acct.FreeMargin <= 0 || acct.Equity <= 0 {
		return 0, nil
	}

	riskAmount := acct.Equity * s.riskPct / 100.0
	perLot := dist / info.TickSize * info.TickValue
	if perLot <= 0 || math.IsNaN(perLot) || math.IsInf(perLot, 0) {
		return 0, nil
	}
	byRisk := riskAmount / perLot

	byMargin, err := s.maxLotByMargin(ctx, info, acct, side, entry)
	if err != nil {
		return 0, fmt.Errorf("LotSize: %w", err)
	}
	if byMargin < info.MinLot {
		// даже минимальный лот не по карману — валидный скип
		return 0, nil
	}

	lot := snapToStep(math.Min(byRisk, byMargin), info.LotStep)
	if lot < info.MinLot {
		lot = info.MinLot
	}
	if info.MaxLot > 0 && lot > info.MaxLot {
		lot = info.MaxLot
	}
	if lot <= 0 || math.IsNaN(lot) || math.IsInf(lot, 0) {
		return 0, nil
	}
	// minLot мог оказаться больше margin-ограничения после поднятия
	if lot > byMargin {
		return 0, nil
	}
	return lot, nil
}

// maxLotByMargin — наибольший выровненный по шагу лот, чья расчётная маржа
// не превышает marginUseFraction свободной маржи. Возвращает 0, если
// недоступен даже минимальный лот.
func (s *Sizer) maxLotByMargin(
	ctx context.Context,
	info *models.SymbolInfo,
	acct *models.AccountState,
	side models.Side,
	price float64,
) (float64, error) {
	budget := acct.FreeMargin * marginUseFraction

	affordable := func(lot float64) (bool, error) {
		m, err := s.gw.CalcMargin(ctx, side, info.Symbol, lot, price)
		if err != nil {
			return false, err
		}
		return m <= budget, nil
	}

	lo := info.MinLot
	if ok, err := affordable(lo); err != nil {
		return 0, err
	} else if !ok {
		return 0, nil
	}

	hi := info.MinLot * 100
	if info.MaxLot > 0 && hi > info.MaxLot {
		hi = info.MaxLot
	}
	hi = snapToStep(hi, info.LotStep)
	if hi <= lo {
		return lo, nil
	}
	if ok, err := affordable(hi); err != nil {
		return 0, err
	} else if ok {
		return hi, nil
	}

	// инвариант: lo доступен, hi — нет; сходимся до шага лота
	for i := 0; i < maxMarginSearchIters && hi-lo > info.LotStep+1e-9; i++ {
		mid := snapToStep(lo+(hi-lo)/2, info.LotStep)
		if mid <= lo || mid >= hi {
			break
		}
		ok, err := affordable(mid)
		if err != nil {
			return 0, err
		}
		if ok {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, nil
}
