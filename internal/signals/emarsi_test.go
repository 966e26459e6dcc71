package signals

import (
	"context"
	"testing"

	"gold_bot/internal/models"
	"gold_bot/internal/modules/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEMARSI() *EMARSI {
	return NewEMARSI(&config.Config{
		EMAShort:      9,
		EMALong:       21,
		RSIPeriod:     14,
		RSIOverbought: 70,
		RSIOSold:      30,
		StopPoints:    500,
		TakeProfitRR:  2.0,
	})
}

func quote(price float64) *models.Quote {
	return &models.Quote{Symbol: "XAUUSD", Price: price}
}

func TestEvaluate_WarmupIsSilent(t *testing.T) {
	s := newTestEMARSI()

	sig, err := s.Evaluate(context.Background(), quote(2000))
	require.NoError(t, err)
	assert.Nil(t, sig, "first tick only seeds state")
}

func TestEvaluate_FlatMarketIsSilent(t *testing.T) {
	s := newTestEMARSI()

	for i := 0; i < 50; i++ {
		sig, err := s.Evaluate(context.Background(), quote(2000))
		require.NoError(t, err)
		assert.Nil(t, sig)
	}
}

func TestEvaluate_SteadyTrendWithoutExtremeIsSilent(t *testing.T) {
	s := newTestEMARSI()

	// ровный рост: RSI уходит в перекупленность, но короткая EMA выше
	// длинной — шорт-условие не сходится, лонг требует перепроданности
	price := 2000.0
	for i := 0; i < 60; i++ {
		price += 1.0
		sig, err := s.Evaluate(context.Background(), quote(price))
		require.NoError(t, err)
		assert.Nil(t, sig)
	}
}

func TestEvaluate_LongOnUptrendOversold(t *testing.T) {
	s := newTestEMARSI()

	// тренд вверх, RSI глубоко перепродан после резкой просадки
	s.emaShort["XAUUSD"] = 2010
	s.emaLong["XAUUSD"] = 1990
	s.rsi["XAUUSD"] = &rsiState{prev: 2000, avgGain: 1, avgLoss: 10, initialized: true}

	sig, err := s.Evaluate(context.Background(), quote(1999))
	require.NoError(t, err)
	require.NotNil(t, sig)

	assert.Equal(t, 1, sig.Direction)
	assert.InDelta(t, 1999.0, sig.Entry, 1e-9)
	assert.InDelta(t, 1994.0, sig.Stop, 1e-9) // 500 пунктов по 0.01
	assert.InDelta(t, 2009.0, sig.TakeProfit, 1e-9)
	assert.Less(t, sig.Stop, sig.Entry)
	assert.Greater(t, sig.TakeProfit, sig.Entry)
	assert.Equal(t, "emarsi", sig.Strategy)
}

func TestEvaluate_ShortOnDowntrendOverbought(t *testing.T) {
	s := newTestEMARSI()

	s.emaShort["XAUUSD"] = 1990
	s.emaLong["XAUUSD"] = 2010
	s.rsi["XAUUSD"] = &rsiState{prev: 2000, avgGain: 10, avgLoss: 1, initialized: true}

	sig, err := s.Evaluate(context.Background(), quote(2001))
	require.NoError(t, err)
	require.NotNil(t, sig)

	assert.Equal(t, -1, sig.Direction)
	assert.Greater(t, sig.Stop, sig.Entry)
	assert.Less(t, sig.TakeProfit, sig.Entry)
}

func TestSetPoint_RescalesStops(t *testing.T) {
	s := newTestEMARSI()
	s.SetPoint(0.1)

	s.emaShort["XAUUSD"] = 2010
	s.emaLong["XAUUSD"] = 1990
	s.rsi["XAUUSD"] = &rsiState{prev: 2000, avgGain: 1, avgLoss: 10, initialized: true}

	sig, err := s.Evaluate(context.Background(), quote(1999))
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.InDelta(t, 1999.0-50.0, sig.Stop, 1e-9)
}

func TestTierFromDepth(t *testing.T) {
	cases := []struct {
		name  string
		depth float64
		tier  models.Tier
	}{
		{"shallow", 2, models.TierLow},
		{"medium", 8, models.TierMedium},
		{"deep", 20, models.TierHigh},
		{"beyond scale", 100, models.TierHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, conf := tierFromDepth(tc.depth, 30)
			assert.Equal(t, tc.tier, tier)
			assert.LessOrEqual(t, conf, 1.0)
			assert.GreaterOrEqual(t, conf, 0.0)
		})
	}
}
