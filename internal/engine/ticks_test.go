package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundToTick(t *testing.T) {
	assert.InDelta(t, 1995.25, roundToTick(1995.13, 0.25), 1e-9)
	assert.InDelta(t, 1995.00, roundToTick(1995.12, 0.25), 1e-9)
	assert.InDelta(t, 2000.0, roundToTick(2000.0, 0.01), 1e-9)
	assert.InDelta(t, 7.0, roundToTick(7.0, 0), 1e-9) // нет сетки — нет округления
}

func TestRoundDirectional(t *testing.T) {
	assert.InDelta(t, 1995.0, roundDownToTick(1995.24, 0.25), 1e-9)
	assert.InDelta(t, 1995.25, roundUpToTick(1995.01, 0.25), 1e-9)
	// значение уже на сетке не двигается
	assert.InDelta(t, 1995.25, roundDownToTick(1995.25, 0.25), 1e-9)
	assert.InDelta(t, 1995.25, roundUpToTick(1995.25, 0.25), 1e-9)
}

func TestSnapToStep(t *testing.T) {
	assert.InDelta(t, 0.2, snapToStep(0.2, 0.01), 1e-9)
	assert.InDelta(t, 0.27, snapToStep(0.279, 0.01), 1e-9)
	assert.InDelta(t, 0.0, snapToStep(0.009, 0.01), 1e-9)
	// типичная float-грязь: 0.29 = 29 * 0.01 с погрешностью
	assert.InDelta(t, 0.29, snapToStep(29*0.01, 0.01), 1e-9)
}
