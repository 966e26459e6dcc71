package engine

import "math"

func roundToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Floor(px/tick + 0.5)
	return steps * tick
}

func roundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Floor(px/tick + 1e-12)
	return steps * tick
}

func roundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Ceil(px/tick - 1e-12)
	return steps * tick
}

// snapToStep — лот вниз к ближайшему кратному шага.
func snapToStep(lot, step float64) float64 {
	if step <= 0 {
		return lot
	}
	steps := math.Floor(lot/step + 1e-9)
	return steps * step
}
