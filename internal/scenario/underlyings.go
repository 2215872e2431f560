// Package scenario orchestrates one dispatch-optimization run: it binds
// a plant topology, a price/inflow time series and a constraint set,
// drives backward induction and forward propagation, and exposes the
// results as a row-oriented table (spec.md §5), mirroring the
// Underlyings/Scenario split of the source model this system was
// distilled from.
package scenario

import (
	"math"
	"time"

	"hydro-dispatch/internal/herr"
)

// Underlyings is the exogenous time series driving one scenario: the
// time grid, the electricity price curve and, optionally, natural
// basin inflow.
type Underlyings struct {
	// Time is the length-T grid of step-start timestamps, uniformly
	// spaced.
	Time []time.Time
	// Price[t] is the electricity price for step t, currency per Wh.
	Price []float64
	// Inflow[t][b], if non-nil, is basin b's natural inflow (m^3/s)
	// during step t.
	Inflow [][]float64
}

// NumSteps returns the horizon length T.
func (u Underlyings) NumSteps() int { return len(u.Time) }

// Step returns the (uniform) step duration derived from the time grid.
func (u Underlyings) Step() time.Duration {
	if len(u.Time) < 2 {
		return 0
	}
	return u.Time[1].Sub(u.Time[0])
}

// Validate checks the underlyings are internally consistent: at least
// two time points, a matching-length price curve, and (if present) a
// matching-length, matching-basin-count inflow series.
func (u Underlyings) Validate(numBasins int) error {
	if len(u.Time) < 2 {
		return herr.NewShapeError("underlyings: time grid must have at least 2 points, got %d", len(u.Time))
	}
	if len(u.Price) != len(u.Time) {
		return herr.NewShapeError("underlyings: price length %d does not match time length %d", len(u.Price), len(u.Time))
	}
	if u.Inflow != nil {
		if len(u.Inflow) != len(u.Time) {
			return herr.NewShapeError("underlyings: inflow length %d does not match time length %d", len(u.Inflow), len(u.Time))
		}
		for t, row := range u.Inflow {
			if len(row) != numBasins {
				return herr.NewShapeError("underlyings: inflow[%d] has %d basins, plant has %d", t, len(row), numBasins)
			}
			for b, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return herr.NewArithmeticError("underlyings: inflow[%d][%d] is non-finite (%v)", t, b, v)
				}
			}
		}
	}
	for t, p := range u.Price {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return herr.NewArithmeticError("underlyings: price[%d] is non-finite (%v)", t, p)
		}
	}
	return nil
}
