// Package dp implements the backward-induction and forward-propagation
// engines of spec.md §4.5-§4.6: given a power plant topology, its action
// catalogue, a constraint series and a price curve, it computes the
// value function and optimal policy over a finite horizon, then realizes
// the single deterministic dispatch trajectory under that policy.
package dp

import (
	"context"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"hydro-dispatch/internal/action"
	"hydro-dispatch/internal/constraint"
	"hydro-dispatch/internal/herr"
	"hydro-dispatch/internal/model"
	"hydro-dispatch/internal/transition"
)

// Inputs bundles everything the backward-induction engine needs for one
// run. Price and Constraints are indexed by time step; len(Price) is the
// horizon length T.
type Inputs struct {
	Plant       *model.PowerPlant
	Catalogue   *action.Catalogue
	Constraints *constraint.Series // length T, or nil for unconstrained

	// Price[t] is the energy price in currency per Wh for step t,
	// matching the turbine power convention (W) and Step duration so
	// that price[t]*power*Step.Hours() is a currency reward.
	Price []float64
	Step  time.Duration

	// Inflow[t][b] is basin b's exogenous natural inflow (m^3/s) during
	// step t. The transition operator applies it as a separate volume
	// step after the turbine-driven net flow (action first, inflow
	// second), each step split onto the volume grid on its own. Nil for
	// no natural inflow.
	Inflow [][]float64

	// WaterValueEnd[b], if non-nil, prices basin b's remaining volume at
	// the horizon end as a soft terminal reward (spec.md §3's
	// water_value_end), never a hard constraint — see DESIGN.md.
	WaterValueEnd []float64

	// Penalty is the basin_limit_penalty coefficient P of spec.md §4.5
	// steps 2.e/2.f: every action's reward at state s is reduced by
	// P*(1-RowMass(s)), charging for probability mass that overflows or
	// underflows a basin's volume grid. Zero (the default) disables the
	// penalty term entirely.
	Penalty float64

	Workers int // 0 = runtime.NumCPU()
}

// Result is the outcome of backward induction: value function and
// policy over the full horizon.
type Result struct {
	// Value[t][s] is the optimal expected remaining reward from state s
	// at step t, for t in [0,T]. Value[T] is the terminal valuation.
	Value [][]float64
	// Policy[t][s] is the catalogue index of the action chosen at state
	// s, step t, for t in [0,T).
	Policy [][]int
}

// Run executes backward induction over in.Price's horizon, returning the
// value function and optimal policy. Cancellation is checked between
// time steps; a cancelled context yields a *herr.Cancelled error.
func Run(ctx context.Context, in Inputs) (*Result, error) {
	if in.Plant == nil {
		return nil, herr.NewConfigError("dp.Run: plant is required")
	}
	s := in.Plant.StateSpaceSize()
	numSteps := len(in.Price)
	numActions := in.Catalogue.Len()
	pool := newWorkerPool(in.Workers)

	value := make([][]float64, numSteps+1)
	policy := make([][]int, numSteps)
	value[numSteps] = terminalValue(in.Plant, in.WaterValueEnd)

	dtHours := in.Step.Hours()

	for t := numSteps - 1; t >= 0; t-- {
		select {
		case <-ctx.Done():
			return nil, herr.NewCancelled("dp.Run: cancelled at step %d", t)
		default:
		}

		var stepConstraints map[int]*constraint.TurbineConstraint
		if in.Constraints != nil {
			stepConstraints = in.Constraints.At(t)
		}

		price := in.Price[t]
		valueNext := value[t+1]
		var inflow []float64
		if in.Inflow != nil {
			inflow = in.Inflow[t]
		}

		total := make([][]float64, numActions)
		var anomalyMu sync.Mutex
		var anomaly error
		pool.run(numActions, func(a int) {
			ev := in.Catalogue.EvaluateCached(a, stepConstraints)
			reward := rewardVector(ev.TurbinePower, price, dtHours, s)
			op := transition.Build(in.Plant, ev.BasinFlow, inflow, in.Step)
			if err := op.Validate(); err != nil {
				anomalyMu.Lock()
				if anomaly == nil {
					anomaly = err
				}
				anomalyMu.Unlock()
			}
			expected := op.ExpectedValue(valueNext)

			rowVec := mat.NewVecDense(s, make([]float64, s))
			rowVec.AddVec(mat.NewVecDense(s, reward), mat.NewVecDense(s, expected))
			if in.Penalty != 0 {
				shortfall := make([]float64, s)
				for i := range shortfall {
					shortfall[i] = 1 - op.RowMass(i)
				}
				rowVec.AddScaledVec(rowVec, -in.Penalty, mat.NewVecDense(s, shortfall))
			}
			total[a] = append([]float64(nil), rowVec.RawVector().Data...)
		})
		if anomaly != nil {
			return nil, anomaly
		}

		vt := make([]float64, s)
		pt := make([]int, s)
		for st := 0; st < s; st++ {
			best := total[0][st]
			bestA := 0
			for a := 1; a < numActions; a++ {
				if total[a][st] > best {
					best = total[a][st]
					bestA = a
				}
			}
			vt[st] = best
			pt[st] = bestA
		}
		value[t] = vt
		policy[t] = pt
	}

	return &Result{Value: value, Policy: policy}, nil
}

// rewardVector sums per-turbine power into a per-state currency reward
// for one step: price * (Σ_turbine power) * dt.Hours().
func rewardVector(turbinePower [][]float64, price, dtHours float64, numStates int) []float64 {
	out := make([]float64, numStates)
	for _, power := range turbinePower {
		for i, p := range power {
			out[i] += p
		}
	}
	for i := range out {
		out[i] *= price * dtHours
	}
	return out
}

// terminalValue prices each product state's remaining basin volumes at
// the horizon end, per WaterValueEnd (zero if nil).
func terminalValue(plant *model.PowerPlant, waterValueEnd []float64) []float64 {
	s := plant.StateSpaceSize()
	out := make([]float64, s)
	if waterValueEnd == nil {
		return out
	}
	numStates := plant.NumStates()
	volumes := plant.Volumes()
	for b, wv := range waterValueEnd {
		if wv == 0 {
			continue
		}
		step := volumes[b] / float64(numStates[b]-1)
		idx := model.KronIndex(numStates, b)
		for i, k := range idx {
			out[i] += wv * float64(k) * step
		}
	}
	return out
}
