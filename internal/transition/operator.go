// Package transition builds the sparse, column-stochastic (generally
// substochastic) transition operators of spec.md §4.4: given a joint
// action's per-basin net flow over the product state space, it computes
// the probability distribution over next product states reached from
// each current state, via independent per-basin floor/ceil linear
// interpolation composed across basins.
package transition

import (
	"time"

	"gonum.org/v1/gonum/floats"

	"hydro-dispatch/internal/herr"
	"hydro-dispatch/internal/model"
)

// Entry is one nonzero (nextState, probability) pair in a row.
type Entry struct {
	State int
	Prob  float64
}

// Operator is the sparse row-major transition operator for one joint
// action at one time step: Rows[s] lists the nonzero-probability next
// states reachable from state s. A row's entries sum to at most 1; the
// shortfall is probability mass that left the valid volume grid (an
// infeasible over/under-draw) and is deliberately lost rather than
// clamped, per spec.md §4.4 — this makes such actions' expected
// continuation value strictly worse, penalizing them without an
// explicit constraint violation.
type Operator struct {
	Size int
	Rows [][]Entry
}

// basinStep is the per-basin volume quantum: the fixed spacing between
// adjacent discrete volume levels, V_b/(N_b-1).
func basinStep(volume float64, numStates int) float64 {
	return volume / float64(numStates-1)
}

// basinSplit returns, for a target volume v in basin b (numStates N,
// quantum step), the lower and upper neighboring discrete states and the
// probability mass assigned to each. If v is outside [0, (N-1)*step] the
// returned ok is false: the basin's contribution carries no probability
// mass (lost, per the Operator doc comment).
func basinSplit(v, step float64, numStates int) (lo, hi int, pLo, pHi float64, ok bool) {
	maxV := step * float64(numStates-1)
	if v < 0 || v > maxV {
		return 0, 0, 0, 0, false
	}
	pos := v / step
	lo = int(pos)
	if lo >= numStates-1 {
		return numStates - 1, numStates - 1, 1, 0, true
	}
	hi = lo + 1
	frac := pos - float64(lo)
	return lo, hi, 1 - frac, frac, true
}

// basinOption is one (state, probability) destination of a single
// basin's coordinate after one or more sequential floor/ceil splits.
type basinOption struct {
	state int
	vol   float64
	prob  float64
}

// applyBasinDelta advances a basin's frontier of (volume, probability)
// pairs by one signed volume delta, splitting each pair across its
// floor/ceil neighbors and merging entries that land on the same
// discrete state. A pair whose delta drives it outside [0, V] drops out
// of the frontier entirely: that fraction of probability mass left the
// valid grid and is lost, per spec.md §4.4.
func applyBasinDelta(frontier []basinOption, delta, step float64, numStates int) []basinOption {
	merged := make(map[int]basinOption, len(frontier)*2)
	for _, f := range frontier {
		lo, hi, pLo, pHi, ok := basinSplit(f.vol+delta, step, numStates)
		if !ok {
			continue
		}
		addOption(merged, lo, float64(lo)*step, f.prob*pLo)
		if hi != lo {
			addOption(merged, hi, float64(hi)*step, f.prob*pHi)
		}
	}
	out := make([]basinOption, 0, len(merged))
	for _, v := range merged {
		out = append(out, v)
	}
	return out
}

func addOption(m map[int]basinOption, state int, vol, prob float64) {
	if prob == 0 {
		return
	}
	if existing, ok := m[state]; ok {
		existing.prob += prob
		m[state] = existing
	} else {
		m[state] = basinOption{state: state, vol: vol, prob: prob}
	}
}

// Build constructs the transition operator for one joint action's
// evaluated per-basin net flow (basinFlow[b][s], m^3/s, positive =
// net outflow from basin b per spec.md §4.2's basin_flow_net
// convention) over time step dt, plus each basin's exogenous natural
// inflow (inflow[b], m^3/s, constant across the state space for this
// step; nil for none).
//
// Per basin, Build composes two sequential floor/ceil splits in the
// order spec.md §4.5 mandates — the joint action's net outflow first
// (decreasing volume), the natural inflow second (increasing volume) —
// matching the source model's L = L_in · L_a matrix product: L_in and
// L_a are themselves each a Kronecker product of single-basin
// operators, so composing them basin-by-basin as a two-step chain
// before combining basins is equivalent to multiplying the full
// matrices, without materializing either one.
func Build(plant *model.PowerPlant, basinFlow [][]float64, inflow []float64, dt time.Duration) *Operator {
	numStates := plant.NumStates()
	volumes := plant.Volumes()
	numBasins := len(numStates)
	size := plant.StateSpaceSize()
	dtSeconds := dt.Seconds()

	steps := make([]float64, numBasins)
	for b := range steps {
		steps[b] = basinStep(volumes[b], numStates[b])
	}
	strides := model.Strides(numStates)

	rows := make([][]Entry, size)
	for s := 0; s < size; s++ {
		coords := model.Coords(numStates, s)

		options := make([][]basinOption, numBasins)
		for b := 0; b < numBasins; b++ {
			current := float64(coords[b]) * steps[b]
			frontier := []basinOption{{state: coords[b], vol: current, prob: 1}}

			actionDelta := -basinFlow[b][s] * dtSeconds
			frontier = applyBasinDelta(frontier, actionDelta, steps[b], numStates[b])

			if inflow != nil && inflow[b] != 0 {
				frontier = applyBasinDelta(frontier, inflow[b]*dtSeconds, steps[b], numStates[b])
			}

			options[b] = frontier
		}

		entries := []Entry{{State: 0, Prob: 1}}
		for b := 0; b < numBasins; b++ {
			if len(options[b]) == 0 {
				entries = nil
				break
			}
			next := make([]Entry, 0, len(entries)*len(options[b]))
			for _, e := range entries {
				for _, opt := range options[b] {
					next = append(next, Entry{
						State: e.State + opt.state*strides[b],
						Prob:  e.Prob * opt.prob,
					})
				}
			}
			entries = next
		}
		rows[s] = entries
	}

	return &Operator{Size: size, Rows: rows}
}

// ExpectedValue returns, for every current state s, Σ_s' P(s,s')*valueNext[s'].
// A state with no feasible next state (Build leaves the row empty as soon
// as any one basin lost all of its mass) contributes 0.
func (op *Operator) ExpectedValue(valueNext []float64) []float64 {
	out := make([]float64, op.Size)
	for s, row := range op.Rows {
		var acc float64
		for _, e := range row {
			acc += e.Prob * valueNext[e.State]
		}
		out[s] = acc
	}
	return out
}

// RowMass returns the total probability mass of row s, in [0,1]. A value
// less than 1 indicates lost mass (infeasible over/under-draw at that
// state). Computed via gonum/floats.Sum over the row's gathered
// probabilities rather than a hand-rolled accumulator.
func (op *Operator) RowMass(s int) float64 {
	row := op.Rows[s]
	if len(row) == 0 {
		return 0
	}
	probs := make([]float64, len(row))
	for i, e := range row {
		probs[i] = e.Prob
	}
	return floats.Sum(probs)
}

// substochasticEps is the tolerance spec.md §7/§8 allows a column sum to
// exceed 1 by before it is treated as a fatal numerical anomaly rather
// than clamped.
const substochasticEps = 1e-9

// Validate checks every row's mass is within [0, 1+eps]. A row whose mass
// exceeds 1 by no more than eps passes and is left as computed (it is not
// clamped to 1, here or in RowMass); a sum exceeding 1 by more
// than eps is a fatal *herr.ArithmeticError, since the per-basin
// floor/ceil splits that build a row are each convex combinations and
// should never be able to produce more than unit mass.
func (op *Operator) Validate() error {
	for s := 0; s < op.Size; s++ {
		mass := op.RowMass(s)
		if mass > 1+substochasticEps {
			return herr.NewArithmeticError("transition operator: row %d mass %.12f exceeds 1 by more than eps", s, mass)
		}
	}
	return nil
}

// IsIdentity reports whether the operator maps every state to itself
// with probability 1 — the expected shape of a zero-net-flow (Standing)
// action's operator, per spec.md §4.4's zero-action identity property.
func (op *Operator) IsIdentity() bool {
	for s, row := range op.Rows {
		if len(row) != 1 || row[0].State != s || row[0].Prob != 1 {
			return false
		}
	}
	return true
}
