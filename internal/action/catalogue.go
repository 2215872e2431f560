// Package action builds the discrete action catalogue of a power plant:
// per-turbine operating modes, their Cartesian product into joint plant
// actions, and the evaluation of each joint action's turbine-power and
// basin-net-flow vectors over the full product state space (spec.md
// §4.2).
package action

import (
	"reflect"
	"sync"

	"hydro-dispatch/internal/constraint"
	"hydro-dispatch/internal/model"
)

// Joint is one joint (plant) action: one TurbineAction per turbine, in
// turbine order. Its index in a Catalogue is the lexicographic,
// mixed-radix-ordered position matching model.KronIndex's convention,
// so the catalogue's ordering is the deterministic argmax tie-break
// reference of spec.md §4.5 step 3.
type Joint struct {
	Actions []model.TurbineAction
}

// Catalogue is the ordered list of joint plant actions produced by the
// Cartesian product of each turbine's action list. It also memoizes
// EvaluateCached's per-action, per-constraint-set results, mirroring the
// original model's unique_core_actions per-step optimal-action caching
// (spec.md §4.3, §4.5 "Caching"): successive time steps sharing an
// identical (pointer-equal) active constraint map reuse the previous
// step's turbine-power/basin-flow vectors instead of recomputing them.
type Catalogue struct {
	plant   *model.PowerPlant
	Actions []Joint

	mu    sync.Mutex
	cache map[evalKey]Evaluated
}

// evalKey identifies one cached Evaluate call: an action index paired
// with the identity of the constraint map it was evaluated against (0
// for nil/unconstrained). The time-window-keyed sharing that produces
// pointer-equal maps across steps is constraint.Series's job (see
// constraintsIdentity below); Catalogue only needs the identity, not the
// contents.
type evalKey struct {
	action      int
	constraints uintptr
}

// constraintsIdentity returns the identity of a constraint map for cache
// keying, via the map header's pointer: maps aren't comparable in Go, so
// reflect.Value.Pointer is the standard way to test two map variables
// for "same underlying map" without walking their contents.
func constraintsIdentity(m map[int]*constraint.TurbineConstraint) uintptr {
	if m == nil {
		return 0
	}
	return reflect.ValueOf(m).Pointer()
}

// Build enumerates every joint action of plant's turbines in
// lexicographic, mixed-radix order over the per-turbine action lists
// (matching spec.md §3's kron_index convention for determinism).
func Build(plant *model.PowerPlant) *Catalogue {
	counts := make([]int, len(plant.Turbines))
	for i, t := range plant.Turbines {
		counts[i] = len(t.Actions)
	}
	total := model.ProductSize(counts)

	actions := make([]Joint, total)
	for idx := 0; idx < total; idx++ {
		coords := model.Coords(counts, idx)
		picked := make([]model.TurbineAction, len(coords))
		for ti, c := range coords {
			picked[ti] = plant.Turbines[ti].Actions[c]
		}
		actions[idx] = Joint{Actions: picked}
	}

	return &Catalogue{plant: plant, Actions: actions, cache: make(map[evalKey]Evaluated)}
}

// Evaluated holds the per-state observables of one joint action: the
// per-turbine power vector (length S each) and the per-basin net flow
// vector (length S each, m^3/s, not yet multiplied by dt).
type Evaluated struct {
	TurbinePower [][]float64 // [turbine][state]
	TurbineFlow  [][]float64 // [turbine][state], m^3/s
	BasinFlow    [][]float64 // [basin][state], net m^3/s
}

// Evaluate computes the observables of joint action j against the
// plant's topology, optionally clamped by a per-turbine constraint map
// for this time step (nil for unconstrained).
func Evaluate(plant *model.PowerPlant, j Joint, constraints map[int]*constraint.TurbineConstraint) Evaluated {
	s := plant.StateSpaceSize()
	numTurbines := len(plant.Turbines)
	numBasins := len(plant.Basins)

	turbinePower := make([][]float64, numTurbines)
	turbineFlow := make([][]float64, numTurbines)

	for ti := range plant.Turbines {
		t := plant.Turbines[ti]
		a := j.Actions[ti]
		head := plant.Head(ti)

		power, flow := evaluateVariant(t, a, head, s)

		if c, ok := constraints[ti]; ok {
			power, flow = applyConstraint(t, c, a.Kind, head, power, flow)
		}

		turbinePower[ti] = power
		turbineFlow[ti] = flow
	}

	basinFlow := make([][]float64, numBasins)
	for b := range basinFlow {
		basinFlow[b] = make([]float64, s)
	}
	for ti, t := range plant.Turbines {
		flow := turbineFlow[ti]
		if t.UpperBasin != model.NoBasin {
			acc := basinFlow[t.UpperBasin]
			for i, q := range flow {
				acc[i] += q
			}
		}
		if t.LowerBasin != model.NoBasin {
			acc := basinFlow[t.LowerBasin]
			for i, q := range flow {
				acc[i] -= q
			}
		}
	}

	return Evaluated{TurbinePower: turbinePower, TurbineFlow: turbineFlow, BasinFlow: basinFlow}
}

// evaluateVariant returns the unconstrained (power, flow) vectors of a
// single turbine action over the state space.
func evaluateVariant(t model.Turbine, a model.TurbineAction, head []float64, s int) (power, flow []float64) {
	power = make([]float64, s)
	flow = make([]float64, s)

	switch a.Kind {
	case model.Standing:
		// zero power, zero flow
	case model.FixedPower:
		fillConst(power, a.Value)
		for i := range flow {
			flow[i] = t.PowerToFlow(a.Value, head[i])
		}
	case model.MinPower:
		fillConst(power, t.BaseLoad)
		for i := range flow {
			flow[i] = t.PowerToFlow(t.BaseLoad, head[i])
		}
	case model.MaxPower:
		fillConst(power, t.MaxPower)
		for i := range flow {
			flow[i] = t.PowerToFlow(t.MaxPower, head[i])
		}
	case model.FixedFlow:
		fillConst(flow, a.Value)
		for i := range power {
			power[i] = t.FlowToPower(a.Value, head[i])
		}
	}
	return power, flow
}

func fillConst(dst []float64, v float64) {
	for i := range dst {
		dst[i] = v
	}
}

// applyConstraint clamps a power-mode action's power to the
// constraint's effective bounds and recomputes flow from the clamped
// power; a flow-mode action (FixedFlow) is left unconstrained, per
// spec.md §4.2.
func applyConstraint(t model.Turbine, c *constraint.TurbineConstraint, kind model.ActionKind, head, power, flow []float64) ([]float64, []float64) {
	if kind == model.FixedFlow {
		return power, flow
	}
	lower, upper := c.Bounds(t)
	clamped := make([]float64, len(power))
	newFlow := make([]float64, len(flow))
	for i, p := range power {
		cp := p
		if cp > upper {
			cp = upper
		}
		if cp < lower {
			cp = lower
		}
		clamped[i] = cp
		newFlow[i] = t.PowerToFlow(cp, head[i])
	}
	return clamped, newFlow
}

// Len returns the number of joint actions in the catalogue.
func (c *Catalogue) Len() int { return len(c.Actions) }

// EvaluateCached returns Evaluate(c.plant, c.Actions[actionIdx],
// constraints), memoized by (actionIdx, constraints identity). Backward
// induction (internal/dp.Run) calls this once per action per time step;
// when constraint.Series hands back the same map instance for two
// consecutive steps (its documented pointer-equal-for-identical-steps
// contract), the second step reuses the first's result instead of
// recomputing it. Safe for concurrent use across distinct actionIdx
// values, as internal/dp's worker pool does within one time step.
func (c *Catalogue) EvaluateCached(actionIdx int, constraints map[int]*constraint.TurbineConstraint) Evaluated {
	key := evalKey{action: actionIdx, constraints: constraintsIdentity(constraints)}

	c.mu.Lock()
	if ev, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return ev
	}
	c.mu.Unlock()

	ev := Evaluate(c.plant, c.Actions[actionIdx], constraints)

	c.mu.Lock()
	c.cache[key] = ev
	c.mu.Unlock()

	return ev
}
