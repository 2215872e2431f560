package action_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hydro-dispatch/internal/action"
	"hydro-dispatch/internal/constraint"
	"hydro-dispatch/internal/model"
)

func twoBasinPlant(t *testing.T) *model.PowerPlant {
	t.Helper()
	upper := model.Basin{
		Name: "Upper", Volume: 1e6, NumStates: 3, StartVolume: 5e5,
		Levels: model.NewWedgeLevel(100, 120),
	}
	lower := model.Basin{
		Name: "Lower", Volume: 1e6, NumStates: 3, StartVolume: 5e5,
		Levels: model.NewFlatLevel(20),
	}
	turb := model.Turbine{
		Name: "T1", UpperBasin: 0, LowerBasin: 1,
		Efficiency: 0.9, BaseLoad: 1e6, MaxPower: 10e6,
		Actions: []model.TurbineAction{
			{Kind: model.Standing},
			{Kind: model.MinPower},
			{Kind: model.MaxPower},
			{Kind: model.FixedPower, Value: 5e6},
			{Kind: model.FixedFlow, Value: 10},
		},
	}
	p, err := model.NewPowerPlant("Test", []model.Basin{upper, lower}, []model.Turbine{turb})
	require.NoError(t, err)
	return p
}

func TestBuild_CatalogueSizeMatchesActionProduct(t *testing.T) {
	p := twoBasinPlant(t)
	cat := action.Build(p)
	require.Equal(t, 5, cat.Len())
}

func TestEvaluate_StandingActionIsZero(t *testing.T) {
	p := twoBasinPlant(t)
	cat := action.Build(p)

	var standing action.Joint
	for _, j := range cat.Actions {
		if j.Actions[0].Kind == model.Standing {
			standing = j
			break
		}
	}

	ev := action.Evaluate(p, standing, nil)
	for _, pw := range ev.TurbinePower[0] {
		require.Zero(t, pw)
	}
	for _, bf := range ev.BasinFlow {
		for _, f := range bf {
			require.Zero(t, f)
		}
	}
}

func TestEvaluate_MaxPowerMovesWaterDownstream(t *testing.T) {
	p := twoBasinPlant(t)
	cat := action.Build(p)

	var maxAction action.Joint
	for _, j := range cat.Actions {
		if j.Actions[0].Kind == model.MaxPower {
			maxAction = j
			break
		}
	}

	ev := action.Evaluate(p, maxAction, nil)
	for i, pw := range ev.TurbinePower[0] {
		require.Equal(t, 10e6, pw, "state %d", i)
	}
	for i := range ev.BasinFlow[0] {
		require.Positive(t, ev.BasinFlow[0][i], "upper basin net outflow should be positive (draining)")
		require.Negative(t, ev.BasinFlow[1][i], "lower basin net outflow should be negative (filling)")
	}
}

func TestEvaluate_ConstraintClampsFixedPower(t *testing.T) {
	p := twoBasinPlant(t)
	cat := action.Build(p)

	var fixed action.Joint
	for _, j := range cat.Actions {
		if j.Actions[0].Kind == model.FixedPower {
			fixed = j
			break
		}
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := constraint.New(0, start, start.Add(time.Hour), constraint.WithPowerMax(2e6))
	require.NoError(t, err)

	ev := action.Evaluate(p, fixed, map[int]*constraint.TurbineConstraint{0: c})
	for _, pw := range ev.TurbinePower[0] {
		require.LessOrEqual(t, pw, 2e6)
	}
}

func TestEvaluate_FixedFlowIgnoresConstraint(t *testing.T) {
	p := twoBasinPlant(t)
	cat := action.Build(p)

	var fixedFlow action.Joint
	for _, j := range cat.Actions {
		if j.Actions[0].Kind == model.FixedFlow {
			fixedFlow = j
			break
		}
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := constraint.New(0, start, start.Add(time.Hour), constraint.WithPowerMax(0))
	require.NoError(t, err)

	ev := action.Evaluate(p, fixedFlow, map[int]*constraint.TurbineConstraint{0: c})
	for _, fl := range ev.TurbineFlow[0] {
		require.Equal(t, 10.0, fl)
	}
}

func TestEvaluateCached_ReusesResultForIdenticalConstraintsPointer(t *testing.T) {
	p := twoBasinPlant(t)
	cat := action.Build(p)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c, err := constraint.New(0, start, start.Add(time.Hour), constraint.WithPowerMax(2e6))
	require.NoError(t, err)
	constraints := map[int]*constraint.TurbineConstraint{0: c}

	first := cat.EvaluateCached(0, constraints)
	second := cat.EvaluateCached(0, constraints)

	require.Equal(t, reflect.ValueOf(first.TurbinePower).Pointer(), reflect.ValueOf(second.TurbinePower).Pointer(),
		"a second call with the same constraint map instance should return the cached slices, not freshly recomputed ones")
}

func TestEvaluateCached_DistinctConstraintsPointerRecomputes(t *testing.T) {
	p := twoBasinPlant(t)
	cat := action.Build(p)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c1, err := constraint.New(0, start, start.Add(time.Hour), constraint.WithPowerMax(2e6))
	require.NoError(t, err)
	c2, err := constraint.New(0, start, start.Add(time.Hour), constraint.WithPowerMax(2e6))
	require.NoError(t, err)

	first := cat.EvaluateCached(0, map[int]*constraint.TurbineConstraint{0: c1})
	second := cat.EvaluateCached(0, map[int]*constraint.TurbineConstraint{0: c2})

	require.Equal(t, first.TurbinePower, second.TurbinePower, "equal effective bounds should still give equal values")
	require.NotEqual(t, reflect.ValueOf(first.TurbinePower).Pointer(), reflect.ValueOf(second.TurbinePower).Pointer(),
		"distinct constraint map instances must not share a cache entry")
}
