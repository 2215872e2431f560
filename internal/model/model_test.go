package model_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hydro-dispatch/internal/model"
)

func TestStrides_MixedRadix(t *testing.T) {
	strides := model.Strides([]int{2, 3, 4})
	require.Equal(t, []int{12, 4, 1}, strides)
}

func TestProductSize(t *testing.T) {
	require.Equal(t, 24, model.ProductSize([]int{2, 3, 4}))
}

func TestCoordsAndLinearIndex_RoundTrip(t *testing.T) {
	numStates := []int{2, 3, 4}
	for idx := 0; idx < model.ProductSize(numStates); idx++ {
		coords := model.Coords(numStates, idx)
		require.Equal(t, idx, model.LinearIndex(numStates, coords))
	}
}

func TestKronIndex_CyclesWithBasinPeriod(t *testing.T) {
	numStates := []int{2, 3}
	idx := model.KronIndex(numStates, 1)
	require.Equal(t, []int{0, 1, 2, 0, 1, 2}, idx)
}

func TestFlatLevel_IsConstant(t *testing.T) {
	lc := model.NewFlatLevel(42)
	vals, err := lc.Values(100, 5)
	require.NoError(t, err)
	for _, v := range vals {
		require.Equal(t, 42.0, v)
	}
}

func TestWedgeLevel_IsMonotoneNondecreasing(t *testing.T) {
	lc := model.NewWedgeLevel(100, 120)
	vals, err := lc.Values(1e6, 5)
	require.NoError(t, err)
	require.Equal(t, 100.0, vals[0])
	for i := 1; i < len(vals); i++ {
		require.GreaterOrEqual(t, vals[i], vals[i-1])
	}
}

func TestLevelCurve_RejectsTooFewStates(t *testing.T) {
	lc := model.NewFlatLevel(10)
	_, err := lc.Values(100, 1)
	require.Error(t, err)
}

func TestNewPowerPlant_RejectsNegativeHead(t *testing.T) {
	upper := model.Basin{Name: "Upper", Volume: 100, NumStates: 3, StartVolume: 50, Levels: model.NewFlatLevel(10)}
	lower := model.Basin{Name: "Lower", Volume: 100, NumStates: 3, StartVolume: 50, Levels: model.NewFlatLevel(20)}
	turb := model.Turbine{
		Name: "T1", UpperBasin: 0, LowerBasin: 1,
		Efficiency: 0.9, MaxPower: 1e6,
		Actions: []model.TurbineAction{{Kind: model.Standing}},
	}

	_, err := model.NewPowerPlant("Test", []model.Basin{upper, lower}, []model.Turbine{turb})
	require.Error(t, err, "lower basin higher than upper should yield negative head")
}

func TestNewPowerPlant_AcceptsNonNegativeHead(t *testing.T) {
	upper := model.Basin{Name: "Upper", Volume: 100, NumStates: 3, StartVolume: 50, Levels: model.NewFlatLevel(20)}
	lower := model.Basin{Name: "Lower", Volume: 100, NumStates: 3, StartVolume: 50, Levels: model.NewFlatLevel(10)}
	turb := model.Turbine{
		Name: "T1", UpperBasin: 0, LowerBasin: 1,
		Efficiency: 0.9, MaxPower: 1e6,
		Actions: []model.TurbineAction{{Kind: model.Standing}},
	}

	p, err := model.NewPowerPlant("Test", []model.Basin{upper, lower}, []model.Turbine{turb})
	require.NoError(t, err)
	for _, h := range p.Head(0) {
		require.GreaterOrEqual(t, h, 0.0)
	}
}

func TestTurbine_PowerToFlowAndBack(t *testing.T) {
	turb := model.Turbine{Name: "T1", Efficiency: 0.9, MaxPower: 1e6}
	head := 100.0
	flow := turb.PowerToFlow(5e5, head)
	require.Greater(t, flow, 0.0)
	require.InDelta(t, 5e5, turb.FlowToPower(flow, head), 1e-6)
}

func TestTurbine_PowerToFlowZeroHeadIsZeroFlow(t *testing.T) {
	turb := model.Turbine{Name: "T1", Efficiency: 0.9, MaxPower: 1e6}
	require.Zero(t, turb.PowerToFlow(5e5, 0))
}

func TestBasin_ValidateRejectsOutOfRangeStart(t *testing.T) {
	b := model.Basin{Name: "B", Volume: 100, NumStates: 3, StartVolume: 150}
	require.Error(t, b.Validate())
}

func TestPowerPlant_SummaryDescribesBasinsAndTurbines(t *testing.T) {
	upper := model.Basin{Name: "Upper", Volume: 100, NumStates: 3, StartVolume: 50, Levels: model.NewFlatLevel(20)}
	lower := model.Basin{Name: "Lower", Volume: 100, NumStates: 3, StartVolume: 50, Levels: model.NewFlatLevel(10)}
	turb := model.Turbine{
		Name: "T1", UpperBasin: 0, LowerBasin: 1,
		Efficiency: 0.9, BaseLoad: 1e6, MaxPower: 10e6,
		Actions: []model.TurbineAction{{Kind: model.Standing}},
	}
	p, err := model.NewPowerPlant("Cascade", []model.Basin{upper, lower}, []model.Turbine{turb})
	require.NoError(t, err)

	summary := p.Summary()
	require.Contains(t, summary, "Cascade")
	require.Contains(t, summary, "Upper")
	require.Contains(t, summary, "Lower")
	require.Contains(t, summary, "T1")
}
