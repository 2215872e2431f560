package scenario_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hydro-dispatch/internal/model"
	"hydro-dispatch/internal/scenario"
)

func samplePlant(t *testing.T) *model.PowerPlant {
	t.Helper()
	basin := model.Basin{
		Name: "Res", Volume: 1e7, NumStates: 4, StartVolume: 5e6,
		Levels: model.NewWedgeLevel(100, 120),
	}
	turb := model.Turbine{
		Name:       "T1",
		UpperBasin: 0,
		LowerBasin: model.NoBasin,
		Efficiency: 0.9,
		BaseLoad:   0,
		MaxPower:   1e6,
		Actions: []model.TurbineAction{
			{Kind: model.Standing},
			{Kind: model.FixedPower, Value: 1e6},
		},
	}
	p, err := model.NewPowerPlant("Reservoir", []model.Basin{basin}, []model.Turbine{turb})
	require.NoError(t, err)
	return p
}

// emptyReservoirPlant is a two-state basin starting empty: draining it
// further always underflows, so its only feasible action from the start
// state is Standing.
func emptyReservoirPlant(t *testing.T) *model.PowerPlant {
	t.Helper()
	basin := model.Basin{
		Name: "Res", Volume: 1e6, NumStates: 2, StartVolume: 0,
		Levels: model.NewWedgeLevel(100, 120),
	}
	turb := model.Turbine{
		Name:       "T1",
		UpperBasin: 0,
		LowerBasin: model.NoBasin,
		Efficiency: 0.9,
		BaseLoad:   0,
		MaxPower:   1e6,
		Actions: []model.TurbineAction{
			{Kind: model.Standing},
			{Kind: model.FixedPower, Value: 1e6},
		},
	}
	p, err := model.NewPowerPlant("Reservoir", []model.Basin{basin}, []model.Turbine{turb})
	require.NoError(t, err)
	return p
}

func hourlyUnderlyings(n int, price []float64) scenario.Underlyings {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return scenario.Underlyings{Time: times, Price: price}
}

func TestScenario_RunThenReadResults(t *testing.T) {
	plant := samplePlant(t)
	under := hourlyUnderlyings(3, []float64{5, 10, 1})

	sc, err := scenario.New("s1", plant, under, nil, scenario.Options{})
	require.NoError(t, err)

	require.NoError(t, sc.Run(context.Background()))

	val, err := sc.Valuation()
	require.NoError(t, err)
	require.Positive(t, val)

	rows, err := sc.Table()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	timings, err := sc.Timings()
	require.NoError(t, err)
	require.GreaterOrEqual(t, timings.BackwardInduction, time.Duration(0))
}

func TestScenario_ReadingBeforeRunIsUsageError(t *testing.T) {
	plant := samplePlant(t)
	under := hourlyUnderlyings(2, []float64{5, 10})

	sc, err := scenario.New("s2", plant, under, nil, scenario.Options{})
	require.NoError(t, err)

	_, err = sc.Valuation()
	require.Error(t, err)
}

func TestScenario_SecondRunIsUsageError(t *testing.T) {
	plant := samplePlant(t)
	under := hourlyUnderlyings(2, []float64{5, 10})

	sc, err := scenario.New("s3", plant, under, nil, scenario.Options{})
	require.NoError(t, err)

	require.NoError(t, sc.Run(context.Background()))
	err = sc.Run(context.Background())
	require.Error(t, err)
}

func TestScenario_ShapeMismatchRejected(t *testing.T) {
	plant := samplePlant(t)
	under := hourlyUnderlyings(3, []float64{5, 10})

	_, err := scenario.New("s4", plant, under, nil, scenario.Options{})
	require.Error(t, err)
}

func TestScenario_DefaultBasinLimitPenaltyDetersDrainingTheEmptyState(t *testing.T) {
	plant := emptyReservoirPlant(t)
	under := hourlyUnderlyings(2, []float64{10, 10})

	sc, err := scenario.New("default-penalty", plant, under, nil, scenario.Options{})
	require.NoError(t, err)
	require.NoError(t, sc.Run(context.Background()))

	val, err := sc.Valuation()
	require.NoError(t, err)
	require.Zero(t, val, "spec.md §6's default basin_limit_penalty should make draining an empty basin strictly unprofitable")
}

func TestScenario_OverriddenBasinLimitPenaltyAllowsDraining(t *testing.T) {
	plant := emptyReservoirPlant(t)
	under := hourlyUnderlyings(2, []float64{10, 10})

	sc, err := scenario.New("small-penalty", plant, under, nil, scenario.Options{BasinLimitPenalty: 1})
	require.NoError(t, err)
	require.NoError(t, sc.Run(context.Background()))

	val, err := sc.Valuation()
	require.NoError(t, err)
	require.Greater(t, val, 1e6, "a small override penalty should make the FixedPower action worth the underflow")
}
