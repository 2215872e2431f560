package constraint_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hydro-dispatch/internal/constraint"
	"hydro-dispatch/internal/model"
)

func turbine() model.Turbine {
	return model.Turbine{
		Name:       "T1",
		Efficiency: 0.9,
		BaseLoad:   1e6,
		MaxPower:   10e6,
		Actions:    []model.TurbineAction{{Kind: model.Standing}},
	}
}

func TestBounds_NoOverrides(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	c, err := constraint.New(0, start, end)
	require.NoError(t, err)

	lower, upper := c.Bounds(turbine())
	require.Equal(t, 10e6, upper)
	require.Less(t, lower, 0.0)
}

func TestBounds_TighterThanTurbine(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	c, err := constraint.New(0, start, end,
		constraint.WithPowerMax(5e6),
		constraint.WithPowerMin(2e6),
	)
	require.NoError(t, err)

	lower, upper := c.Bounds(turbine())
	require.Equal(t, 5e6, upper)
	require.Equal(t, 2e6, lower)
	require.NoError(t, c.Validate(turbine()))
}

func TestBounds_NonPositivePowerMinSkipsBaseLoadFloor(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	c, err := constraint.New(0, start, end, constraint.WithPowerMin(-3e6))
	require.NoError(t, err)

	lower, _ := c.Bounds(turbine())
	require.Equal(t, -3e6, lower)
}

func TestAdd_DifferentTurbinesErrors(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	a, _ := constraint.New(0, start, end)
	b, _ := constraint.New(1, start, end)

	_, err := a.Add(b)
	require.Error(t, err)
}

func TestAdd_IntersectsWindowAndTightensBounds(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, _ := constraint.New(0, t0, t0.Add(10*time.Hour), constraint.WithPowerMax(8e6), constraint.WithPowerMin(1e6))
	b, _ := constraint.New(0, t0.Add(2*time.Hour), t0.Add(6*time.Hour), constraint.WithPowerMax(6e6), constraint.WithPowerMin(3e6))

	combined, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, t0.Add(2*time.Hour), combined.TimeStart)
	require.Equal(t, t0.Add(6*time.Hour), combined.TimeEnd)

	lower, upper := combined.Bounds(turbine())
	require.Equal(t, 6e6, upper)
	require.Equal(t, 3e6, lower)
}

func TestValidate_UpperBelowLowerIsConfigError(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	c, _ := constraint.New(0, start, end, constraint.WithPowerMax(1e6), constraint.WithPowerMin(5e6))

	err := c.Validate(turbine())
	require.Error(t, err)
}

func TestSeries_SharesIdenticalStepMaps(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	times := []time.Time{t0, t0.Add(time.Hour), t0.Add(2 * time.Hour)}

	c, _ := constraint.New(0, t0, t0.Add(2*time.Hour), constraint.WithPowerMax(5e6))
	series := constraint.NewSeries(times, []*constraint.TurbineConstraint{c})

	require.Equal(t, series.At(0), series.At(1))

	step0, ok := series.At(0)[0]
	require.True(t, ok)
	step1, ok := series.At(1)[0]
	require.True(t, ok)
	require.Same(t, step0, step1)

	require.Empty(t, series.At(2))
}
