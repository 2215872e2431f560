// Package constraint implements time-interval power constraints per
// turbine (spec.md §4.3): effective-bound computation, conjunction
// (addition), and the per-step ConstraintsSeries the action catalogue
// consumes to clamp power.
package constraint

import (
	"math"
	"time"

	"hydro-dispatch/internal/herr"
	"hydro-dispatch/internal/model"
)

// TurbineConstraint restricts one turbine's power over a half-open time
// window [TimeStart, TimeEnd).
type TurbineConstraint struct {
	Name string

	Turbine   int
	TimeStart time.Time
	TimeEnd   time.Time

	PowerMax  float64
	PowerMin  float64
	MarginMax float64
	MarginMin float64
}

// New constructs a TurbineConstraint with the source model's defaults
// (PowerMax=+Inf, PowerMin=-Inf, margins=0) for any zero-valued numeric
// field callers don't care to set. New does not check the bounds; use
// Validate against the referenced turbine to check upper >= lower.
func New(turbine int, start, end time.Time, opts ...Option) (*TurbineConstraint, error) {
	c := &TurbineConstraint{
		Turbine:   turbine,
		TimeStart: start,
		TimeEnd:   end,
		PowerMax:  math.Inf(1),
		PowerMin:  math.Inf(-1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Option configures a TurbineConstraint built with New.
type Option func(*TurbineConstraint)

func WithName(name string) Option    { return func(c *TurbineConstraint) { c.Name = name } }
func WithPowerMax(v float64) Option  { return func(c *TurbineConstraint) { c.PowerMax = v } }
func WithPowerMin(v float64) Option  { return func(c *TurbineConstraint) { c.PowerMin = v } }
func WithMarginMax(v float64) Option { return func(c *TurbineConstraint) { c.MarginMax = v } }
func WithMarginMin(v float64) Option { return func(c *TurbineConstraint) { c.MarginMin = v } }

// Bounds computes the effective [lower, upper] power bounds for this
// constraint against turbine t, per spec.md §4.3:
//
//	upper = min(power_max, turbine.max_power) + margin_max
//	if power_min + margin_min > 0: lower = max(power_min, turbine.base_load) + margin_min
//	else: lower = power_min + margin_min
func (c *TurbineConstraint) Bounds(t model.Turbine) (lower, upper float64) {
	upper = math.Min(c.PowerMax, t.MaxPower) + c.MarginMax
	if c.PowerMin+c.MarginMin > 0 {
		lower = math.Max(c.PowerMin, t.BaseLoad) + c.MarginMin
	} else {
		lower = c.PowerMin + c.MarginMin
	}
	return lower, upper
}

// Validate checks upper >= lower against the referenced turbine,
// returning a *herr.ConfigError otherwise.
func (c *TurbineConstraint) Validate(t model.Turbine) error {
	lower, upper := c.Bounds(t)
	if upper < lower {
		return herr.NewConfigError("constraint %q on turbine %q: upper bound %.6f < lower bound %.6f", c.Name, t.Name, upper, lower)
	}
	return nil
}

// effectiveKey returns the equality/hash key for memoization: the
// (turbine, power_max, power_min, margin_max, margin_min) tuple. Time
// window is deliberately
// excluded: two constraints with different windows but identical
// effective bounds are interchangeable for a time step where both are
// active.
type effectiveKey struct {
	turbine                          int
	powerMax, powerMin               float64
	marginMax, marginMin             float64
}

func (c *TurbineConstraint) key() effectiveKey {
	return effectiveKey{c.Turbine, c.PowerMax, c.PowerMin, c.MarginMax, c.MarginMin}
}

// Add combines two constraints on the same turbine by conjunction
// (intersection of time windows, tightest bounds on each side), per
// spec.md §4.3. It returns an error if the constraints reference
// different turbines.
func (c *TurbineConstraint) Add(other *TurbineConstraint) (*TurbineConstraint, error) {
	if c.Turbine != other.Turbine {
		return nil, herr.NewConfigError("cannot combine constraints on different turbines (%d vs %d)", c.Turbine, other.Turbine)
	}
	start := c.TimeStart
	if other.TimeStart.After(start) {
		start = other.TimeStart
	}
	end := c.TimeEnd
	if other.TimeEnd.Before(end) {
		end = other.TimeEnd
	}
	return &TurbineConstraint{
		Name:      c.Name + "+" + other.Name,
		Turbine:   c.Turbine,
		TimeStart: start,
		TimeEnd:   end,
		PowerMax:  math.Min(c.PowerMax, other.PowerMax),
		PowerMin:  math.Max(c.PowerMin, other.PowerMin),
		MarginMax: math.Min(c.MarginMax, other.MarginMax),
		MarginMin: math.Max(c.MarginMin, other.MarginMin),
	}, nil
}
