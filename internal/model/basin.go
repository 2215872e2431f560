package model

import "hydro-dispatch/internal/herr"

// NoBasin is the sentinel basin id used by a Turbine's UpperBasin or
// LowerBasin field when that side is an Outflow: a degenerate basin that
// receives water but is not a tracked product-state coordinate.
const NoBasin = -1

// Basin is a reservoir of water with a discretized volume state space.
// Basins are referenced by integer id (their index in PowerPlant.Basins)
// rather than by pointer, per the index-based topology redesign (see
// DESIGN.md).
type Basin struct {
	Name string

	// Volume is the maximum usable volume V, in the same units as flows
	// times the scenario's time step (the system's internal convention is
	// volume = capacity*dt; see spec.md §3).
	Volume float64

	// NumStates is the basin's discretization count N >= 2. Index 0 is
	// empty, N-1 is full.
	NumStates int

	StartVolume float64

	// EndVolume is an optional end-of-horizon target. The system treats
	// end-of-horizon water value as a soft reward via water_value_end
	// (Scenario option), never as a hard terminal constraint: this field
	// is carried for configuration compatibility with the source model
	// but is not consumed by backward induction (see DESIGN.md, open
	// question "hard terminal constraint vs soft reward").
	EndVolume float64

	Levels LevelCurve
}

// Validate checks the basin-level invariants of spec.md §3: N>=2, V>0,
// and 0 <= start_volume <= V.
func (b Basin) Validate() error {
	if b.NumStates < 2 {
		return herr.NewConfigError("basin %q: num_states must be >= 2, got %d", b.Name, b.NumStates)
	}
	if b.Volume <= 0 {
		return herr.NewConfigError("basin %q: volume must be > 0, got %v", b.Name, b.Volume)
	}
	if b.StartVolume < 0 || b.StartVolume > b.Volume {
		return herr.NewConfigError("basin %q: start_volume %v out of range [0, %v]", b.Name, b.StartVolume, b.Volume)
	}
	return nil
}

// NewOutflow returns the degenerate basin representing an uncontrolled
// sink or source: V=1, N=2, start=0, a fixed level. An outflow is never
// added to PowerPlant.Basins; turbines reference it with NoBasin.
func NewOutflow(name string, level float64) Basin {
	if name == "" {
		name = "Outflow"
	}
	return Basin{
		Name:        name,
		Volume:      1,
		NumStates:   2,
		StartVolume: 0,
		Levels:      NewFlatLevel(level),
	}
}
