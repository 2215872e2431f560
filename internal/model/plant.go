package model

import (
	"fmt"
	"strings"

	"hydro-dispatch/internal/herr"
)

// PowerPlant is the immutable topology of a cascaded hydroelectric plant:
// a set of basins and turbines wiring them together. Basins and turbines
// are owned by the plant in arrays and referenced elsewhere by integer
// id, per the index-based redesign in DESIGN.md (no basin<->plant or
// turbine<->basin back-pointers).
type PowerPlant struct {
	Name     string
	Basins   []Basin
	Turbines []Turbine

	numStates []int
	volumes   []float64

	// levels[b] is the length-NumStates[b] height lookup for basin b.
	levels [][]float64
	// kronLevels[b] is the length-S broadcast of levels[b] over the full
	// product state space.
	kronLevels [][]float64
}

// NewPowerPlant validates and builds a PowerPlant topology. It computes
// per-basin level tables and their product-state broadcasts, and
// validates that every turbine's head is non-negative at every product
// state, failing with a *herr.ConfigError otherwise.
func NewPowerPlant(name string, basins []Basin, turbines []Turbine) (*PowerPlant, error) {
	if len(basins) == 0 {
		return nil, herr.NewConfigError("power plant %q: must have at least one basin", name)
	}
	p := &PowerPlant{
		Name:     name,
		Basins:   basins,
		Turbines: turbines,
	}

	p.numStates = make([]int, len(basins))
	p.volumes = make([]float64, len(basins))
	for i, b := range basins {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		p.numStates[i] = b.NumStates
		p.volumes[i] = b.Volume
	}

	p.levels = make([][]float64, len(basins))
	for i, b := range basins {
		vals, err := b.Levels.Values(b.Volume, b.NumStates)
		if err != nil {
			return nil, fmt.Errorf("basin %q: %w", b.Name, err)
		}
		p.levels[i] = vals
	}

	p.kronLevels = make([][]float64, len(basins))
	for i := range basins {
		p.kronLevels[i] = broadcast(p.levels[i], KronIndex(p.numStates, i))
	}

	for ti, t := range turbines {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if err := p.validBasinRef(t.UpperBasin); err != nil {
			return nil, fmt.Errorf("turbine %q: upper basin: %w", t.Name, err)
		}
		if err := p.validBasinRef(t.LowerBasin); err != nil {
			return nil, fmt.Errorf("turbine %q: lower basin: %w", t.Name, err)
		}
		if t.UpperBasin == NoBasin && t.LowerBasin == NoBasin {
			return nil, herr.NewConfigError("turbine %q: both upper and lower basin are outflows", t.Name)
		}

		head := p.Head(ti)
		for s, h := range head {
			if h < 0 {
				return nil, herr.NewConfigError(
					"turbine %q: negative head %.6f at product state %d (upper=%q, lower=%q)",
					t.Name, h, s, basinName(basins, t.UpperBasin), basinName(basins, t.LowerBasin))
			}
		}
	}

	return p, nil
}

func (p *PowerPlant) validBasinRef(id int) error {
	if id == NoBasin {
		return nil
	}
	if id < 0 || id >= len(p.Basins) {
		return herr.NewConfigError("basin id %d out of range [0,%d)", id, len(p.Basins))
	}
	return nil
}

func basinName(basins []Basin, id int) string {
	if id == NoBasin {
		return "outflow"
	}
	return basins[id].Name
}

func broadcast(values []float64, index []int) []float64 {
	out := make([]float64, len(index))
	for i, k := range index {
		out[i] = values[k]
	}
	return out
}

// NumStates returns the per-basin discretization counts N_b.
func (p *PowerPlant) NumStates() []int { return p.numStates }

// Volumes returns the per-basin maximum usable volumes V_b.
func (p *PowerPlant) Volumes() []float64 { return p.volumes }

// StateSpaceSize returns S = Pi N_b, the total product state count.
func (p *PowerPlant) StateSpaceSize() int { return ProductSize(p.numStates) }

// KronLevels returns the length-S broadcast of basin b's level curve
// over the full product state space. It panics if id is out of range;
// callers use it only for basin ids obtained from PowerPlant.Basins.
func (p *PowerPlant) KronLevels(id int) []float64 {
	if id == NoBasin {
		return nil
	}
	return p.kronLevels[id]
}

// constLevel returns a length-s array filled with a constant level,
// used in place of a basin's kron-broadcast level when that side of a
// turbine is an outflow.
func constLevel(level float64, s int) []float64 {
	out := make([]float64, s)
	for i := range out {
		out[i] = level
	}
	return out
}

// Head returns the length-S head (upper level - lower level) for
// turbine ti, evaluated at every product state. Outflow basins
// contribute their constant OutflowLevel.
func (p *PowerPlant) Head(ti int) []float64 {
	t := p.Turbines[ti]
	s := p.StateSpaceSize()

	var upper, lower []float64
	if t.UpperBasin == NoBasin {
		upper = constLevel(t.OutflowLevel, s)
	} else {
		upper = p.kronLevels[t.UpperBasin]
	}
	if t.LowerBasin == NoBasin {
		lower = constLevel(t.OutflowLevel, s)
	} else {
		lower = p.kronLevels[t.LowerBasin]
	}

	head := make([]float64, s)
	for i := range head {
		head[i] = upper[i] - lower[i]
	}
	return head
}

// Summary returns a human-readable description of the plant's basins and
// turbines, mirroring PowerPlant.summary() in the source model this
// system was distilled from.
func (p *PowerPlant) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Power Plant %q\n", p.Name)
	fmt.Fprintf(&b, "Basins (%d):\n", len(p.Basins))
	for _, basin := range p.Basins {
		fmt.Fprintf(&b, "  - %s: volume=%.0f states=%d start=%.0f\n", basin.Name, basin.Volume, basin.NumStates, basin.StartVolume)
	}
	fmt.Fprintf(&b, "Turbines (%d):\n", len(p.Turbines))
	for _, t := range p.Turbines {
		fmt.Fprintf(&b, "  - %s: %s -> %s max=%.2fMW base=%.2fMW eff=%.1f%%\n",
			t.Name, basinName(p.Basins, t.UpperBasin), basinName(p.Basins, t.LowerBasin),
			t.MaxPower/1e6, t.BaseLoad/1e6, t.Efficiency*100)
	}
	return b.String()
}
