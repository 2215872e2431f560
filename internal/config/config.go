// Package config loads plant topology, constraint and scenario option
// configuration from YAML, mirroring the Load/LoadUnchecked/Validate
// split of the teacher's configuration layer, adapted to this system's
// plant/turbine/constraint shape in place of battery/strategy.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"hydro-dispatch/internal/constraint"
	"hydro-dispatch/internal/herr"
	"hydro-dispatch/internal/model"
)

// Config is the on-disk configuration shape for one plant, its
// constraints, and its default scenario options.
type Config struct {
	Plant       PlantConfig        `yaml:"plant"`
	Constraints []ConstraintConfig `yaml:"constraints"`
	Scenario    ScenarioConfig     `yaml:"scenario"`
}

type PlantConfig struct {
	Name     string          `yaml:"name"`
	Basins   []BasinConfig   `yaml:"basins"`
	Turbines []TurbineConfig `yaml:"turbines"`
}

type BasinConfig struct {
	Name        string  `yaml:"name"`
	Volume      float64 `yaml:"volume"`
	NumStates   int     `yaml:"num_states"`
	StartVolume float64 `yaml:"start_volume"`
	EndVolume   float64 `yaml:"end_volume"`

	// Level shape: either a flat height, or a wedge between an empty and
	// a full height.
	Shape       string  `yaml:"shape"` // "flat" or "wedge"
	FlatHeight  float64 `yaml:"flat_height"`
	EmptyHeight float64 `yaml:"empty_height"`
	FullHeight  float64 `yaml:"full_height"`
}

func (b BasinConfig) toBasin() model.Basin {
	levels := model.NewFlatLevel(b.FlatHeight)
	if b.Shape == "wedge" {
		levels = model.NewWedgeLevel(b.EmptyHeight, b.FullHeight)
	}
	return model.Basin{
		Name:        b.Name,
		Volume:      b.Volume,
		NumStates:   b.NumStates,
		StartVolume: b.StartVolume,
		EndVolume:   b.EndVolume,
		Levels:      levels,
	}
}

type TurbineConfig struct {
	Name         string                `yaml:"name"`
	UpperBasin   string                `yaml:"upper_basin"` // basin name, or "" for outflow
	LowerBasin   string                `yaml:"lower_basin"`
	OutflowLevel float64               `yaml:"outflow_level"`
	Efficiency   float64               `yaml:"efficiency"`
	BaseLoad     float64               `yaml:"base_load"`
	MaxPower     float64               `yaml:"max_power"`
	Actions      []TurbineActionConfig `yaml:"actions"`
}

type TurbineActionConfig struct {
	Kind  string  `yaml:"kind"` // standing, fixed_power, fixed_flow, min_power, max_power
	Value float64 `yaml:"value"`
}

func (a TurbineActionConfig) toAction() (model.TurbineAction, error) {
	var kind model.ActionKind
	switch a.Kind {
	case "standing":
		kind = model.Standing
	case "fixed_power":
		kind = model.FixedPower
	case "fixed_flow":
		kind = model.FixedFlow
	case "min_power":
		kind = model.MinPower
	case "max_power":
		kind = model.MaxPower
	default:
		return model.TurbineAction{}, herr.NewConfigError("unknown action kind %q", a.Kind)
	}
	return model.TurbineAction{Kind: kind, Value: a.Value}, nil
}

type ConstraintConfig struct {
	Name      string    `yaml:"name"`
	Turbine   string    `yaml:"turbine"`
	TimeStart time.Time `yaml:"time_start"`
	TimeEnd   time.Time `yaml:"time_end"`
	PowerMax  *float64  `yaml:"power_max"`
	PowerMin  *float64  `yaml:"power_min"`
	MarginMax float64   `yaml:"margin_max"`
	MarginMin float64   `yaml:"margin_min"`
}

type ScenarioConfig struct {
	WaterValueEnd     []float64 `yaml:"water_value_end"`
	BasinLimitPenalty float64   `yaml:"basin_limit_penalty"`
	Workers           int       `yaml:"workers"`
}

// Load reads, parses and validates a Config from path.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked reads and parses a Config from path without validating
// the resulting plant topology. Useful for inspecting a partially
// written config.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &c, nil
}

// Validate checks the config parses into a valid plant topology by
// constructing one.
func (c *Config) Validate() error {
	_, _, err := c.BuildPlant()
	return err
}

// BuildPlant constructs a model.PowerPlant from the config, returning
// the plant and a name->id lookup for turbines (used to resolve
// ConstraintConfig.Turbine).
func (c *Config) BuildPlant() (*model.PowerPlant, map[string]int, error) {
	basinIDs := make(map[string]int, len(c.Plant.Basins))
	basins := make([]model.Basin, len(c.Plant.Basins))
	for i, bc := range c.Plant.Basins {
		basins[i] = bc.toBasin()
		basinIDs[bc.Name] = i
	}

	turbines := make([]model.Turbine, len(c.Plant.Turbines))
	turbineIDs := make(map[string]int, len(c.Plant.Turbines))
	for i, tc := range c.Plant.Turbines {
		upper := model.NoBasin
		if tc.UpperBasin != "" {
			id, ok := basinIDs[tc.UpperBasin]
			if !ok {
				return nil, nil, herr.NewConfigError("turbine %q: unknown upper_basin %q", tc.Name, tc.UpperBasin)
			}
			upper = id
		}
		lower := model.NoBasin
		if tc.LowerBasin != "" {
			id, ok := basinIDs[tc.LowerBasin]
			if !ok {
				return nil, nil, herr.NewConfigError("turbine %q: unknown lower_basin %q", tc.Name, tc.LowerBasin)
			}
			lower = id
		}

		actions := make([]model.TurbineAction, len(tc.Actions))
		for j, ac := range tc.Actions {
			a, err := ac.toAction()
			if err != nil {
				return nil, nil, fmt.Errorf("turbine %q action %d: %w", tc.Name, j, err)
			}
			actions[j] = a
		}

		turbines[i] = model.Turbine{
			Name:         tc.Name,
			UpperBasin:   upper,
			LowerBasin:   lower,
			OutflowLevel: tc.OutflowLevel,
			Efficiency:   tc.Efficiency,
			BaseLoad:     tc.BaseLoad,
			MaxPower:     tc.MaxPower,
			Actions:      actions,
		}
		turbineIDs[tc.Name] = i
	}

	plant, err := model.NewPowerPlant(c.Plant.Name, basins, turbines)
	if err != nil {
		return nil, nil, err
	}
	return plant, turbineIDs, nil
}

// BuildConstraints resolves the config's constraint list against
// turbineIDs (as returned by BuildPlant) into constraint.TurbineConstraint values.
func (c *Config) BuildConstraints(turbineIDs map[string]int) ([]*constraint.TurbineConstraint, error) {
	out := make([]*constraint.TurbineConstraint, 0, len(c.Constraints))
	for _, cc := range c.Constraints {
		id, ok := turbineIDs[cc.Turbine]
		if !ok {
			return nil, herr.NewConfigError("constraint %q: unknown turbine %q", cc.Name, cc.Turbine)
		}
		opts := []constraint.Option{
			constraint.WithName(cc.Name),
			constraint.WithMarginMax(cc.MarginMax),
			constraint.WithMarginMin(cc.MarginMin),
		}
		if cc.PowerMax != nil {
			opts = append(opts, constraint.WithPowerMax(*cc.PowerMax))
		}
		if cc.PowerMin != nil {
			opts = append(opts, constraint.WithPowerMin(*cc.PowerMin))
		}
		tc, err := constraint.New(id, cc.TimeStart, cc.TimeEnd, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, nil
}
