package scenario

import (
	"context"
	"time"

	"hydro-dispatch/internal/action"
	"hydro-dispatch/internal/constraint"
	"hydro-dispatch/internal/dp"
	"hydro-dispatch/internal/herr"
	"hydro-dispatch/internal/model"
)

// status tracks the Scenario state machine: Unrun -> Running -> Completed.
type status int

const (
	statusUnrun status = iota
	statusRunning
	statusCompleted
)

// Options configures an optional Scenario behavior.
type Options struct {
	// WaterValueEnd prices each basin's remaining volume at the horizon
	// end as a soft terminal reward (spec.md §3). Nil means no terminal
	// valuation.
	WaterValueEnd []float64
	// BasinLimitPenalty is the basin_limit_penalty coefficient of
	// spec.md §6: the per-state reward charge for transition-operator
	// mass that overflows or underflows a basin's volume grid. Zero (the
	// default) selects DefaultBasinLimitPenalty, matching spec.md §6's
	// "default 1e14*3600" — pass a nonzero value to override it; there
	// is no way to disable the penalty entirely via this field, matching
	// the same zero-means-default convention as Workers below.
	BasinLimitPenalty float64
	// Workers bounds backward-induction parallelism; 0 uses all CPUs.
	Workers int
}

// DefaultBasinLimitPenalty is spec.md §6's default basin_limit_penalty:
// 1e14*3600, chosen so a single time-step column-mass deficit dominates
// any revenue improvement (spec.md §9).
const DefaultBasinLimitPenalty = 1e14 * 3600

// Timings records the wall-clock duration of each optimization phase,
// mirroring the source model's run-timing instrumentation.
type Timings struct {
	BackwardInduction time.Duration
	ForwardPropagation time.Duration
}

// Scenario binds a plant topology to its underlyings and constraints and
// drives one optimization run. A Scenario may complete at most one
// Run; results may only be read after Run succeeds.
type Scenario struct {
	Name string

	plant       *model.PowerPlant
	underlyings Underlyings
	constraints []*constraint.TurbineConstraint
	opts        Options

	catalogue *action.Catalogue

	status  status
	result  *dp.Result
	forward *dp.ForwardResult
	timings Timings
}

// New constructs a Scenario. name may be empty.
func New(name string, plant *model.PowerPlant, underlyings Underlyings, constraints []*constraint.TurbineConstraint, opts Options) (*Scenario, error) {
	if plant == nil {
		return nil, herr.NewConfigError("scenario %q: plant is required", name)
	}
	if err := underlyings.Validate(len(plant.Basins)); err != nil {
		return nil, err
	}
	return &Scenario{
		Name:        name,
		plant:       plant,
		underlyings: underlyings,
		constraints: constraints,
		opts:        opts,
		catalogue:   action.Build(plant),
	}, nil
}

// Run executes backward induction followed by forward propagation.
// Calling Run again after a successful Run returns a *herr.UsageError;
// a Run that fails leaves the scenario Unrun, so it may be called again.
func (s *Scenario) Run(ctx context.Context) error {
	if s.status != statusUnrun {
		return herr.NewUsageError("scenario %q: Run called more than once", s.Name)
	}
	s.status = statusRunning

	penalty := s.opts.BasinLimitPenalty
	if penalty == 0 {
		penalty = DefaultBasinLimitPenalty
	}

	series := constraint.NewSeries(s.underlyings.Time, s.constraints)
	in := dp.Inputs{
		Plant:         s.plant,
		Catalogue:     s.catalogue,
		Constraints:   series,
		Price:         s.underlyings.Price,
		Step:          s.underlyings.Step(),
		Inflow:        s.underlyings.Inflow,
		WaterValueEnd: s.opts.WaterValueEnd,
		Penalty:       penalty,
		Workers:       s.opts.Workers,
	}

	backStart := nowFunc()
	result, err := dp.Run(ctx, in)
	if err != nil {
		s.status = statusUnrun
		return err
	}
	s.timings.BackwardInduction = nowFunc().Sub(backStart)

	startVolumes := make([]float64, len(s.plant.Basins))
	for b, basin := range s.plant.Basins {
		startVolumes[b] = basin.StartVolume
	}

	fwdStart := nowFunc()
	forward, err := dp.Forward(ctx, in, result, startVolumes)
	if err != nil {
		s.status = statusUnrun
		return err
	}
	s.timings.ForwardPropagation = nowFunc().Sub(fwdStart)

	s.result = result
	s.forward = forward
	s.status = statusCompleted
	return nil
}

// nowFunc is overridable in tests; production code just wants elapsed
// wall-clock time for the Timings report.
var nowFunc = time.Now

// requireCompleted returns a *herr.UsageError unless Run has completed
// successfully.
func (s *Scenario) requireCompleted() error {
	if s.status != statusCompleted {
		return herr.NewUsageError("scenario %q: results read before a successful Run", s.Name)
	}
	return nil
}

// Timings returns the phase durations of the last successful Run.
func (s *Scenario) Timings() (Timings, error) {
	if err := s.requireCompleted(); err != nil {
		return Timings{}, err
	}
	return s.timings, nil
}

// Valuation returns the total currency value realized over the horizon
// by the forward trajectory: Σ_t Reward[t].
func (s *Scenario) Valuation() (float64, error) {
	if err := s.requireCompleted(); err != nil {
		return 0, err
	}
	var total float64
	for _, r := range s.forward.Reward {
		total += r
	}
	return total, nil
}

// Result exposes the raw backward-induction value function and policy.
func (s *Scenario) Result() (*dp.Result, error) {
	if err := s.requireCompleted(); err != nil {
		return nil, err
	}
	return s.result, nil
}

// Forward exposes the raw forward-propagation trajectory.
func (s *Scenario) Forward() (*dp.ForwardResult, error) {
	if err := s.requireCompleted(); err != nil {
		return nil, err
	}
	return s.forward, nil
}
