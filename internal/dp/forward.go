package dp

import (
	"context"
	"math"

	"hydro-dispatch/internal/constraint"
	"hydro-dispatch/internal/herr"
	"hydro-dispatch/internal/model"
)

// ForwardResult is the realized dispatch trajectory under a Result's
// optimal policy: a single deterministic, real-valued path, per spec.md
// §4.6. Unlike the discretized backward-induction value function, this
// is not a distribution over states - at each step the real-valued
// volumes are rounded to the nearest grid point only to look up the
// policy action, and then advanced continuously.
type ForwardResult struct {
	// TurbinePowerW[t][turbine] is the dispatched power (W) at step t,
	// length T.
	TurbinePowerW [][]float64
	// BasinFlow[t][basin] is the action's net outflow (m^3/s, positive =
	// draining) realized at step t, length T.
	BasinFlow [][]float64
	// VolumeTrajectory[t][basin] is the real-valued basin volume at the
	// start of step t, length T+1 (VolumeTrajectory[0] is the starting
	// volumes, VolumeTrajectory[T] the ending volumes).
	VolumeTrajectory [][]float64
	// Reward[t] is the currency reward realized at step t, length T.
	Reward []float64
	// Feasible[t] reports whether every basin's volume stayed within
	// [0, Volume] after step t's update; a false entry flags a step
	// where the policy's chosen action drove a basin outside its valid
	// range, which the continuous trajectory does not clamp away.
	Feasible []bool
}

// Forward realizes the single deterministic dispatch trajectory implied
// by Result.Policy, starting from the real-valued startVolumes, per
// spec.md §4.6: at each step, round the current volumes to the nearest
// discrete state, read off the policy action, evaluate it, and advance
// volumes via v_{t+1} = v_t - basin_flow_net(s_t)*dt + inflow_t*dt.
func Forward(ctx context.Context, in Inputs, result *Result, startVolumes []float64) (*ForwardResult, error) {
	numBasins := len(in.Plant.NumStates())
	if len(startVolumes) != numBasins {
		return nil, herr.NewShapeError("dp.Forward: startVolumes has %d basins, plant has %d", len(startVolumes), numBasins)
	}
	numSteps := len(in.Price)
	dtSeconds := in.Step.Seconds()
	dtHours := in.Step.Hours()

	power := make([][]float64, numSteps)
	basinFlow := make([][]float64, numSteps)
	reward := make([]float64, numSteps)
	feasible := make([]bool, numSteps)
	trajectory := make([][]float64, numSteps+1)

	volumes := make([]float64, numBasins)
	copy(volumes, startVolumes)
	trajectory[0] = append([]float64(nil), volumes...)

	for t := 0; t < numSteps; t++ {
		select {
		case <-ctx.Done():
			return nil, herr.NewCancelled("dp.Forward: cancelled at step %d", t)
		default:
		}

		var stepConstraints map[int]*constraint.TurbineConstraint
		if in.Constraints != nil {
			stepConstraints = in.Constraints.At(t)
		}
		var inflow []float64
		if in.Inflow != nil {
			inflow = in.Inflow[t]
		}

		st := nearestState(in.Plant, volumes)
		a := result.Policy[t][st]
		ev := in.Catalogue.EvaluateCached(a, stepConstraints)

		turbinePower := make([]float64, len(in.Plant.Turbines))
		var totalPower float64
		for ti, pw := range ev.TurbinePower {
			turbinePower[ti] = pw[st]
			totalPower += pw[st]
		}

		flow := make([]float64, numBasins)
		next := make([]float64, numBasins)
		stepFeasible := true
		for b := 0; b < numBasins; b++ {
			flow[b] = ev.BasinFlow[b][st]
			delta := -flow[b] * dtSeconds
			if inflow != nil {
				delta += inflow[b] * dtSeconds
			}
			v := volumes[b] + delta
			if v < 0 || v > in.Plant.Volumes()[b] {
				stepFeasible = false
			}
			next[b] = v
		}

		power[t] = turbinePower
		basinFlow[t] = flow
		reward[t] = in.Price[t] * totalPower * dtHours
		feasible[t] = stepFeasible
		volumes = next
		trajectory[t+1] = append([]float64(nil), volumes...)
	}

	return &ForwardResult{
		TurbinePowerW:    power,
		BasinFlow:        basinFlow,
		VolumeTrajectory: trajectory,
		Reward:           reward,
		Feasible:         feasible,
	}, nil
}

// nearestState rounds a set of real-valued basin volumes to the nearest
// discrete product state, per spec.md §4.6: k_b = round((N_b-1)*v_b/V_b),
// clamped to [0, N_b-1].
func nearestState(plant *model.PowerPlant, volumes []float64) int {
	numStates := plant.NumStates()
	maxVolumes := plant.Volumes()
	coords := make([]int, len(numStates))
	for b, n := range numStates {
		frac := volumes[b] / maxVolumes[b]
		k := int(math.Round(frac * float64(n-1)))
		if k < 0 {
			k = 0
		}
		if k > n-1 {
			k = n - 1
		}
		coords[b] = k
	}
	return model.LinearIndex(numStates, coords)
}
