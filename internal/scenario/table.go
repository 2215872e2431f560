package scenario

import (
	"time"

	"hydro-dispatch/internal/model"
)

// Row is one time step of a Scenario's results table: the realized
// dispatch at that step, mirroring the results_ table of the
// source model this system was distilled from (price curve joined with
// turbine actions and basin volumes).
type Row struct {
	Time time.Time

	Price float64
	// TurbinePowerW[i] is the dispatched power (W) of turbine i.
	TurbinePowerW []float64
	// TurbineLabel[i] classifies turbine i's realized power for
	// human-readable reporting.
	TurbineLabel []model.DispatchLabel
	// BasinVolume[b] is the realized remaining volume (m^3) of basin b
	// at the start of this step.
	BasinVolume []float64
	// Feasible reports whether every basin stayed within [0, Volume]
	// after this step's update under the optimal policy.
	Feasible bool
}

// Table returns the scenario's row-oriented results, one row per time
// step of the underlyings' horizon.
func (s *Scenario) Table() ([]Row, error) {
	if err := s.requireCompleted(); err != nil {
		return nil, err
	}

	n := s.underlyings.NumSteps()
	rows := make([]Row, n)
	for t := 0; t < n; t++ {
		power := s.forward.TurbinePowerW[t]
		labels := make([]model.DispatchLabel, len(power))
		for i, p := range power {
			labels[i] = model.LabelFromPower(p)
		}
		rows[t] = Row{
			Time:          s.underlyings.Time[t],
			Price:         s.underlyings.Price[t],
			TurbinePowerW: power,
			TurbineLabel:  labels,
			BasinVolume:   s.forward.VolumeTrajectory[t],
			Feasible:      s.forward.Feasible[t],
		}
	}
	return rows, nil
}
