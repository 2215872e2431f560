package constraint

import (
	"sort"
	"strconv"
	"time"
)

// Series is the length-T sequence of per-step effective constraint maps
// (turbine id -> active TurbineConstraint) produced by NewSeries. Steps
// with identical active constraint sets share the same map instance
// (pointer-equal), so downstream callers (e.g. action.Catalogue's
// EvaluateCached) can memoize work keyed on Steps[t] identity instead of deep
// comparison, per spec.md §4.3's constraint-identity note.
type Series struct {
	Steps []map[int]*TurbineConstraint
}

// NewSeries builds a Series over a time grid of length len(times), each
// step spanning [times[t], times[t]+step). A constraint is active at
// step t when times[t] is within [constraint.TimeStart, constraint.TimeEnd).
// Constraints active on the same turbine at the same step are combined
// via Add (tightest bounds win).
func NewSeries(times []time.Time, constraints []*TurbineConstraint) *Series {
	steps := make([]map[int]*TurbineConstraint, len(times))
	cache := make(map[string]map[int]*TurbineConstraint)

	for i, t := range times {
		active := map[int]*TurbineConstraint{}
		for _, c := range constraints {
			if !t.Before(c.TimeStart) && t.Before(c.TimeEnd) {
				if existing, ok := active[c.Turbine]; ok {
					combined, err := existing.Add(c)
					if err != nil {
						continue
					}
					active[c.Turbine] = combined
				} else {
					active[c.Turbine] = c
				}
			}
		}
		steps[i] = internKey(cache, active)
	}

	return &Series{Steps: steps}
}

// At returns the active constraint map for step t, or nil if t is out of
// range.
func (s *Series) At(t int) map[int]*TurbineConstraint {
	if t < 0 || t >= len(s.Steps) {
		return nil
	}
	return s.Steps[t]
}

// internKey returns the cached map instance structurally equal to m (by
// effective key, per turbine), interning m into cache if no match exists
// yet. This is what gives identical steps pointer-equal maps.
func internKey(cache map[string]map[int]*TurbineConstraint, m map[int]*TurbineConstraint) map[int]*TurbineConstraint {
	key := mapKey(m)
	if existing, ok := cache[key]; ok {
		return existing
	}
	cache[key] = m
	return m
}

func mapKey(m map[int]*TurbineConstraint) string {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b []byte
	for _, id := range ids {
		c := m[id]
		b = appendKey(b, c.key())
	}
	return string(b)
}

func appendKey(b []byte, k effectiveKey) []byte {
	b = append(b, []byte("|t=")...)
	b = strconv.AppendInt(b, int64(k.turbine), 10)
	b = append(b, []byte(",pmax=")...)
	b = strconv.AppendFloat(b, k.powerMax, 'g', -1, 64)
	b = append(b, []byte(",pmin=")...)
	b = strconv.AppendFloat(b, k.powerMin, 'g', -1, 64)
	b = append(b, []byte(",mmax=")...)
	b = strconv.AppendFloat(b, k.marginMax, 'g', -1, 64)
	b = append(b, []byte(",mmin=")...)
	b = strconv.AppendFloat(b, k.marginMin, 'g', -1, 64)
	return b
}
