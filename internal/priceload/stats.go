package priceload

import (
	"math"
	"sort"
)

// Stats summarizes a price curve: basic order statistics used for
// reporting before committing to a full scenario run, adapted from the
// percentile/spread computation of the teacher's node-ranking analysis
// (its canonical-battery oracle profit is fully superseded by the
// dp package's own backward induction and was dropped).
type Stats struct {
	Count        int
	Min          float64
	Max          float64
	Mean         float64
	P05          float64
	P95          float64
	SpreadP95P05 float64
}

// ComputeStats summarizes rows' prices.
func ComputeStats(rows []Row) Stats {
	var s Stats
	if len(rows) == 0 {
		return s
	}
	s.Count = len(rows)

	vals := make([]float64, len(rows))
	sum := 0.0
	minV, maxV := math.Inf(1), math.Inf(-1)
	for i, r := range rows {
		vals[i] = r.Price
		sum += r.Price
		if r.Price < minV {
			minV = r.Price
		}
		if r.Price > maxV {
			maxV = r.Price
		}
	}
	sort.Float64s(vals)

	s.Min = minV
	s.Max = maxV
	s.Mean = sum / float64(len(vals))
	s.P05 = percentileSorted(vals, 0.05)
	s.P95 = percentileSorted(vals, 0.95)
	s.SpreadP95P05 = s.P95 - s.P05
	return s
}

// percentileSorted linearly interpolates the q-quantile of a
// pre-sorted slice.
func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
