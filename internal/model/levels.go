package model

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"hydro-dispatch/internal/herr"
)

// LevelShape selects the volume-to-height parametrization for a basin's
// level curve.
type LevelShape int

const (
	// ShapeFlat gives a constant height regardless of volume.
	ShapeFlat LevelShape = iota
	// ShapeWedge gives height(v) = empty + sqrt(v/L), L = V/(full-empty)^2,
	// the default parametric basin shape (spec.md §3).
	ShapeWedge
)

// LevelCurve maps a basin's discretized volume states to heights. It is
// either a flat basin (constant height) or a monotone-nondecreasing
// wedge sampled at N discrete states.
type LevelCurve struct {
	Shape LevelShape
	Empty float64
	Full  float64
}

// NewFlatLevel returns a LevelCurve with a single constant height.
func NewFlatLevel(height float64) LevelCurve {
	return LevelCurve{Shape: ShapeFlat, Empty: height, Full: height}
}

// NewWedgeLevel returns the default parametric wedge level curve between
// an empty-basin height and a full-basin height.
func NewWedgeLevel(empty, full float64) LevelCurve {
	return LevelCurve{Shape: ShapeWedge, Empty: empty, Full: full}
}

// Values samples the level curve at the numStates equally spaced volume
// discretization points between 0 and volume, returning a
// monotone-nondecreasing length-numStates slice of heights. It returns a
// *herr.ConfigError if the sampled curve is not monotone-nondecreasing.
func (lc LevelCurve) Values(volume float64, numStates int) ([]float64, error) {
	if numStates < 2 {
		return nil, herr.NewConfigError("level curve requires numStates >= 2, got %d", numStates)
	}
	vals := make([]float64, numStates)

	switch lc.Shape {
	case ShapeFlat:
		for i := range vals {
			vals[i] = lc.Empty
		}
	case ShapeWedge:
		if lc.Full <= lc.Empty {
			for i := range vals {
				vals[i] = lc.Empty
			}
		} else {
			height := lc.Full - lc.Empty
			area := height * height
			length := volume / area
			for i := 0; i < numStates; i++ {
				v := volume * float64(i) / float64(numStates-1)
				vals[i] = lc.Empty + math.Sqrt(v/length)
			}
		}
	default:
		return nil, herr.NewConfigError("unknown level shape %d", lc.Shape)
	}

	diffs := make([]float64, len(vals)-1)
	floats.SubTo(diffs, vals[1:], vals[:len(vals)-1])
	if floats.Min(diffs) < 0 {
		i := floats.MinIdx(diffs) + 1
		return nil, herr.NewConfigError("level curve is not monotone-nondecreasing at index %d (%.6f < %.6f)", i, vals[i], vals[i-1])
	}
	return vals, nil
}
