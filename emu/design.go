package emu

import (
	"fmt"
	"math/rand"
)

// Bound is a half-open sampling interval [Lower, Upper) for one input dimension.
type Bound struct {
	Lower float64
	Upper float64
}

// NewBound validates and constructs a Bound.
func NewBound(lower, upper float64) (Bound, error) {
	if !(lower < upper) {
		return Bound{}, fmt.Errorf("invalid bound: lower (%v) must be < upper (%v)", lower, upper)
	}
	return Bound{Lower: lower, Upper: upper}, nil
}

// Contains reports whether v lies within the bound.
func (b Bound) Contains(v float64) bool {
	return v >= b.Lower && v < b.Upper
}

// LatinHypercube samples space-filling designs over a fixed set of
// per-dimension bounds. Each call to Sample(n) divides every dimension into
// n equal strata and places exactly one point per stratum, with stratum
// order permuted independently per dimension.
type LatinHypercube struct {
	bounds []Bound
	rng    *rand.Rand
}

// NewLatinHypercube creates a sampler over the given bounds.
// The RNG must be non-nil; pass PartitionedRNG.ForSubsystem(SubsystemDesign)
// for reproducible designs.
func NewLatinHypercube(bounds []Bound, rng *rand.Rand) (*LatinHypercube, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("latin hypercube requires at least one dimension")
	}
	for d, b := range bounds {
		if !(b.Lower < b.Upper) {
			return nil, fmt.Errorf("dimension %d: invalid bound [%v, %v)", d, b.Lower, b.Upper)
		}
	}
	if rng == nil {
		return nil, fmt.Errorf("latin hypercube requires a random source")
	}
	return &LatinHypercube{bounds: bounds, rng: rng}, nil
}

// Dims returns the number of input dimensions.
func (lh *LatinHypercube) Dims() int {
	return len(lh.bounds)
}

// Bounds returns the sampler's per-dimension bounds.
func (lh *LatinHypercube) Bounds() []Bound {
	out := make([]Bound, len(lh.bounds))
	copy(out, lh.bounds)
	return out
}

// Sample returns n points, each of dimension Dims(). Exactly one point
// falls in each of the n strata of every dimension.
func (lh *LatinHypercube) Sample(n int) ([][]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", n)
	}

	points := make([][]float64, n)
	for i := range points {
		points[i] = make([]float64, len(lh.bounds))
	}

	for d, b := range lh.bounds {
		perm := lh.rng.Perm(n)
		width := (b.Upper - b.Lower) / float64(n)
		for i := 0; i < n; i++ {
			// Uniform draw within stratum perm[i] of dimension d.
			points[i][d] = b.Lower + (float64(perm[i])+lh.rng.Float64())*width
		}
	}
	return points, nil
}

// Contains reports whether the point lies inside every dimension's bound.
// Points submitted for emulator training must satisfy this.
func (lh *LatinHypercube) Contains(point []float64) bool {
	if len(point) != len(lh.bounds) {
		return false
	}
	for d, b := range lh.bounds {
		if !b.Contains(point[d]) {
			return false
		}
	}
	return true
}

// Repeat expands a design by duplicating each point r consecutive times,
// in the original point order. Used to capture stochastic variation at
// each design location.
func Repeat(points [][]float64, r int) ([][]float64, error) {
	if r <= 0 {
		return nil, fmt.Errorf("repeat factor must be positive, got %d", r)
	}
	out := make([][]float64, 0, len(points)*r)
	for _, p := range points {
		for j := 0; j < r; j++ {
			cp := make([]float64, len(p))
			copy(cp, p)
			out = append(out, cp)
		}
	}
	return out, nil
}
