package emu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBound_Validation(t *testing.T) {
	tests := []struct {
		name    string
		lower   float64
		upper   float64
		wantErr bool
	}{
		{"valid", 15, 50, false},
		{"negative range ok", -5, 5, false},
		{"equal bounds", 3, 3, true},
		{"inverted bounds", 50, 15, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBound(tt.lower, tt.upper)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLatinHypercube_InvalidInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := NewLatinHypercube(nil, rng)
	assert.Error(t, err, "empty bounds")

	_, err = NewLatinHypercube([]Bound{{Lower: 1, Upper: 0}}, rng)
	assert.Error(t, err, "inverted bound")

	_, err = NewLatinHypercube([]Bound{{Lower: 0, Upper: 1}}, nil)
	assert.Error(t, err, "nil rng")

	lh, err := NewLatinHypercube([]Bound{{Lower: 0, Upper: 1}}, rng)
	require.NoError(t, err)
	_, err = lh.Sample(0)
	assert.Error(t, err, "zero count")
	_, err = lh.Sample(-3)
	assert.Error(t, err, "negative count")
}

// Latin hypercube property: exactly one point in each of the n strata of
// every dimension, all points within bounds.
func TestLatinHypercube_StratumCoverage(t *testing.T) {
	bounds := []Bound{{Lower: 15, Upper: 50}, {Lower: -2, Upper: 3}}
	lh, err := NewLatinHypercube(bounds, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	const n = 20
	points, err := lh.Sample(n)
	require.NoError(t, err)
	require.Len(t, points, n)

	for d, b := range bounds {
		seen := make([]bool, n)
		width := (b.Upper - b.Lower) / n
		for _, p := range points {
			require.True(t, lh.Contains(p), "point %v outside bounds", p)
			stratum := int(math.Floor((p[d] - b.Lower) / width))
			require.GreaterOrEqual(t, stratum, 0)
			require.Less(t, stratum, n)
			assert.False(t, seen[stratum], "dimension %d stratum %d hit twice", d, stratum)
			seen[stratum] = true
		}
	}
}

func TestRepeat_ConsecutiveDuplicates(t *testing.T) {
	points := [][]float64{{1, 10}, {2, 20}, {3, 30}}

	out, err := Repeat(points, 5)
	require.NoError(t, err)
	require.Len(t, out, 15)

	for i, p := range points {
		for j := 0; j < 5; j++ {
			assert.Equal(t, p, out[i*5+j], "point %d repeat %d", i, j)
		}
	}

	// Copies, not aliases
	out[0][0] = 99
	assert.Equal(t, 1.0, points[0][0])
}

func TestRepeat_InvalidFactor(t *testing.T) {
	_, err := Repeat([][]float64{{1}}, 0)
	assert.Error(t, err)
	_, err = Repeat([][]float64{{1}}, -1)
	assert.Error(t, err)
}

func TestLatinHypercube_Contains(t *testing.T) {
	lh, err := NewLatinHypercube([]Bound{{Lower: 0, Upper: 10}}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.True(t, lh.Contains([]float64{5}))
	assert.False(t, lh.Contains([]float64{-1}))
	assert.False(t, lh.Contains([]float64{10}), "upper bound is exclusive")
	assert.False(t, lh.Contains([]float64{5, 5}), "dimension mismatch")
}
