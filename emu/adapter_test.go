package emu

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

// identitySim returns its input coordinate unchanged: raw output == point[0].
type identitySim struct{}

func (identitySim) Dims() int { return 1 }

func (identitySim) Simulate(point []float64, rng *rand.Rand) (float64, error) {
	return point[0], nil
}

// === Input Tests ===

func TestInput_FullPoint(t *testing.T) {
	in := FullPoint([]float64{1, 2, 3})
	got, err := in.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)
}

func TestInput_PinnedPoint(t *testing.T) {
	tests := []struct {
		name    string
		point   []float64
		dim     int
		value   float64
		want    []float64
		wantErr bool
	}{
		{"pin front", []float64{2, 3}, 0, 1, []float64{1, 2, 3}, false},
		{"pin middle", []float64{1, 3}, 1, 2, []float64{1, 2, 3}, false},
		{"pin back", []float64{1, 2}, 2, 3, []float64{1, 2, 3}, false},
		{"pin only dim", nil, 0, 7, []float64{7}, false},
		{"dim negative", []float64{1}, -1, 0, nil, true},
		{"dim past end", []float64{1}, 2, 0, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PinnedPoint(tt.point, tt.dim, tt.value).Resolve()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// === NoisyAdapter Tests ===

func TestNewNoisyAdapter_Validation(t *testing.T) {
	_, err := NewNoisyAdapter(nil, 1, 0)
	assert.Error(t, err, "nil simulator")
	_, err = NewNoisyAdapter(identitySim{}, -1, 0)
	assert.Error(t, err, "negative sigma")
	_, err = NewNoisyAdapter(identitySim{}, 1, -1)
	assert.Error(t, err, "negative changepoint")
}

func TestNoisyAdapter_ZeroSigmaIsDeterministic(t *testing.T) {
	a, err := NewNoisyAdapter(identitySim{}, 0, 0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 10; i++ {
		got, err := a.Simulate([]float64{3.5}, rng)
		require.NoError(t, err)
		// no noise draw consumed: output is exactly the raw value
		assert.Equal(t, 3.5, got)
	}
}

func TestNoisyAdapter_NoiseIsZeroMean(t *testing.T) {
	a, err := NewNoisyAdapter(identitySim{}, 2.0, 0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(11))
	const n = 2000
	vals := make([]float64, n)
	for i := range vals {
		v, err := a.Simulate([]float64{10}, rng)
		require.NoError(t, err)
		vals[i] = v
	}
	assert.InDelta(t, 10.0, stat.Mean(vals, nil), 0.2)
	assert.InDelta(t, 2.0, stat.StdDev(vals, nil), 0.2)
}

// Heteroscedastic property: with error_sigma=20 and error_changepoint=300,
// a raw output of 1000 carries roughly 1000/300 times the noise standard
// deviation of a raw output of 100.
func TestNoisyAdapter_HeteroscedasticNoise(t *testing.T) {
	a, err := NewNoisyAdapter(identitySim{}, 20, 300)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(23))
	sampleStd := func(raw float64) float64 {
		const n = 800
		vals := make([]float64, n)
		for i := range vals {
			v, err := a.Simulate([]float64{raw}, rng)
			require.NoError(t, err)
			vals[i] = v
		}
		return stat.StdDev(vals, nil)
	}

	stdLow := sampleStd(100)   // below changepoint: base sigma
	stdHigh := sampleStd(1000) // above changepoint: scaled sigma

	assert.Greater(t, stdHigh, stdLow, "noise must grow past the changepoint")
	assert.InDelta(t, 20.0, stdLow, 3.0)
	assert.InDelta(t, 1000.0/300.0, stdHigh/stdLow, 0.8)
}

func TestNoisyAdapter_PropagatesSimulatorError(t *testing.T) {
	failing := failingSim{err: fmt.Errorf("boom")}
	a, err := NewNoisyAdapter(failing, 1, 0)
	require.NoError(t, err)

	_, err = a.Simulate([]float64{1}, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

type failingSim struct{ err error }

func (failingSim) Dims() int { return 1 }

func (f failingSim) Simulate(point []float64, rng *rand.Rand) (float64, error) {
	return 0, f.err
}
