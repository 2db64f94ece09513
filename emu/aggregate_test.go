package emu

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noisySquare returns point[0]^2 plus a unit Gaussian draw.
type noisySquare struct{}

func (noisySquare) Dims() int { return 1 }

func (noisySquare) Simulate(point []float64, rng *rand.Rand) (float64, error) {
	return point[0]*point[0] + rng.NormFloat64(), nil
}

// flakySim fails whenever point[0] is negative.
type flakySim struct{}

func (flakySim) Dims() int { return 1 }

func (flakySim) Simulate(point []float64, rng *rand.Rand) (float64, error) {
	if point[0] < 0 {
		return 0, fmt.Errorf("no result for %v", point[0])
	}
	return point[0], nil
}

func TestRunRepeated_GroupsByPoint(t *testing.T) {
	points := [][]float64{{1}, {2}, {2}} // duplicate coordinates stay distinct groups
	prng := NewPartitionedRNG(NewExperimentKey(3))

	rs, err := RunRepeated(noisySquare{}, points, RunnerConfig{Repeats: 4}, prng)
	require.NoError(t, err)
	require.Len(t, rs.Runs, 3)

	for i, pr := range rs.Runs {
		assert.Equal(t, points[i], pr.Point)
		assert.Len(t, pr.Outputs, 4)
		assert.Zero(t, pr.Missing())
		m, ok := pr.Mean()
		require.True(t, ok)
		assert.InDelta(t, points[i][0]*points[i][0], m, 3.0)
	}

	x, y := rs.TrainingData()
	assert.Len(t, x, 12)
	assert.Len(t, y, 12)
}

func TestRunRepeated_Validation(t *testing.T) {
	prng := NewPartitionedRNG(NewExperimentKey(1))

	_, err := RunRepeated(nil, [][]float64{{1}}, RunnerConfig{Repeats: 1}, prng)
	assert.Error(t, err, "nil simulator")

	_, err = RunRepeated(noisySquare{}, [][]float64{{1}}, RunnerConfig{Repeats: 0}, prng)
	assert.Error(t, err, "zero repeats")

	_, err = RunRepeated(noisySquare{}, [][]float64{{1}}, RunnerConfig{Repeats: 1}, nil)
	assert.Error(t, err, "nil rng")

	_, err = RunRepeated(noisySquare{}, [][]float64{{1, 2}}, RunnerConfig{Repeats: 1}, prng)
	assert.Error(t, err, "dimension mismatch")
}

func TestRunRepeated_SentinelOnSimulatorFailure(t *testing.T) {
	points := [][]float64{{1}, {-1}, {2}}
	prng := NewPartitionedRNG(NewExperimentKey(9))

	rs, err := RunRepeated(flakySim{}, points, RunnerConfig{Repeats: 3}, prng)
	require.NoError(t, err, "failures must not abort the sweep")

	assert.Zero(t, rs.Runs[0].Missing())
	assert.Equal(t, 3, rs.Runs[1].Missing(), "every repeat at the bad point is a sentinel")
	assert.Zero(t, rs.Runs[2].Missing())
	assert.Equal(t, 3, rs.Missing())

	_, ok := rs.Runs[1].Mean()
	assert.False(t, ok, "no usable outputs at the failed point")

	x, y := rs.TrainingData()
	assert.Len(t, x, 6, "sentinels excluded from training pairs")
	assert.Len(t, y, 6)
}

// Parallel fan-out must reproduce the sequential results exactly: every
// run draws from its own derived stream, so scheduling cannot matter.
func TestRunRepeated_ParallelMatchesSequential(t *testing.T) {
	points := [][]float64{{1}, {2}, {3}, {4}, {5}}

	seq, err := RunRepeated(noisySquare{}, points, RunnerConfig{Repeats: 6}, NewPartitionedRNG(NewExperimentKey(4)))
	require.NoError(t, err)
	par, err := RunRepeated(noisySquare{}, points, RunnerConfig{Repeats: 6, Workers: 4}, NewPartitionedRNG(NewExperimentKey(4)))
	require.NoError(t, err)

	assert.Equal(t, seq.Runs, par.Runs)
}

func TestPointRuns_Stats(t *testing.T) {
	pr := PointRuns{
		Point: []float64{1},
		Outputs: []Output{
			{Value: 2, OK: true},
			{Value: 4, OK: true},
			{OK: false},
		},
	}

	assert.Equal(t, []float64{2, 4}, pr.Values())
	assert.Equal(t, 1, pr.Missing())

	m, ok := pr.Mean()
	require.True(t, ok)
	assert.Equal(t, 3.0, m)

	s, ok := pr.StdDev()
	require.True(t, ok)
	assert.InDelta(t, 1.4142, s, 1e-3)

	single := PointRuns{Outputs: []Output{{Value: 5, OK: true}}}
	s, ok = single.StdDev()
	require.True(t, ok)
	assert.Zero(t, s, "single output has zero spread")

	empty := PointRuns{Outputs: []Output{{OK: false}}}
	_, ok = empty.Mean()
	assert.False(t, ok)
}
