package emu

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// Output is one simulator invocation result. OK is false when the run
// produced no usable value (e.g. a bus never reached the final stop);
// such sentinel results flow through aggregation instead of aborting it.
type Output struct {
	Value float64
	OK    bool
}

// PointRuns holds the ordered outputs of all repeats at one design point.
type PointRuns struct {
	Point   []float64
	Outputs []Output
}

// Values returns the usable output values, preserving run order.
func (pr PointRuns) Values() []float64 {
	vals := make([]float64, 0, len(pr.Outputs))
	for _, o := range pr.Outputs {
		if o.OK {
			vals = append(vals, o.Value)
		}
	}
	return vals
}

// Missing returns the number of runs without a usable value.
func (pr PointRuns) Missing() int {
	return len(pr.Outputs) - len(pr.Values())
}

// Mean returns the empirical mean of usable outputs; false when none exist.
func (pr PointRuns) Mean() (float64, bool) {
	vals := pr.Values()
	if len(vals) == 0 {
		return 0, false
	}
	return stat.Mean(vals, nil), true
}

// StdDev returns the empirical standard deviation of usable outputs;
// zero for a single output, false when none exist.
func (pr PointRuns) StdDev() (float64, bool) {
	vals := pr.Values()
	if len(vals) == 0 {
		return 0, false
	}
	if len(vals) == 1 {
		return 0, true
	}
	return stat.StdDev(vals, nil), true
}

// RunSet groups repeated simulator outputs by originating design point.
// Duplicate coordinates at different indices remain distinct groups.
type RunSet struct {
	Runs []PointRuns
}

// TrainingData flattens the run set into (point, output) training pairs,
// one pair per usable run. Points are duplicated per repeat, which is
// exactly what a nugget-fitting emulator needs to see.
func (rs *RunSet) TrainingData() (x [][]float64, y []float64) {
	for _, pr := range rs.Runs {
		for _, o := range pr.Outputs {
			if !o.OK {
				continue
			}
			cp := make([]float64, len(pr.Point))
			copy(cp, pr.Point)
			x = append(x, cp)
			y = append(y, o.Value)
		}
	}
	return x, y
}

// Missing returns the total number of sentinel (unusable) runs.
func (rs *RunSet) Missing() int {
	total := 0
	for _, pr := range rs.Runs {
		total += pr.Missing()
	}
	return total
}

// RunnerConfig groups repeated-run fan-out parameters.
type RunnerConfig struct {
	Repeats int    // simulator invocations per design point (must be > 0)
	Workers int    // parallel workers; <= 1 runs sequentially
	Stream  string // RNG stream label; "" defaults to "train"
}

// NewRunnerConfig validates and constructs a RunnerConfig.
func NewRunnerConfig(repeats, workers int, stream string) (RunnerConfig, error) {
	if repeats <= 0 {
		return RunnerConfig{}, fmt.Errorf("repeats must be positive, got %d", repeats)
	}
	return RunnerConfig{Repeats: repeats, Workers: workers, Stream: stream}, nil
}

// RunRepeated invokes the simulator cfg.Repeats times at every design point
// and groups the outputs per point. Each invocation draws from its own
// deterministically derived RNG stream, so results are independent of
// execution order and the fan-out can run on cfg.Workers goroutines with
// no shared state.
//
// Simulator errors become sentinel outputs (OK=false) and are logged at
// warn level; a point whose every repeat failed is reported the same way,
// leaving the caller's statistics to tolerate the gap.
func RunRepeated(sim Simulator, points [][]float64, cfg RunnerConfig, prng *PartitionedRNG) (*RunSet, error) {
	if sim == nil {
		return nil, fmt.Errorf("repeated runner requires a simulator")
	}
	if cfg.Repeats <= 0 {
		return nil, fmt.Errorf("repeats must be positive, got %d", cfg.Repeats)
	}
	if prng == nil {
		return nil, fmt.Errorf("repeated runner requires a random source")
	}
	for i, p := range points {
		if len(p) != sim.Dims() {
			return nil, fmt.Errorf("point %d has %d dimensions, simulator expects %d", i, len(p), sim.Dims())
		}
	}

	stream := cfg.Stream
	if stream == "" {
		stream = "train"
	}

	// Derive all per-run RNGs up front: PartitionedRNG is not thread-safe,
	// and eager derivation keeps sequential and parallel runs identical.
	rngs := make([][]*rand.Rand, len(points))
	for i := range points {
		rngs[i] = make([]*rand.Rand, cfg.Repeats)
		for j := 0; j < cfg.Repeats; j++ {
			rngs[i][j] = prng.ForSubsystem(SubsystemRun(stream, i, j))
		}
	}

	rs := &RunSet{Runs: make([]PointRuns, len(points))}
	for i, p := range points {
		cp := make([]float64, len(p))
		copy(cp, p)
		rs.Runs[i] = PointRuns{Point: cp, Outputs: make([]Output, cfg.Repeats)}
	}

	runOne := func(i, j int) {
		val, err := sim.Simulate(rs.Runs[i].Point, rngs[i][j])
		if err != nil {
			logrus.Warnf("simulator run failed at point %d repeat %d: %v", i, j, err)
			rs.Runs[i].Outputs[j] = Output{}
			return
		}
		rs.Runs[i].Outputs[j] = Output{Value: val, OK: true}
	}

	if cfg.Workers <= 1 {
		for i := range points {
			for j := 0; j < cfg.Repeats; j++ {
				runOne(i, j)
			}
		}
		return rs, nil
	}

	// Index-sharded fan-out: every goroutine writes disjoint slots.
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			for i := shard; i < len(points); i += cfg.Workers {
				for j := 0; j < cfg.Repeats; j++ {
					runOne(i, j)
				}
			}
		}(w)
	}
	wg.Wait()
	return rs, nil
}
