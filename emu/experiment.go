package emu

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/gp-emu/gp-emu/emu/gp"
	"github.com/gp-emu/gp-emu/emu/report"
)

// Result is the output of one end-to-end experiment.
type Result struct {
	DesignPoints     [][]float64
	TrainingRuns     *RunSet
	Hyperparameters  gp.Hyperparameters
	ValidationPoints [][]float64
	ValidationRuns   *RunSet
	PredMean         []float64
	PredStd          []float64
	Records          []report.PointRecord
	Summary          *report.Summary
}

// RunExperiment executes the full pipeline described by the spec:
// Latin hypercube design → repeated simulator runs → GP fit → predictions
// at fresh validation points → comparison against the validation runs.
func RunExperiment(spec *ExperimentSpec) (*Result, error) {
	if spec == nil {
		return nil, fmt.Errorf("experiment: spec is required")
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("experiment: %w", err)
	}

	sim, err := NewSimulator(spec.Simulator, spec.simConfigNode())
	if err != nil {
		return nil, err
	}
	if sim.Dims() != len(spec.Bounds) {
		return nil, fmt.Errorf("experiment: %d bounds for a %d-dimensional simulator", len(spec.Bounds), sim.Dims())
	}
	if spec.ErrorSigma > 0 {
		noisy, err := NewNoisyAdapter(sim, spec.ErrorSigma, spec.ErrorChangepoint)
		if err != nil {
			return nil, err
		}
		sim = noisy
	}

	prng := NewPartitionedRNG(NewExperimentKey(spec.Seed))
	bounds := make([]Bound, len(spec.Bounds))
	for i, b := range spec.Bounds {
		bounds[i] = Bound{Lower: b.Lower, Upper: b.Upper}
	}

	// Design and training runs.
	lh, err := NewLatinHypercube(bounds, prng.ForSubsystem(SubsystemDesign))
	if err != nil {
		return nil, err
	}
	design, err := lh.Sample(spec.DesignPoints)
	if err != nil {
		return nil, err
	}
	logrus.Infof("sampled %d design points x %d repeats over %d dimensions",
		spec.DesignPoints, spec.Repeats, len(bounds))

	trainRuns, err := RunRepeated(sim, design, RunnerConfig{Repeats: spec.Repeats, Workers: spec.Workers, Stream: "train"}, prng)
	if err != nil {
		return nil, err
	}
	if missing := trainRuns.Missing(); missing > 0 {
		logrus.Warnf("%d of %d training runs returned no usable output", missing, spec.DesignPoints*spec.Repeats)
	}

	// Emulator fit. Training pairs keep one row per repeat, which is what
	// the "fit" nugget policy needs to estimate the noise level.
	x, y := trainRuns.TrainingData()
	if len(x) == 0 {
		return nil, fmt.Errorf("experiment: every training run failed, nothing to fit")
	}
	kernel, err := gp.KernelByName(spec.Kernel)
	if err != nil {
		return nil, err
	}
	model, err := gp.New(x, y, kernel, gp.NuggetPolicy(spec.Nugget))
	if err != nil {
		return nil, err
	}
	if err := model.Fit(); err != nil {
		return nil, fmt.Errorf("experiment: emulator fit: %w", err)
	}
	hp := model.Hyperparameters()
	logrus.Infof("emulator fitted: kernel=%s variance=%.4g lengthscales=%v noise=%.4g jitter=%.3g",
		spec.Kernel, hp.Variance, hp.Lengthscales, hp.NoiseVariance, hp.Jitter)

	// Fresh validation design on an isolated RNG stream.
	vlh, err := NewLatinHypercube(bounds, prng.ForSubsystem(SubsystemValidation))
	if err != nil {
		return nil, err
	}
	validation, err := vlh.Sample(spec.ValidationPoints)
	if err != nil {
		return nil, err
	}
	valRuns, err := RunRepeated(sim, validation, RunnerConfig{Repeats: spec.ValidationRepeats, Workers: spec.Workers, Stream: "validate"}, prng)
	if err != nil {
		return nil, err
	}

	mean, std, err := model.Predict(validation, spec.IncludeNugget)
	if err != nil {
		return nil, fmt.Errorf("experiment: emulator predict: %w", err)
	}

	records, summary, err := Compare(valRuns, mean, std)
	if err != nil {
		return nil, err
	}
	logrus.Infof("validation: %d points, RMSE=%.4g, 2-sigma coverage=%.0f%%",
		summary.Points, summary.RMSE, summary.Coverage*100)

	return &Result{
		DesignPoints:     design,
		TrainingRuns:     trainRuns,
		Hyperparameters:  hp,
		ValidationPoints: validation,
		ValidationRuns:   valRuns,
		PredMean:         mean,
		PredStd:          std,
		Records:          records,
		Summary:          summary,
	}, nil
}
