package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gp-emu/gp-emu/emu"
	"github.com/gp-emu/gp-emu/emu/report"

	// Registered simulators.
	_ "github.com/gp-emu/gp-emu/emu/bus"
	_ "github.com/gp-emu/gp-emu/emu/projectile"
)

var (
	// CLI flags for the run subcommand; non-zero values override the spec
	specPath         string  // Path to the experiment spec YAML
	outPath          string  // Per-point comparison output (JSONL)
	seed             int64   // Seed override
	designPoints     int     // Design size override
	repeats          int     // Repeats-per-point override
	kernelName       string  // Kernel override
	nuggetPolicy     string  // Nugget policy override
	validationPoints int     // Validation size override
	workers          int     // Fan-out workers override
	errorSigma       float64 // Injected noise sigma override
)

// runCmd executes an emulation experiment from a YAML spec.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an emulation experiment",
	Long:  "Sample a Latin hypercube design, run the simulator repeatedly, fit a GP emulator and validate it against fresh simulation runs.",
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := emu.LoadExperimentSpec(specPath)
		if err != nil {
			logrus.Fatalf("Failed to load spec: %v", err)
		}
		applyOverrides(cmd, spec)

		startTime := time.Now()
		result, err := emu.RunExperiment(spec)
		if err != nil {
			logrus.Fatalf("Experiment failed: %v", err)
		}
		logrus.Infof("experiment finished in %v", time.Since(startTime).Round(time.Millisecond))

		printSummary(spec, result)

		if outPath != "" {
			if err := writeRecords(outPath, result.Records); err != nil {
				logrus.Fatalf("Failed to write %s: %v", outPath, err)
			}
			logrus.Infof("wrote %d comparison records to %s", len(result.Records), outPath)
		}
	},
}

// applyOverrides copies explicitly-set flags over the loaded spec.
func applyOverrides(cmd *cobra.Command, spec *emu.ExperimentSpec) {
	if cmd.Flags().Changed("seed") {
		spec.Seed = seed
	}
	if cmd.Flags().Changed("design-points") {
		spec.DesignPoints = designPoints
	}
	if cmd.Flags().Changed("repeats") {
		spec.Repeats = repeats
	}
	if cmd.Flags().Changed("kernel") {
		spec.Kernel = kernelName
	}
	if cmd.Flags().Changed("nugget") {
		spec.Nugget = nuggetPolicy
	}
	if cmd.Flags().Changed("validation-points") {
		spec.ValidationPoints = validationPoints
	}
	if cmd.Flags().Changed("workers") {
		spec.Workers = workers
	}
	if cmd.Flags().Changed("error-sigma") {
		spec.ErrorSigma = errorSigma
	}
}

func printSummary(spec *emu.ExperimentSpec, result *emu.Result) {
	hp := result.Hyperparameters
	fmt.Printf("simulator:       %s\n", spec.Simulator)
	fmt.Printf("design:          %d points x %d repeats\n", spec.DesignPoints, spec.Repeats)
	fmt.Printf("kernel:          %s (nugget=%s)\n", spec.Kernel, spec.Nugget)
	fmt.Printf("variance:        %.6g\n", hp.Variance)
	fmt.Printf("lengthscales:    %v\n", hp.Lengthscales)
	if hp.NoiseVariance > 0 {
		fmt.Printf("noise variance:  %.6g\n", hp.NoiseVariance)
	}
	if hp.Jitter > 0 {
		fmt.Printf("jitter:          %.3g\n", hp.Jitter)
	}
	s := result.Summary
	fmt.Printf("validation:      %d points, %d missing runs\n", s.Points, s.MissingRuns)
	fmt.Printf("rmse:            %.6g\n", s.RMSE)
	fmt.Printf("p50/p90 |err|:   %.6g / %.6g\n", s.P50AbsErr, s.P90AbsErr)
	fmt.Printf("2-sigma cover:   %.0f%%\n", s.Coverage*100)
}

func writeRecords(path string, records []report.PointRecord) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logrus.Errorf("Error closing file %s: %v", path, closeErr)
		}
	}()
	return report.WriteJSONL(f, records)
}

func init() {
	runCmd.Flags().StringVar(&specPath, "spec", "", "Path to experiment spec YAML")
	_ = runCmd.MarkFlagRequired("spec")
	runCmd.Flags().StringVar(&outPath, "out", "", "Write per-point comparison records to this JSONL file")

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for design sampling and simulator noise")
	runCmd.Flags().IntVar(&designPoints, "design-points", 0, "Number of Latin hypercube design points")
	runCmd.Flags().IntVar(&repeats, "repeats", 0, "Simulator runs per design point")
	runCmd.Flags().StringVar(&kernelName, "kernel", "", "Kernel (rbf, matern52, matern32)")
	runCmd.Flags().StringVar(&nuggetPolicy, "nugget", "", "Nugget policy (none, adaptive, fit)")
	runCmd.Flags().IntVar(&validationPoints, "validation-points", 0, "Number of fresh validation points")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Parallel simulator workers (0 = sequential)")
	runCmd.Flags().Float64Var(&errorSigma, "error-sigma", 0, "Injected measurement noise sigma")

	rootCmd.AddCommand(runCmd)
}
