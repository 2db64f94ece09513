package cmd

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gp-emu/gp-emu/emu"
)

var (
	designLower   []float64 // Lower bound per dimension
	designUpper   []float64 // Upper bound per dimension
	designCount   int       // Number of points
	designRepeats int       // Consecutive duplicates per point
	designSeed    int64     // Sampling seed
)

// designCmd samples a Latin hypercube design and prints it as CSV.
var designCmd = &cobra.Command{
	Use:   "design",
	Short: "Sample a Latin hypercube design",
	Long:  "Sample a space-filling design over the given per-dimension bounds and print the points as CSV to stdout.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(designLower) != len(designUpper) {
			logrus.Fatalf("Got %d lower bounds and %d upper bounds", len(designLower), len(designUpper))
		}
		bounds := make([]emu.Bound, len(designLower))
		for i := range designLower {
			b, err := emu.NewBound(designLower[i], designUpper[i])
			if err != nil {
				logrus.Fatalf("Dimension %d: %v", i, err)
			}
			bounds[i] = b
		}

		lh, err := emu.NewLatinHypercube(bounds, rand.New(rand.NewSource(designSeed)))
		if err != nil {
			logrus.Fatalf("Failed to build sampler: %v", err)
		}
		points, err := lh.Sample(designCount)
		if err != nil {
			logrus.Fatalf("Sampling failed: %v", err)
		}
		if designRepeats > 1 {
			points, err = emu.Repeat(points, designRepeats)
			if err != nil {
				logrus.Fatalf("Repeat failed: %v", err)
			}
		}

		for _, p := range points {
			fields := make([]string, len(p))
			for d, v := range p {
				fields[d] = fmt.Sprintf("%g", v)
			}
			fmt.Println(strings.Join(fields, ","))
		}
	},
}

func init() {
	designCmd.Flags().Float64SliceVar(&designLower, "lower", []float64{0}, "Comma-separated lower bound per dimension")
	designCmd.Flags().Float64SliceVar(&designUpper, "upper", []float64{1}, "Comma-separated upper bound per dimension")
	designCmd.Flags().IntVar(&designCount, "count", 10, "Number of design points")
	designCmd.Flags().IntVar(&designRepeats, "repeats", 1, "Consecutive duplicates per point")
	designCmd.Flags().Int64Var(&designSeed, "seed", 42, "Seed for stratum permutation")

	rootCmd.AddCommand(designCmd)
}
