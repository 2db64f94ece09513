package emu

import (
	"fmt"
	"math"

	"github.com/gp-emu/gp-emu/emu/report"
)

// Compare pairs emulator predictions with the repeated simulator runs at
// the same validation points. mean and std must be indexed like runs.Runs.
// The per-point records keep every raw (actual, predicted) pair so callers
// can compute whatever score they need on top of the returned summary.
func Compare(runs *RunSet, mean, std []float64) ([]report.PointRecord, *report.Summary, error) {
	if runs == nil {
		return nil, nil, fmt.Errorf("compare: run set is required")
	}
	if len(mean) != len(runs.Runs) || len(std) != len(runs.Runs) {
		return nil, nil, fmt.Errorf("compare: %d predictions for %d validation points", len(mean), len(runs.Runs))
	}

	records := make([]report.PointRecord, len(runs.Runs))
	for i, pr := range runs.Runs {
		point := make([]float64, len(pr.Point))
		copy(point, pr.Point)
		rec := report.PointRecord{
			Point:    point,
			Actual:   pr.Values(),
			Missing:  pr.Missing(),
			PredMean: mean[i],
			PredStd:  std[i],
		}
		if m, ok := pr.Mean(); ok {
			rec.ActualMean = m
			s, _ := pr.StdDev()
			rec.ActualStd = s
			rec.InBand = math.Abs(m-mean[i]) <= 2*std[i]
		}
		records[i] = rec
	}
	return records, report.Summarize(records), nil
}
