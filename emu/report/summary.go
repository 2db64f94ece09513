package report

import (
	"math"
	"sort"
)

// Summary aggregates statistics over a set of PointRecords.
type Summary struct {
	Points      int     `json:"points"`
	MissingRuns int     `json:"missing_runs"`
	RMSE        float64 `json:"rmse"`     // prediction error vs per-point empirical means
	Coverage    float64 `json:"coverage"` // fraction of points with ActualMean in the ±2σ band
	P50AbsErr   float64 `json:"p50_abs_err"`
	P90AbsErr   float64 `json:"p90_abs_err"`
}

// Summarize computes aggregate statistics from comparison records.
// Safe for nil or empty input (returns zero-value fields). Points whose
// every run was missing contribute to MissingRuns but not to error stats.
func Summarize(records []PointRecord) *Summary {
	summary := &Summary{Points: len(records)}
	if len(records) == 0 {
		return summary
	}

	absErrs := make([]float64, 0, len(records))
	sumSq := 0.0
	covered := 0
	for _, rec := range records {
		summary.MissingRuns += rec.Missing
		if len(rec.Actual) == 0 {
			continue
		}
		err := rec.PredMean - rec.ActualMean
		sumSq += err * err
		absErrs = append(absErrs, math.Abs(err))
		if rec.InBand {
			covered++
		}
	}
	if len(absErrs) == 0 {
		return summary
	}

	summary.RMSE = math.Sqrt(sumSq / float64(len(absErrs)))
	summary.Coverage = float64(covered) / float64(len(absErrs))

	sort.Float64s(absErrs)
	summary.P50AbsErr = percentile(absErrs, 50)
	summary.P90AbsErr = percentile(absErrs, 90)
	return summary
}

// percentile computes the p-th percentile of sorted data by linear
// interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	if lowerIdx == upperIdx || upperIdx >= n {
		return sorted[lowerIdx]
	}
	return sorted[lowerIdx] + (sorted[upperIdx]-sorted[lowerIdx])*(rank-float64(lowerIdx))
}
