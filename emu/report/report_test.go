package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(actualMean, predMean, predStd float64, inBand bool) PointRecord {
	return PointRecord{
		Point:      []float64{0},
		Actual:     []float64{actualMean},
		ActualMean: actualMean,
		PredMean:   predMean,
		PredStd:    predStd,
		InBand:     inBand,
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Points)
	assert.Zero(t, s.RMSE)

	s = Summarize([]PointRecord{})
	assert.Equal(t, 0, s.Points)
}

func TestSummarize(t *testing.T) {
	records := []PointRecord{
		record(10, 10, 1, true),  // error 0
		record(10, 13, 1, false), // error 3
		record(10, 14, 1, false), // error 4
		record(20, 20, 1, true),  // error 0
	}

	s := Summarize(records)
	assert.Equal(t, 4, s.Points)
	assert.Equal(t, 0, s.MissingRuns)
	assert.InDelta(t, math.Sqrt(25.0/4.0), s.RMSE, 1e-12)
	assert.InDelta(t, 0.5, s.Coverage, 1e-12)
	// sorted abs errors: 0, 0, 3, 4
	assert.InDelta(t, 1.5, s.P50AbsErr, 1e-12)
	assert.InDelta(t, 3.7, s.P90AbsErr, 1e-12)
}

// Points with no usable runs count their missing repeats but stay out of
// the error statistics.
func TestSummarize_AllRunsMissing(t *testing.T) {
	records := []PointRecord{
		record(5, 5, 1, true),
		{Point: []float64{1}, Missing: 3},
	}

	s := Summarize(records)
	assert.Equal(t, 2, s.Points)
	assert.Equal(t, 3, s.MissingRuns)
	assert.Zero(t, s.RMSE)
	assert.Equal(t, 1.0, s.Coverage)
}

func TestSummarize_OnlyMissing(t *testing.T) {
	s := Summarize([]PointRecord{{Point: []float64{1}, Missing: 2}})
	assert.Equal(t, 1, s.Points)
	assert.Equal(t, 2, s.MissingRuns)
	assert.Zero(t, s.RMSE)
	assert.Zero(t, s.Coverage)
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 7.0, percentile([]float64{7}, 90))

	sorted := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.0, percentile(sorted, 0))
	assert.Equal(t, 4.0, percentile(sorted, 100))
	assert.InDelta(t, 2.5, percentile(sorted, 50), 1e-12)
	assert.InDelta(t, 3.7, percentile(sorted, 90), 1e-12)
}

func TestWriteJSONL(t *testing.T) {
	records := []PointRecord{
		record(10, 11, 0.5, true),
		{Point: []float64{2, 3}, Missing: 1, PredMean: 4},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, records))

	scanner := bufio.NewScanner(&buf)
	var got []PointRecord
	for scanner.Scan() {
		var rec PointRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		got = append(got, rec)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, got, 2)
	assert.Equal(t, records[0].ActualMean, got[0].ActualMean)
	assert.Equal(t, records[1].Missing, got[1].Missing)
	assert.Equal(t, records[1].Point, got[1].Point)
}
