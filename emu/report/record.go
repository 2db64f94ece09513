// Package report provides per-point emulator-vs-simulator comparison
// records and their aggregate summaries. It has no dependencies on emu/ or
// the simulator sub-packages — it stores pure data types.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// PointRecord captures one validation point: the repeated simulator
// outputs observed there and the emulator's prediction.
type PointRecord struct {
	Point      []float64 `json:"point"`
	Actual     []float64 `json:"actual"`      // usable repeated-run outputs, run order
	Missing    int       `json:"missing"`     // runs without a usable output
	ActualMean float64   `json:"actual_mean"` // empirical mean of Actual
	ActualStd  float64   `json:"actual_std"`  // empirical stddev of Actual
	PredMean   float64   `json:"pred_mean"`
	PredStd    float64   `json:"pred_std"`
	InBand     bool      `json:"in_band"` // ActualMean within PredMean ± 2·PredStd
}

// WriteJSONL writes one record per line, matching the order given.
func WriteJSONL(w io.Writer, records []PointRecord) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("report: encoding record %d: %w", i, err)
		}
	}
	return bw.Flush()
}
