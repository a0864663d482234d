package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/itohio/goldat/pkg/latency"
	"github.com/itohio/goldat/pkg/sample"
)

var csvHeader = []string{"index", "time_us", "raw", "click"}

// writeCSV writes one row per sample. Time is relative to the first sample.
func writeCSV(w io.Writer, samples []sample.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	row := make([]string, len(csvHeader))
	for _, s := range samples {
		row[0] = strconv.FormatInt(s.Index, 10)
		row[1] = strconv.FormatInt(s.Timestamp.Sub(samples[0].Timestamp).Microseconds(), 10)
		row[2] = strconv.FormatUint(uint64(s.Raw), 10)
		row[3] = "0"
		if s.Click {
			row[3] = "1"
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func printResult(w io.Writer, r *latency.Result) {
	fmt.Fprintf(w, "clicks:      %d (%d matched)\n", len(r.Clicks), len(r.Times))
	fmt.Fprintf(w, "black level: %.0f (thresholds %.0f / %.0f, peak %.0f)\n", r.Black, r.WhiteThreshold, r.BlackThreshold, r.Peak)
	fmt.Fprintf(w, "latency ms:  p33 %.2f  p50 %.2f  p66 %.2f\n", r.P33, r.P50, r.P66)
	fmt.Fprintf(w, "             min %.2f  max %.2f  mean %.2f\n", r.Min, r.Max, r.Mean)
}
