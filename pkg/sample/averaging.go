package sample

import (
	"github.com/itohio/goldat/pkg/ldat"
)

// NewAveragingConverter creates a converter that averages blocks of windowSize
// consecutive RawSamples into one Sample. A block reports a click if any of
// its samples does, so clicks survive the reduced rate.
func NewAveragingConverter(windowSize int, bufSize int) Converter {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan ldat.RawSample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			buffer := make([]ldat.RawSample, 0, windowSize)
			for raw := range in {
				buffer = append(buffer, raw)
				if len(buffer) < windowSize {
					continue
				}
				out <- averageAndConvertSamples(buffer)
				buffer = buffer[:0]
			}

			// Input closed, output any remaining samples
			if len(buffer) > 0 {
				out <- averageAndConvertSamples(buffer)
			}
		}()

		return out
	}
}

// averageAndConvertSamples averages a slice of RawSamples and converts to Sample.
// Uses the most recent sample's timestamp and index.
func averageAndConvertSamples(samples []ldat.RawSample) Sample {
	if len(samples) == 0 {
		return Sample{}
	}

	var sum uint32
	var click bool
	lastSample := samples[len(samples)-1]

	for _, s := range samples {
		sum += uint32(s.Light)
		click = click || s.Click
	}

	n := uint32(len(samples))
	avgRaw := ldat.RawSample{
		Timestamp: lastSample.Timestamp,
		Index:     lastSample.Index,
		Light:     uint16((sum + n/2) / n), // Round to nearest
		Click:     click,
	}

	return convertSample(avgRaw)
}
