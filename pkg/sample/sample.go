package sample

import (
	"log"
	"time"

	"github.com/itohio/goldat/pkg/ldat"
)

const (
	// ADCMax is the full scale reading of the 10-bit light ADC.
	ADCMax = 1023
	// VRef is the ADC reference voltage.
	VRef = 3.3
)

// Sample represents a processed light sample.
type Sample struct {
	Timestamp time.Time
	Index     int64
	Raw       uint16  // ADC counts
	Level     float64 // Light level as a fraction of full scale (0-1)
	Voltage   float64 // Photodiode amplifier output (V)
	Click     bool
}

// Converter is a function type that converts RawSample channel to Sample channel.
type Converter func(in <-chan ldat.RawSample) <-chan Sample

// NewConverter creates a converter function that transforms RawSample to Sample.
func NewConverter(bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan ldat.RawSample) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for raw := range in {
				select {
				case out <- convertSample(raw):
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// convertSample converts a RawSample to Sample.
func convertSample(raw ldat.RawSample) Sample {
	return Sample{
		Timestamp: raw.Timestamp,
		Index:     raw.Index,
		Raw:       raw.Light,
		Level:     float64(raw.Light) / ADCMax,
		Voltage:   adcToVoltage(raw.Light, VRef),
		Click:     raw.Click,
	}
}

// adcToVoltage converts a 10-bit ADC reading to voltage.
func adcToVoltage(adc uint16, vref float64) float64 {
	return (float64(adc) / ADCMax) * vref
}
