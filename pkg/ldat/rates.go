package ldat

import "github.com/itohio/goldat/pkg/lightsensor"

// Nominal sample rates in Hz measured on a XIAO SAMD21, indexed by
// [click][nobuffer][fast].
var sampleRates = [2][2][2]float64{
	// monitor
	{
		{8780.8, 29574.4},
		{7798, 21000},
	},
	// click
	{
		{8738.1, 28896},
		{7796, 20710},
	},
}

// SampleRate returns the nominal number of samples per second the firmware
// produces for the given options.
func SampleRate(flags lightsensor.Flags) float64 {
	m := flags.Mode()
	return sampleRates[b2i(m.Click())][b2i(!m.Buffered())][b2i(flags.ADCSpeed() == lightsensor.ADCFast)]
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
