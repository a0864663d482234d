package lightsensor

// DischargeReads is the number of conversions thrown away after configuring the front end.
const DischargeReads = 100

// Gain is the 2-bit sensitivity code: HIGHSENS2 is the high bit, HIGHSENS1 the low bit.
//
//	HS2 HS1  gain  resistance sensor- to gnd
//	 0   0   low   14.3k (330k, 47k, 22k)
//	 0   1   mid   20.6k (330k, 22k)
//	 1   0   high  41.1k (330k, 47k)
//	 1   1   max   330k  (330k)
type Gain uint8

const (
	GainLow Gain = iota
	GainMid
	GainHigh
	GainMax
)

var gainOhms = [...]uint32{14300, 20600, 41100, 330000}

// Resistance returns the effective sense resistance in ohms.
func (g Gain) Resistance() uint32 {
	return gainOhms[g&3]
}

func (g Gain) String() string {
	switch g & 3 {
	case GainLow:
		return "low"
	case GainMid:
		return "mid"
	case GainHigh:
		return "high"
	}
	return "max"
}

// ConfigureFrontEnd selects converter speed and divider taps for flags, then bleeds
// residual charge with DischargeReads discarded conversions.
func ConfigureFrontEnd(hw Hardware, flags Flags) {
	hw.ConfigureADC(flags.ADCSpeed())

	// A set HIGHSENS bit releases its resistor, raising the sense resistance.
	g := flags.Gain()
	hw.SetSenseTap(Tap47k, g&1 == 0)
	hw.SetSenseTap(Tap22k, g&2 == 0)

	for i := 0; i < DischargeReads; i++ {
		hw.ReadADC()
	}
}
