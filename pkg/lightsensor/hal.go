package lightsensor

import "io"

// Sample is one raw light reading in the converter's native range (0-1023 for 10 bits).
type Sample int16

// Wire sizes of a sample and of a button byte.
const (
	SampleSize = 2
	ButtonSize = 1
)

// ADCSpeed selects the converter clock prescaler.
type ADCSpeed uint8

const (
	ADCAccurate ADCSpeed = iota // ~104us per conversion
	ADCFast                     // ~26us per conversion, noisier
)

func (s ADCSpeed) String() string {
	if s == ADCFast {
		return "fast"
	}
	return "accurate"
}

// SenseTap identifies one of the two divider resistors that can be grounded to lower gain.
type SenseTap uint8

const (
	Tap47k SenseTap = iota // controlled by HIGHSENS1
	Tap22k                 // controlled by HIGHSENS2
)

// Hardware is the board capability set used by a session.
// Implementations map it onto pins, the converter and a timer; tests use a fake.
type Hardware interface {
	// ConfigureADC sets the conversion speed of the light sensor channel.
	ConfigureADC(speed ADCSpeed)

	// ReadADC performs one conversion and blocks until it completes.
	ReadADC() Sample

	// SetSenseTap grounds a divider tap (true) or releases it to high impedance (false).
	SetSenseTap(tap SenseTap, grounded bool)

	// SetButtonPower energizes the physical button.
	SetButtonPower(on bool)

	// StartAutofire starts the periodic ~1Hz toggle that replaces the button.
	StartAutofire() error

	// AttachEdge installs handler on both edges of the button/autofire line.
	AttachEdge(handler func()) error

	// DetachEdge removes the edge handler, if any.
	DetachEdge()

	// EdgeLevel reads the current level of the button/autofire line.
	EdgeLevel() bool

	// ReleasePins de-energizes button power and autofire and returns every
	// session pin to high impedance.
	ReleasePins()

	// DebugPulse toggles the scope timing pin. May be a no-op.
	DebugPulse()
}

// Pointer is the platform pointer service used to synthesize clicks.
type Pointer interface {
	Press()
	Release()
}

// Clock is a free-running monotonic millisecond counter that may wrap.
type Clock interface {
	Millis() uint32
}

// Port is the serial channel to the host.
type Port interface {
	io.Writer

	// Buffered returns the number of bytes received from the host and not yet read.
	Buffered() int
}

type nopPointer struct{}

func (nopPointer) Press()   {}
func (nopPointer) Release() {}
