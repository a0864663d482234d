package lightsensor

// Flags is the option byte sent by the host together with CommandLightSensor.
// It is read once when a session starts and never changes during it.
type Flags uint8

const (
	FlagAutofire  Flags = 1 << 0 // replace the button with a ~1Hz synthetic edge source
	FlagNoBuffer  Flags = 1 << 1 // transmit every sample as soon as it is read
	FlagHighSens1 Flags = 1 << 2 // gain code, low bit
	FlagMonitor   Flags = 1 << 3 // light samples only, no button handling at all
	FlagNoClick   Flags = 1 << 4 // report button state but never emit pointer events
	FlagFastADC   Flags = 1 << 5 // ~26us conversions instead of ~104us
	FlagHighSens2 Flags = 1 << 6 // gain code, high bit
)

// Has reports whether all bits of f are set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

// Mode returns the sampling strategy. Only NOBUFFER and MONITOR take part in the choice.
func (fl Flags) Mode() Mode {
	switch {
	case fl.Has(FlagNoBuffer) && fl.Has(FlagMonitor):
		return ModeUnbufferedMonitor
	case fl.Has(FlagNoBuffer):
		return ModeUnbufferedClick
	case fl.Has(FlagMonitor):
		return ModeBufferedMonitor
	default:
		return ModeBufferedClick
	}
}

// Gain returns the 2-bit gain code formed by HIGHSENS2 (msb) and HIGHSENS1 (lsb).
func (fl Flags) Gain() Gain {
	var g Gain
	if fl.Has(FlagHighSens1) {
		g |= 1
	}
	if fl.Has(FlagHighSens2) {
		g |= 2
	}
	return g
}

// ADCSpeed returns the converter timing selected by FASTADC.
func (fl Flags) ADCSpeed() ADCSpeed {
	if fl.Has(FlagFastADC) {
		return ADCFast
	}
	return ADCAccurate
}

// EdgeSource returns which edge handler variant a session attaches, and false in
// monitor mode where no interrupt is attached.
func (fl Flags) EdgeSource() (EdgeKind, bool) {
	if fl.Has(FlagMonitor) {
		return 0, false
	}
	noClick := fl.Has(FlagNoClick)
	switch {
	case fl.Has(FlagAutofire) && noClick:
		return EdgeAutofireNoClick, true
	case fl.Has(FlagAutofire):
		return EdgeAutofire, true
	case noClick:
		return EdgeDebouncedNoClick, true
	default:
		return EdgeDebounced, true
	}
}

var flagNames = [...]string{"AUTOFIRE", "NOBUFFER", "HIGHSENS1", "MONITOR", "NOCLICK", "FASTADC", "HIGHSENS2"}

func (fl Flags) String() string {
	if fl == 0 {
		return "0"
	}
	s := ""
	for i, name := range flagNames {
		if fl&(1<<i) == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += name
	}
	if fl&0x80 != 0 {
		if s != "" {
			s += "|"
		}
		s += "BIT7"
	}
	return s
}

// Mode is one of the four sampling strategies of a session.
type Mode uint8

const (
	ModeUnbufferedClick Mode = iota
	ModeUnbufferedMonitor
	ModeBufferedMonitor
	ModeBufferedClick
)

// Buffer capacities. Click slots cost an extra byte on the wire, hence the smaller size.
const (
	LargeBufferSize = 32
	SmallBufferSize = 21
)

// Buffered reports whether samples are batched before transmission.
func (m Mode) Buffered() bool {
	return m == ModeBufferedMonitor || m == ModeBufferedClick
}

// Click reports whether the mode carries a button byte per sample.
func (m Mode) Click() bool {
	return m == ModeUnbufferedClick || m == ModeBufferedClick
}

// Capacity is the number of samples per flush. Unbuffered modes flush every sample.
func (m Mode) Capacity() int {
	switch m {
	case ModeBufferedMonitor:
		return LargeBufferSize
	case ModeBufferedClick:
		return SmallBufferSize
	default:
		return 1
	}
}

// FrameSize is the number of bytes one binary flush puts on the wire.
func (m Mode) FrameSize() int {
	n := m.Capacity() * SampleSize
	if m.Click() {
		n += m.Capacity() * ButtonSize
	}
	return n
}

func (m Mode) String() string {
	switch m {
	case ModeUnbufferedClick:
		return "unbuffered-click"
	case ModeUnbufferedMonitor:
		return "unbuffered-monitor"
	case ModeBufferedMonitor:
		return "buffered-monitor"
	case ModeBufferedClick:
		return "buffered-click"
	}
	return "unknown"
}
