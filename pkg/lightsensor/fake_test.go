package lightsensor

import "bytes"

// fakeHW records every capability call. ReadADC returns the running read count.
type fakeHW struct {
	reads  int
	onRead func(n int)

	speed       ADCSpeed
	grounded    [2]bool
	buttonPower bool
	autofire    bool
	handler     func()
	attachErr   error
	autofireErr error
	level       bool

	attaches int
	detaches int
	releases int
	pulses   int
}

func (h *fakeHW) ConfigureADC(speed ADCSpeed) { h.speed = speed }

func (h *fakeHW) ReadADC() Sample {
	h.reads++
	if h.onRead != nil {
		h.onRead(h.reads)
	}
	return Sample(h.reads)
}

func (h *fakeHW) SetSenseTap(tap SenseTap, grounded bool) { h.grounded[tap] = grounded }
func (h *fakeHW) SetButtonPower(on bool)                  { h.buttonPower = on }

func (h *fakeHW) StartAutofire() error {
	if h.autofireErr != nil {
		return h.autofireErr
	}
	h.autofire = true
	return nil
}

func (h *fakeHW) AttachEdge(handler func()) error {
	if h.attachErr != nil {
		return h.attachErr
	}
	h.attaches++
	h.handler = handler
	return nil
}

func (h *fakeHW) DetachEdge() {
	h.detaches++
	h.handler = nil
}

func (h *fakeHW) EdgeLevel() bool { return h.level }

func (h *fakeHW) ReleasePins() {
	h.releases++
	h.buttonPower = false
	h.autofire = false
	h.grounded = [2]bool{}
}

func (h *fakeHW) DebugPulse() { h.pulses++ }

// edge sets the line level and fires the attached handler, as the interrupt would.
func (h *fakeHW) edge(high bool) {
	h.level = high
	if h.handler != nil {
		h.handler()
	}
}

type fakePort struct {
	bytes.Buffer
	stop   func() bool
	writes int
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.writes++
	return p.Buffer.Write(b)
}

func (p *fakePort) Buffered() int {
	if p.stop != nil && p.stop() {
		return 1
	}
	return 0
}

type fakeClock struct {
	ms uint32
}

func (c *fakeClock) Millis() uint32 { return c.ms }

type fakePointer struct {
	presses  int
	releases int
}

func (p *fakePointer) Press()   { p.presses++ }
func (p *fakePointer) Release() { p.releases++ }

// newFakeSensor wires a Sensor that stops after loopReads samples of the loop.
func newFakeSensor(loopReads int) (*Sensor, *fakeHW, *fakePort, *fakePointer, *fakeClock) {
	hw := &fakeHW{}
	port := &fakePort{stop: func() bool { return hw.reads >= DischargeReads+loopReads }}
	ptr := &fakePointer{}
	clk := &fakeClock{ms: 10000}
	return New(hw, port, ptr, clk), hw, port, ptr, clk
}
