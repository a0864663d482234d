// Package lightsensor samples the optical latency sensor and streams it to the host,
// optionally fused with debounced button presses that are also turned into clicks.
package lightsensor

import "fmt"

// Outer protocol command bytes. Only CommandLightSensor is handled here.
const (
	CommandLightSensor byte = 0x4C // 'L'
	CommandIdle        byte = 0x49 // 'I', what the host sends to stop a session
)

// Sensor owns the light sensor subsystem of the board.
type Sensor struct {
	hw      Hardware
	port    Port
	pointer Pointer
	clock   Clock
	encoder Encoder

	edges   EdgeChannel
	handler *EdgeHandler
}

// New returns a Sensor using the binary encoder. pointer may be nil when the board
// has no pointer service; clicks are then dropped.
func New(hw Hardware, port Port, pointer Pointer, clock Clock) *Sensor {
	if pointer == nil {
		pointer = nopPointer{}
	}
	return &Sensor{
		hw:      hw,
		port:    port,
		pointer: pointer,
		clock:   clock,
		encoder: NewBinaryEncoder(),
	}
}

// SetEncoder replaces the encoder used by subsequent sessions.
func (s *Sensor) SetEncoder(e Encoder) {
	s.encoder = e
}

// Initialize puts every session pin in its safe state. Call once at boot.
func (s *Sensor) Initialize() {
	s.hw.DetachEdge()
	s.hw.ReleasePins()
}

// Command runs a session when cmd is CommandLightSensor and ignores anything else.
// It blocks until the host sends a byte and never reports failure.
func (s *Sensor) Command(cmd, flags byte) {
	switch cmd {
	case CommandLightSensor:
		_ = s.Run(Flags(flags))
	default:
	}
}

// Run performs one complete session: front-end configuration, edge source attach,
// the sampling loop and teardown. Teardown runs on every return path.
func (s *Sensor) Run(flags Flags) error {
	defer s.teardown()

	ConfigureFrontEnd(s.hw, flags)

	if err := s.attach(flags); err != nil {
		return err
	}

	return s.loop(flags.Mode())
}

func (s *Sensor) attach(flags Flags) error {
	kind, ok := flags.EdgeSource()
	if !ok {
		return nil
	}
	if kind == EdgeAutofire || kind == EdgeAutofireNoClick {
		if err := s.hw.StartAutofire(); err != nil {
			return fmt.Errorf("start autofire: %w", err)
		}
	} else {
		s.hw.SetButtonPower(true)
	}

	s.edges.Reset()
	s.handler = NewEdgeHandler(kind, s.hw, s.clock, s.pointer, &s.edges)
	if err := s.hw.AttachEdge(s.handler.Handle); err != nil {
		return fmt.Errorf("attach %s edge handler: %w", kind, err)
	}
	return nil
}

// stopRequested is the only cancellation point: any byte from the host ends the session.
func (s *Sensor) stopRequested() bool {
	return s.port.Buffered() > 0
}

// loop samples until the host asks to stop. A partially filled buffer is dropped.
func (s *Sensor) loop(m Mode) error {
	buf := NewModeBuffer(m)
	click := m.Click()

	if err := s.encoder.Begin(s.port, m); err != nil {
		return err
	}

	for !s.stopRequested() {
		v := s.hw.ReadADC()
		var pressed uint8
		if click {
			pressed = s.edges.Take()
		}
		if !buf.Add(v, pressed) {
			continue
		}

		s.hw.DebugPulse()
		err := s.encoder.Encode(s.port, buf)
		buf.Reset()
		s.hw.DebugPulse()
		if err != nil {
			return fmt.Errorf("flush %s buffer: %w", m, err)
		}
	}
	return nil
}

func (s *Sensor) teardown() {
	s.hw.DetachEdge()
	s.hw.ReleasePins()
	s.handler = nil
}
