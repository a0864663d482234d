package ldat

import (
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itohio/goldat/pkg/config"
	"github.com/itohio/goldat/pkg/lightsensor"
)

// Mock simulates an LDAT device by running the firmware light sensor core
// against a simulated board and screen.
type Mock struct {
	cfg      *config.MockConfig
	realtime bool

	samples   chan RawSample
	mu        sync.RWMutex
	connected bool
	session   *mockSession
	board     *simBoard
}

type mockSession struct {
	stop    atomic.Bool
	running chan struct{} // closed when the sensor returns
	done    chan struct{} // closed when the stream is fully decoded
}

// NewMock creates a new mocked device instance producing samples in real time.
// Samples are dropped when the consumer falls behind, as with a serial device.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		def := config.Default().Mock
		cfg = &def
	}

	return &Mock{
		cfg:      cfg,
		realtime: true,
		samples:  make(chan RawSample, DefaultBufferSize),
	}
}

// Connect simulates connecting to the device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}

	m.connected = true
	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.stopSession()
	m.connected = false
	close(m.samples)

	return nil
}

// Samples returns the channel for reading samples.
func (m *Mock) Samples() <-chan RawSample {
	return m.samples
}

// Start runs a light sensor session on the simulated board.
func (m *Mock) Start(flags lightsensor.Flags) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}
	if m.session != nil {
		return ErrBusy
	}

	board := newSimBoard(*m.cfg, SampleRate(flags), m.realtime)
	pr, pw := io.Pipe()
	s := &mockSession{
		running: make(chan struct{}),
		done:    make(chan struct{}),
	}

	sensor := lightsensor.New(board, simPort{Writer: pw, stop: &s.stop}, board, board)
	go func() {
		defer close(s.running)
		pw.CloseWithError(sensor.Run(flags))
	}()

	go func() {
		defer close(s.done)
		n, dropped, err := stream(pr, flags, time.Now(), m.samples, !m.realtime)
		if err != nil && !errors.Is(err, io.EOF) {
			log.Printf("Mock stream ended: %v", err)
		}
		if dropped > 0 {
			log.Printf("Samples channel full, dropped %d of %d samples", dropped, n)
		}
		// Unblock the sensor if the stream failed first.
		pr.Close()
	}()

	m.session = s
	m.board = board
	return nil
}

// Stop ends the running session and waits for its output.
func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}
	m.stopSession()
	return nil
}

func (m *Mock) stopSession() {
	s := m.session
	if s == nil {
		return
	}
	s.stop.Store(true)
	<-s.running
	<-s.done
	m.session = nil
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}
