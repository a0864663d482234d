package ldat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/itohio/goldat/pkg/lightsensor"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// DefaultBaudRate is ignored by the USB CDC port but required to open it.
	DefaultBaudRate = 2000000
	// DefaultBufferSize is the default size for the samples channel buffer.
	DefaultBufferSize = 1 << 15
	// DrainQuiet is how long the port must stay silent after a stop request.
	DrainQuiet = 100 * time.Millisecond
	// DrainLimit bounds the whole drain when the device ignores the stop request.
	DrainLimit = 10 * DrainQuiet

	readTimeout = 20 * time.Millisecond
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
	IsUSB       bool
}

// Serial represents a connection to the LDAT MCU.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	samples   chan RawSample
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	session   *session
}

type session struct {
	flags  lightsensor.Flags
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new Device instance with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		samples:  make(chan RawSample, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(details))
	for _, d := range details {
		desc := d.Name
		if d.IsUSB {
			desc = fmt.Sprintf("%s (%s:%s %s)", d.Name, d.VID, d.PID, d.Product)
		}
		result = append(result, Port{
			Name:        d.Name,
			Description: desc,
			IsUSB:       d.IsUSB,
		})
	}

	return result, nil
}

// Connect opens the serial port. Sampling starts with Start.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	// Discard whatever an interrupted session left behind.
	if n, err := drain(port, DrainQuiet, DrainLimit); err != nil {
		log.Printf("Error draining serial port: %v", err)
	} else if n > 0 {
		log.Printf("Discarded %d stale bytes from %s", n, d.port)
	}

	return nil
}

// Close stops any running session, closes the connection and the samples channel.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	if d.session != nil {
		if _, err := d.conn.Write([]byte{lightsensor.CommandIdle, 0}); err != nil {
			log.Printf("Error sending idle command: %v", err)
		}
	}

	// Cancel context to stop reading goroutine
	d.cancel()
	if d.session != nil {
		<-d.session.done
		d.session = nil
	}

	// Close serial port
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	// Close samples channel
	close(d.samples)

	return nil
}

// Samples returns the channel for reading samples.
func (d *Serial) Samples() <-chan RawSample {
	return d.samples
}

// Start sends the light sensor command and begins decoding its stream.
func (d *Serial) Start(flags lightsensor.Flags) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return ErrNotConnected
	}
	if d.session != nil {
		return ErrBusy
	}

	if _, err := d.conn.Write([]byte{lightsensor.CommandLightSensor, byte(flags)}); err != nil {
		return fmt.Errorf("failed to send light sensor command: %w", err)
	}

	ctx, cancel := context.WithCancel(d.ctx)
	s := &session{
		flags:  flags,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	d.session = s

	go d.readSamples(ctx, s)

	log.Printf("Light sensor started: %s (%s, %.0f Hz)", flags, flags.Mode(), SampleRate(flags))
	return nil
}

// Stop asks the firmware to end the session and waits until its output
// has drained.
func (d *Serial) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return ErrNotConnected
	}
	s := d.session
	if s == nil {
		return nil
	}
	d.session = nil

	// Any byte received by the firmware ends the session. The idle command
	// is then consumed by its command loop.
	_, werr := d.conn.Write([]byte{lightsensor.CommandIdle, 0})

	s.cancel()
	<-s.done

	n, err := drain(d.conn, DrainQuiet, DrainLimit)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Printf("Discarded %d trailing bytes", n)
	}

	if werr != nil {
		return fmt.Errorf("failed to send idle command: %w", werr)
	}
	return nil
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readSamples decodes frames from the serial port until the session is cancelled.
func (d *Serial) readSamples(ctx context.Context, s *session) {
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readSamples: %v", r)
		}
	}()

	n, dropped, err := stream(contextReader{ctx: ctx, r: d.conn}, s.flags, time.Now(), d.samples, false)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		log.Printf("Error reading from serial port: %v", err)
	}
	if dropped > 0 {
		log.Printf("Samples channel full, dropped %d of %d samples", dropped, n)
	}
}
