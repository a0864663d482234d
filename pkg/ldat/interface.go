package ldat

import (
	"errors"

	"github.com/itohio/goldat/pkg/lightsensor"
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	// ErrBusy is returned when a session is started while another one runs.
	ErrBusy = errors.New("light sensor session already running")
	// ErrStillStreaming is returned when the device keeps sending after a stop request.
	ErrStillStreaming = errors.New("device did not stop streaming")
)

// Device defines the interface for LDAT devices (real or mocked).
//
// Samples are delivered on a single channel for the lifetime of the device.
// Start and Stop bracket one light sensor session on that channel.
type Device interface {
	Connect() error
	Close() error
	Start(flags lightsensor.Flags) error
	Stop() error
	Samples() <-chan RawSample
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
