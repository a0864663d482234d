package ldat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/itohio/goldat/pkg/lightsensor"
)

// RawSample represents one light sample from the MCU.
type RawSample struct {
	Timestamp time.Time
	Index     int64  // Sample number within the session
	Light     uint16 // 10-bit ADC reading (0-1023)
	Click     bool   // Edge consumed with this sample (click modes only)
}

// Decoder reads fixed-size binary frames of a single mode.
type Decoder struct {
	r     io.Reader
	mode  lightsensor.Mode
	frame []byte
}

// NewDecoder creates a decoder for frames of mode m read from r.
func NewDecoder(r io.Reader, m lightsensor.Mode) *Decoder {
	return &Decoder{
		r:     bufio.NewReaderSize(r, 4096),
		mode:  m,
		frame: make([]byte, m.FrameSize()),
	}
}

// Decode blocks until a full frame is read. A trailing partial frame is
// reported as io.ErrUnexpectedEOF.
func (d *Decoder) Decode() ([]lightsensor.Sample, []uint8, error) {
	if _, err := io.ReadFull(d.r, d.frame); err != nil {
		return nil, nil, err
	}
	return lightsensor.DecodeBinary(d.mode, d.frame)
}

// stream decodes a session and forwards timestamped samples to out until r
// fails. Unless block is set, samples are dropped when out is full. It
// returns the number of samples decoded and dropped.
func stream(r io.Reader, flags lightsensor.Flags, start time.Time, out chan<- RawSample, block bool) (n, dropped int64, err error) {
	dec := NewDecoder(r, flags.Mode())
	rate := SampleRate(flags)

	for {
		samples, buttons, err := dec.Decode()
		if err != nil {
			return n, dropped, err
		}

		for i, s := range samples {
			raw := RawSample{
				Timestamp: start.Add(time.Duration(float64(n) / rate * float64(time.Second))),
				Index:     n,
				Light:     uint16(s),
			}
			if buttons != nil {
				raw.Click = buttons[i] != 0
			}
			n++

			if block {
				out <- raw
				continue
			}
			select {
			case out <- raw:
			default:
				dropped++
			}
		}
	}
}

// contextReader stops a reader configured with a read timeout once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	for {
		if err := c.ctx.Err(); err != nil {
			return 0, err
		}
		n, err := c.r.Read(p)
		if n > 0 || err != nil {
			return n, err
		}
	}
}

// drain discards input until nothing arrives for quiet, giving up with
// ErrStillStreaming after limit. r must return (0, nil) on a read timeout.
func drain(r io.Reader, quiet, limit time.Duration) (int, error) {
	buf := make([]byte, 512)
	total := 0
	start := time.Now()
	last := start
	for time.Since(last) < quiet {
		if time.Since(start) >= limit {
			return total, fmt.Errorf("drain: %w after %s", ErrStillStreaming, limit)
		}
		n, err := r.Read(buf)
		if err != nil {
			return total, fmt.Errorf("drain: %w", err)
		}
		if n > 0 {
			total += n
			last = time.Now()
		}
	}
	return total, nil
}
