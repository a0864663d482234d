package lightsensor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrShortFrame is returned when a frame is smaller than its mode requires.
var ErrShortFrame = errors.New("lightsensor: short frame")

// Encoder turns flushed buffers into bytes on the serial channel.
type Encoder interface {
	// Begin is called once before the first flush of a session.
	Begin(w io.Writer, m Mode) error

	// Encode writes one full buffer.
	Encode(w io.Writer, b *SampleBuffer) error
}

// BinaryEncoder writes little-endian 16-bit samples followed, in click modes, by the
// button bytes as a separate run. There is no header, length or checksum.
type BinaryEncoder struct {
	scratch [LargeBufferSize * SampleSize]byte
}

// NewBinaryEncoder returns the operational encoder.
func NewBinaryEncoder() *BinaryEncoder {
	return &BinaryEncoder{}
}

func (e *BinaryEncoder) Begin(io.Writer, Mode) error {
	return nil
}

func (e *BinaryEncoder) Encode(w io.Writer, b *SampleBuffer) error {
	frame := AppendBinary(e.scratch[:0], b)
	_, err := w.Write(frame)
	return err
}

// AppendBinary appends the binary layout of b to dst.
func AppendBinary(dst []byte, b *SampleBuffer) []byte {
	for _, s := range b.Samples() {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return append(dst, b.Buttons()...)
}

// DecodeBinary splits one binary frame of mode m into samples and button bytes.
// buttons is nil for monitor modes.
func DecodeBinary(m Mode, frame []byte) (samples []Sample, buttons []uint8, err error) {
	if len(frame) < m.FrameSize() {
		return nil, nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortFrame, m, m.FrameSize(), len(frame))
	}
	n := m.Capacity()
	samples = make([]Sample, n)
	for i := range samples {
		samples[i] = Sample(binary.LittleEndian.Uint16(frame[i*SampleSize:]))
	}
	if m.Click() {
		buttons = make([]uint8, n)
		copy(buttons, frame[n*SampleSize:n*(SampleSize+ButtonSize)])
	}
	return samples, buttons, nil
}

// DiagnosticEncoder writes one comma-separated decimal row per sample, preceded by
// a header line naming the columns. Ordering matches the binary layout.
type DiagnosticEncoder struct {
	line []byte
}

// NewDiagnosticEncoder returns the human-readable encoder.
func NewDiagnosticEncoder() *DiagnosticEncoder {
	return &DiagnosticEncoder{line: make([]byte, 0, 16)}
}

func (e *DiagnosticEncoder) Begin(w io.Writer, m Mode) error {
	header := "A0\r\n"
	if m.Click() {
		header = "Light,Click\r\n"
	}
	_, err := io.WriteString(w, header)
	return err
}

func (e *DiagnosticEncoder) Encode(w io.Writer, b *SampleBuffer) error {
	buttons := b.Buttons()
	for i, s := range b.Samples() {
		e.line = strconv.AppendInt(e.line[:0], int64(s), 10)
		if buttons != nil {
			e.line = append(e.line, ',')
			e.line = strconv.AppendUint(e.line, uint64(buttons[i]), 10)
		}
		e.line = append(e.line, '\r', '\n')
		if _, err := w.Write(e.line); err != nil {
			return err
		}
	}
	return nil
}
