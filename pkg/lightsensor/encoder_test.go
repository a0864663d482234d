package lightsensor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(b *SampleBuffer, start int) {
	for i := 0; !b.Full(); i++ {
		b.Add(Sample(start+i), uint8(i%2))
	}
}

func TestSampleBuffer_FillAndReset(t *testing.T) {
	b := NewModeBuffer(ModeBufferedClick)
	assert.Equal(t, SmallBufferSize, b.Cap())
	assert.True(t, b.HasButtons())

	for i := 0; i < SmallBufferSize-1; i++ {
		assert.False(t, b.Add(Sample(i), 0))
	}
	assert.True(t, b.Add(1023, 1))
	assert.Equal(t, SmallBufferSize, b.Len())
	assert.Equal(t, Sample(1023), b.Samples()[SmallBufferSize-1])

	b.Reset()
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Samples())

	mon := NewModeBuffer(ModeBufferedMonitor)
	assert.Equal(t, LargeBufferSize, mon.Cap())
	assert.False(t, mon.HasButtons())
	assert.Nil(t, mon.Buttons())
}

func TestBinaryEncoder_BufferedMonitorFrame(t *testing.T) {
	b := NewModeBuffer(ModeBufferedMonitor)
	fill(b, 500)

	var out bytes.Buffer
	require.NoError(t, NewBinaryEncoder().Encode(&out, b))
	require.Equal(t, LargeBufferSize*SampleSize, out.Len())

	frame := out.Bytes()
	for i := 0; i < LargeBufferSize; i++ {
		assert.Equal(t, uint16(500+i), binary.LittleEndian.Uint16(frame[i*2:]))
	}
}

func TestBinaryEncoder_BufferedClickFrameIsTwoRuns(t *testing.T) {
	b := NewModeBuffer(ModeBufferedClick)
	fill(b, 0x0102)

	var out bytes.Buffer
	require.NoError(t, NewBinaryEncoder().Encode(&out, b))
	require.Equal(t, SmallBufferSize*SampleSize+SmallBufferSize*ButtonSize, out.Len())

	frame := out.Bytes()
	assert.Equal(t, []byte{0x02, 0x01, 0x03, 0x01}, frame[:4])

	flags := frame[SmallBufferSize*SampleSize:]
	for i, f := range flags {
		assert.Equal(t, uint8(i%2), f, "button %d", i)
	}

	samples, buttons, err := DecodeBinary(ModeBufferedClick, frame)
	require.NoError(t, err)
	assert.Equal(t, b.Samples(), samples)
	assert.Equal(t, b.Buttons(), buttons)
}

func TestDecodeBinary_ShortFrame(t *testing.T) {
	_, _, err := DecodeBinary(ModeUnbufferedClick, []byte{1, 2})
	assert.True(t, errors.Is(err, ErrShortFrame))

	samples, buttons, err := DecodeBinary(ModeUnbufferedMonitor, []byte{0xFF, 0x03})
	require.NoError(t, err)
	assert.Equal(t, []Sample{1023}, samples)
	assert.Nil(t, buttons)
}

func TestDiagnosticEncoder(t *testing.T) {
	var out bytes.Buffer
	enc := NewDiagnosticEncoder()

	require.NoError(t, enc.Begin(&out, ModeUnbufferedClick))
	b := NewModeBuffer(ModeUnbufferedClick)
	b.Add(817, 1)
	require.NoError(t, enc.Encode(&out, b))
	assert.Equal(t, "Light,Click\r\n817,1\r\n", out.String())

	out.Reset()
	require.NoError(t, enc.Begin(&out, ModeBufferedMonitor))
	m := NewSampleBuffer(3, false)
	m.Add(1, 0)
	m.Add(22, 0)
	m.Add(333, 0)
	require.NoError(t, enc.Encode(&out, m))
	assert.Equal(t, "A0\r\n1\r\n22\r\n333\r\n", out.String())
}
