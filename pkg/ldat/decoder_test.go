package ldat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/itohio/goldat/pkg/lightsensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeFrames(t *testing.T, m lightsensor.Mode, frames int, click func(i int) bool) []byte {
	t.Helper()
	var out bytes.Buffer
	enc := lightsensor.NewBinaryEncoder()
	buf := lightsensor.NewModeBuffer(m)
	i := 0
	for f := 0; f < frames; f++ {
		for !buf.Full() {
			var b uint8
			if click != nil && click(i) {
				b = 1
			}
			buf.Add(lightsensor.Sample(i%1024), b)
			i++
		}
		require.NoError(t, enc.Encode(&out, buf))
		buf.Reset()
	}
	return out.Bytes()
}

func TestSampleRate(t *testing.T) {
	tests := []struct {
		name  string
		flags lightsensor.Flags
		want  float64
	}{
		{"buffered click", 0, 8738.1},
		{"buffered click fast", lightsensor.FlagFastADC, 28896},
		{"unbuffered click", lightsensor.FlagNoBuffer, 7796},
		{"unbuffered click fast", lightsensor.FlagNoBuffer | lightsensor.FlagFastADC, 20710},
		{"buffered monitor", lightsensor.FlagMonitor, 8780.8},
		{"buffered monitor fast", lightsensor.FlagMonitor | lightsensor.FlagFastADC, 29574.4},
		{"unbuffered monitor", lightsensor.FlagMonitor | lightsensor.FlagNoBuffer, 7798},
		{"unbuffered monitor fast", lightsensor.FlagMonitor | lightsensor.FlagNoBuffer | lightsensor.FlagFastADC, 21000},
		{"gain does not matter", lightsensor.FlagHighSens1 | lightsensor.FlagHighSens2 | lightsensor.FlagAutofire, 8738.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SampleRate(tt.flags))
		})
	}
}

func TestDecoder_BufferedClick(t *testing.T) {
	data := encodeFrames(t, lightsensor.ModeBufferedClick, 2, func(i int) bool { return i == 3 })
	dec := NewDecoder(bytes.NewReader(data), lightsensor.ModeBufferedClick)

	samples, buttons, err := dec.Decode()
	require.NoError(t, err)
	assert.Len(t, samples, lightsensor.SmallBufferSize)
	assert.Equal(t, uint8(1), buttons[3])
	assert.Equal(t, lightsensor.Sample(20), samples[20])

	samples, _, err = dec.Decode()
	require.NoError(t, err)
	assert.Equal(t, lightsensor.Sample(lightsensor.SmallBufferSize), samples[0])

	_, _, err = dec.Decode()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoder_PartialFrame(t *testing.T) {
	data := encodeFrames(t, lightsensor.ModeBufferedMonitor, 1, nil)
	dec := NewDecoder(bytes.NewReader(data[:len(data)-1]), lightsensor.ModeBufferedMonitor)

	_, _, err := dec.Decode()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestStream_Timestamps(t *testing.T) {
	flags := lightsensor.FlagNoBuffer
	data := encodeFrames(t, flags.Mode(), 10, func(i int) bool { return i == 4 })
	out := make(chan RawSample, 16)
	start := time.Unix(1000, 0)

	n, dropped, err := stream(bytes.NewReader(data), flags, start, out, false)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, int64(10), n)
	assert.Zero(t, dropped)
	close(out)

	var got []RawSample
	for s := range out {
		got = append(got, s)
	}
	require.Len(t, got, 10)
	assert.Equal(t, start, got[0].Timestamp)
	assert.Equal(t, int64(9), got[9].Index)
	assert.Equal(t, uint16(9), got[9].Light)
	assert.InDelta(t, 9/7796.0, got[9].Timestamp.Sub(start).Seconds(), 1e-9)
	assert.True(t, got[4].Click)
	assert.False(t, got[5].Click)
}

func TestStream_DropsWhenFull(t *testing.T) {
	flags := lightsensor.FlagMonitor
	data := encodeFrames(t, flags.Mode(), 2, nil)
	out := make(chan RawSample, 10)

	n, dropped, err := stream(bytes.NewReader(data), flags, time.Now(), out, false)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, int64(2*lightsensor.LargeBufferSize), n)
	assert.Equal(t, n-10, dropped)
	assert.Len(t, out, 10)
}

// timeoutReader yields its chunks and then behaves like an idle port with a
// read timeout.
type timeoutReader struct {
	chunks [][]byte
	delay  time.Duration
}

func (r *timeoutReader) Read(p []byte) (int, error) {
	time.Sleep(r.delay)
	if len(r.chunks) == 0 {
		return 0, nil
	}
	n := copy(p, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func TestDrain(t *testing.T) {
	r := &timeoutReader{
		chunks: [][]byte{{1, 2, 3}, {4, 5}},
		delay:  time.Millisecond,
	}
	start := time.Now()
	n, err := drain(r, 20*time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestDrain_Error(t *testing.T) {
	_, err := drain(iotestErrReader{}, time.Second, time.Second)
	assert.ErrorIs(t, err, errPortGone)
}

// chattyReader never goes quiet, like a device that missed the stop byte.
type chattyReader struct{}

func (chattyReader) Read(p []byte) (int, error) {
	time.Sleep(time.Millisecond)
	return copy(p, []byte{0xAA, 0x55}), nil
}

func TestDrain_GivesUp(t *testing.T) {
	start := time.Now()
	n, err := drain(chattyReader{}, 20*time.Millisecond, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrStillStreaming)
	assert.Positive(t, n)
	assert.Less(t, time.Since(start), time.Second)
}

var errPortGone = errors.New("port gone")

type iotestErrReader struct{}

func (iotestErrReader) Read([]byte) (int, error) { return 0, errPortGone }

func TestContextReader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := contextReader{ctx: ctx, r: &timeoutReader{chunks: [][]byte{{7}}, delay: time.Millisecond}}

	buf := make([]byte, 4)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	_, err = r.Read(buf)
	assert.ErrorIs(t, err, context.Canceled)
}
