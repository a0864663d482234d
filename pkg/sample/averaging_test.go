package sample

import (
	"testing"
	"time"

	"github.com/itohio/goldat/pkg/ldat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAveragingConverter_Blocks(t *testing.T) {
	converter := NewAveragingConverter(3, 10)

	in := make(chan ldat.RawSample, 10)
	out := converter(in)

	now := time.Now()
	for i := 0; i < 7; i++ {
		in <- ldat.RawSample{
			Timestamp: now.Add(time.Duration(i) * time.Millisecond),
			Index:     int64(i),
			Light:     uint16(100 + i*10),
			Click:     i == 4,
		}
	}
	close(in)

	var samples []Sample
	for s := range out {
		samples = append(samples, s)
	}

	// Two full blocks plus the flushed remainder.
	require.Len(t, samples, 3)
	assert.Equal(t, uint16(110), samples[0].Raw)
	assert.Equal(t, int64(2), samples[0].Index)
	assert.False(t, samples[0].Click)

	assert.Equal(t, uint16(140), samples[1].Raw)
	assert.True(t, samples[1].Click)

	assert.Equal(t, uint16(160), samples[2].Raw)
	assert.Equal(t, now.Add(6*time.Millisecond), samples[2].Timestamp)
}

func TestNewAveragingConverter_InvalidWindowSize(t *testing.T) {
	converter := NewAveragingConverter(0, 0)
	in := make(chan ldat.RawSample, 2)
	out := converter(in)

	in <- ldat.RawSample{Light: 5}
	in <- ldat.RawSample{Light: 7}
	close(in)

	var got []uint16
	for s := range out {
		got = append(got, s.Raw)
	}
	assert.Equal(t, []uint16{5, 7}, got)
}

func TestNewAveragingConverter_EmptyChannel(t *testing.T) {
	in := make(chan ldat.RawSample)
	out := NewAveragingConverter(4, 1)(in)
	close(in)

	select {
	case _, ok := <-out:
		assert.False(t, ok, "output should be closed")
	case <-time.After(time.Second):
		t.Fatal("output channel did not close")
	}
}

func TestAverageAndConvertSamples(t *testing.T) {
	assert.Equal(t, Sample{}, averageAndConvertSamples(nil))

	s := averageAndConvertSamples([]ldat.RawSample{{Light: 1}, {Light: 2}})
	assert.Equal(t, uint16(2), s.Raw, "rounds half up")
}
