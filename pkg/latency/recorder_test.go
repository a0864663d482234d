package latency

import (
	"testing"
	"time"

	"github.com/itohio/goldat/pkg/config"
	"github.com/itohio/goldat/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplesFromTrace(light []float64, clicks []bool) []sample.Sample {
	start := time.Now()
	out := make([]sample.Sample, len(light))
	for i := range light {
		out[i] = sample.Sample{
			Timestamp: start.Add(time.Duration(i) * time.Millisecond),
			Index:     int64(i),
			Raw:       uint16(light[i]),
			Click:     clicks[i],
		}
	}
	return out
}

func TestRecorder_FillsAndAnalyzes(t *testing.T) {
	light, clicks := trace(1000, []int{100, 500}, [][2]int{{115, 200}, {530, 600}})
	r := NewRecorder(len(light))

	in := make(chan sample.Sample, len(light)+10)
	for _, s := range samplesFromTrace(light, clicks) {
		in <- s
	}
	// Extra samples past capacity are ignored.
	for i := 0; i < 10; i++ {
		in <- sample.Sample{Raw: 1023}
	}
	close(in)
	r.ProcessSamples(in)

	select {
	case <-r.Done():
	default:
		t.Fatal("recorder should be full")
	}
	assert.Equal(t, len(light), r.Len())
	assert.Equal(t, bright, r.Peak())

	res, err := r.Analyze(rate, config.Default().Latency)
	require.NoError(t, err)
	assert.Equal(t, dark, res.Black)
	assert.Equal(t, []float64{15, 30}, res.Times)
}

func TestRecorder_NoClickBeforeDark(t *testing.T) {
	r := NewRecorder(3)
	assert.False(t, r.Add(sample.Sample{Raw: 5, Click: true}))
	assert.False(t, r.Add(sample.Sample{Raw: 500}))
	assert.True(t, r.Add(sample.Sample{Raw: 5}))
	assert.True(t, r.Add(sample.Sample{Raw: 5}))

	_, err := r.Analyze(rate, config.Default().Latency)
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.Len(t, r.Samples(), 3)
}
