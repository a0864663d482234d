package latency

import (
	"sync"

	"github.com/itohio/goldat/pkg/config"
	"github.com/itohio/goldat/pkg/sample"
)

// Recorder captures a fixed number of samples for one measurement.
type Recorder struct {
	mu       sync.RWMutex
	samples  []sample.Sample
	capacity int
	done     chan struct{}
}

// NewRecorder creates a recorder that fills after capacity samples.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 1
	}
	return &Recorder{
		samples:  make([]sample.Sample, 0, capacity),
		capacity: capacity,
		done:     make(chan struct{}),
	}
}

// ProcessSamples records samples from the input channel until it is full or
// the channel closes. Samples arriving after the recorder is full are drained.
func (r *Recorder) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		r.Add(s)
	}
}

// Add records one sample and reports whether the recorder is full.
func (r *Recorder) Add(s sample.Sample) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.samples) >= r.capacity {
		return true
	}
	r.samples = append(r.samples, s)
	if len(r.samples) == r.capacity {
		close(r.done)
		return true
	}
	return false
}

// Done is closed once the recorder is full.
func (r *Recorder) Done() <-chan struct{} {
	return r.done
}

// Len returns the number of samples recorded so far.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.samples)
}

// Samples returns a copy of the recorded samples.
func (r *Recorder) Samples() []sample.Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]sample.Sample, len(r.samples))
	copy(result, r.samples)
	return result
}

// Trace splits the recorded samples into ADC counts and click markers.
func (r *Recorder) Trace() (light []float64, clicks []bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	light = make([]float64, len(r.samples))
	clicks = make([]bool, len(r.samples))
	for i, s := range r.samples {
		light[i] = float64(s.Raw)
		clicks[i] = s.Click
	}
	return light, clicks
}

// Peak returns the brightest recorded sample in ADC counts.
func (r *Recorder) Peak() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var peak float64
	for _, s := range r.samples {
		peak = max(peak, float64(s.Raw))
	}
	return peak
}

// Analyze measures latency over the recording. The dark level is taken from
// the samples before the first click.
func (r *Recorder) Analyze(rate float64, cfg config.LatencyConfig) (*Result, error) {
	light, clicks := r.Trace()
	black, ok := EstimateBlack(light, clicks)
	if !ok {
		return nil, ErrAnalysisFailed
	}
	return Analyze(light, clicks, black, rate, cfg)
}
