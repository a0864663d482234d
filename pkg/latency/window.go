package latency

import (
	"sync"
	"time"

	"github.com/itohio/goldat/pkg/sample"
)

// DefaultNotifyInterval limits how often update callbacks run.
const DefaultNotifyInterval = 33 * time.Millisecond

// Window keeps the most recent samples within a time window for display and
// forwards every sample to an optional Recorder.
// Externally exposes ordered slices (first sample first, latest last).
type Window struct {
	samples []sample.Sample // FIFO buffer, removed by timestamp
	clicks  int             // Clicks within the window

	recorder *Recorder

	// Thread safety
	mu sync.RWMutex

	callbacks []func(samples []sample.Sample, clicks int)
	cbMu      sync.RWMutex

	windowDuration time.Duration
	notifyInterval time.Duration
	lastNotify     time.Time

	// Shutdown control
	shutdown bool // Set to true when input channel closes, prevents further callbacks
}

// NewWindow creates a window spanning the given number of seconds.
func NewWindow(seconds float64) *Window {
	return &Window{
		samples:        make([]sample.Sample, 0),
		windowDuration: time.Duration(seconds * float64(time.Second)),
		notifyInterval: DefaultNotifyInterval,
	}
}

// ProcessSamples processes samples from the input channel.
// When the input channel closes, it sets shutdown flag to prevent further callbacks.
func (w *Window) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		w.processSample(s)
	}
	// Channel closed - mark as shutdown to prevent further callbacks
	w.mu.Lock()
	w.shutdown = true
	w.mu.Unlock()
}

func (w *Window) processSample(s sample.Sample) {
	w.mu.Lock()

	if w.recorder != nil {
		w.recorder.Add(s)
	}

	w.samples = append(w.samples, s)
	if s.Click {
		w.clicks++
	}

	// Remove samples outside time window (based on timestamp, not count)
	cutoffTime := s.Timestamp.Add(-w.windowDuration)
	cutoffIndex := 0
	for i, old := range w.samples {
		if old.Timestamp.After(cutoffTime) {
			cutoffIndex = i
			break
		}
		if old.Click {
			w.clicks--
		}
	}
	if cutoffIndex > 0 {
		// Shift in place to keep the backing array from growing without bound.
		n := copy(w.samples, w.samples[cutoffIndex:])
		w.samples = w.samples[:n]
	}

	// Sample time drives notifications so replayed or simulated streams behave alike.
	shouldNotify := !w.shutdown && s.Timestamp.Sub(w.lastNotify) >= w.notifyInterval
	if shouldNotify {
		w.lastNotify = s.Timestamp
	}
	w.mu.Unlock()

	if shouldNotify {
		w.notifyCallbacks()
	}
}

// Record forwards subsequent samples to r. A nil r stops forwarding.
func (w *Window) Record(r *Recorder) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.recorder = r
}

// Samples returns a copy of the current samples buffer.
func (w *Window) Samples() []sample.Sample {
	w.mu.RLock()
	defer w.mu.RUnlock()

	result := make([]sample.Sample, len(w.samples))
	copy(result, w.samples)
	return result
}

// Clicks returns the number of clicks within the window.
func (w *Window) Clicks() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.clicks
}

// Clear drops all buffered samples, e.g. when a new session starts.
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples = w.samples[:0]
	w.clicks = 0
	w.lastNotify = time.Time{}
}

// OnUpdate registers a callback function that will be called when samples are updated.
// The callback should copy data quickly and return as fast as possible.
func (w *Window) OnUpdate(callback func(samples []sample.Sample, clicks int)) {
	w.cbMu.Lock()
	defer w.cbMu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// ResetShutdown resets the shutdown flag, allowing callbacks to be sent again.
// This should be called before starting a new processing chain.
func (w *Window) ResetShutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shutdown = false
}

// notifyCallbacks invokes all registered callbacks with current data.
// Makes copies of data while holding read lock, then calls callbacks without lock.
func (w *Window) notifyCallbacks() {
	w.mu.RLock()
	samplesCopy := make([]sample.Sample, len(w.samples))
	copy(samplesCopy, w.samples)
	clicks := w.clicks
	w.mu.RUnlock()

	w.cbMu.RLock()
	callbacks := make([]func(samples []sample.Sample, clicks int), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.cbMu.RUnlock()

	// Invoke callbacks without holding any locks
	for _, cb := range callbacks {
		if cb != nil {
			cb(samplesCopy, clicks)
		}
	}
}
