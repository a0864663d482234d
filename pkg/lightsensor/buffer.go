package lightsensor

// SampleBuffer accumulates samples, and in click modes a parallel run of button
// bytes, until it holds exactly its capacity.
type SampleBuffer struct {
	samples []Sample
	buttons []uint8
	n       int
}

// NewSampleBuffer allocates a buffer of the given capacity. withButtons adds the
// parallel button run used by click modes.
func NewSampleBuffer(capacity int, withButtons bool) *SampleBuffer {
	b := &SampleBuffer{samples: make([]Sample, capacity)}
	if withButtons {
		b.buttons = make([]uint8, capacity)
	}
	return b
}

// NewModeBuffer allocates the buffer used by a session in mode m.
func NewModeBuffer(m Mode) *SampleBuffer {
	return NewSampleBuffer(m.Capacity(), m.Click())
}

// Add stores one sample and its button byte (ignored without a button run) and
// reports whether the buffer is now full.
func (b *SampleBuffer) Add(s Sample, button uint8) bool {
	b.samples[b.n] = s
	if b.buttons != nil {
		b.buttons[b.n] = button
	}
	b.n++
	return b.n == len(b.samples)
}

// Full reports whether the write index reached capacity.
func (b *SampleBuffer) Full() bool {
	return b.n == len(b.samples)
}

// Len returns the number of samples written since the last Reset.
func (b *SampleBuffer) Len() int {
	return b.n
}

// Cap returns the capacity.
func (b *SampleBuffer) Cap() int {
	return len(b.samples)
}

// HasButtons reports whether the buffer carries a button run.
func (b *SampleBuffer) HasButtons() bool {
	return b.buttons != nil
}

// Samples returns the samples written so far, in fill order.
func (b *SampleBuffer) Samples() []Sample {
	return b.samples[:b.n]
}

// Buttons returns the button bytes written so far, or nil without a button run.
func (b *SampleBuffer) Buttons() []uint8 {
	if b.buttons == nil {
		return nil
	}
	return b.buttons[:b.n]
}

// Reset moves the write index back to zero.
func (b *SampleBuffer) Reset() {
	b.n = 0
}
