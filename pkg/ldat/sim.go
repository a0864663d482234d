package ldat

import (
	"io"
	"math"
	"sync/atomic"
	"time"

	"github.com/itohio/goldat/pkg/config"
	"github.com/itohio/goldat/pkg/lightsensor"
)

const (
	simAutofirePeriod = time.Second
	simPaceEvery      = 256
	adcFullScale      = 1023
)

// simBoard is a virtual light sensor board pointed at a simulated screen.
// Time advances by one sample period per ADC conversion. The screen flashes
// LightDelay after each pointer press.
type simBoard struct {
	cfg      config.MockConfig
	rate     float64
	realtime bool

	reads     int64
	now       time.Duration
	paceStart time.Time

	speed       lightsensor.ADCSpeed
	floating    [2]bool // sense taps left floating, 47k then 22k
	buttonPower bool
	autofire    bool
	level       bool
	handler     func()

	flashAt, flashEnd time.Duration
	flashing          bool

	presses, pulses int
}

func newSimBoard(cfg config.MockConfig, rate float64, realtime bool) *simBoard {
	return &simBoard{
		cfg:       cfg,
		rate:      rate,
		realtime:  realtime,
		paceStart: time.Now(),
	}
}

func (b *simBoard) ConfigureADC(speed lightsensor.ADCSpeed) { b.speed = speed }

func (b *simBoard) ReadADC() lightsensor.Sample {
	b.reads++
	b.now = time.Duration(float64(b.reads) / b.rate * float64(time.Second))
	if b.realtime && b.reads%simPaceEvery == 0 {
		if ahead := b.now - time.Since(b.paceStart); ahead > 0 {
			time.Sleep(ahead)
		}
	}
	b.stepInputs()
	return b.light()
}

func (b *simBoard) SetSenseTap(tap lightsensor.SenseTap, grounded bool) {
	b.floating[tap] = !grounded
}

func (b *simBoard) SetButtonPower(on bool) { b.buttonPower = on }

func (b *simBoard) StartAutofire() error {
	b.autofire = true
	return nil
}

func (b *simBoard) AttachEdge(fn func()) error {
	b.handler = fn
	return nil
}

func (b *simBoard) DetachEdge() { b.handler = nil }

func (b *simBoard) EdgeLevel() bool { return b.level }

func (b *simBoard) ReleasePins() {
	b.buttonPower = false
	b.autofire = false
	b.floating = [2]bool{true, true}
}

func (b *simBoard) DebugPulse() { b.pulses++ }

// Press implements lightsensor.Pointer.
func (b *simBoard) Press() {
	b.presses++
	if b.flashing && b.now < b.flashEnd {
		return
	}
	b.flashAt = b.now + b.cfg.LightDelay
	b.flashEnd = b.flashAt + b.cfg.FlashDuration
	b.flashing = true
}

// Release implements lightsensor.Pointer.
func (b *simBoard) Release() {}

// Millis implements lightsensor.Clock.
func (b *simBoard) Millis() uint32 {
	return uint32(b.now / time.Millisecond)
}

// stepInputs drives the edge line from the autofire timer or the simulated button.
func (b *simBoard) stepInputs() {
	switch {
	case b.autofire:
		half := simAutofirePeriod / 2
		b.setLevel((b.now/half)%2 == 1, 0)
	case b.buttonPower && b.cfg.ButtonPeriod > 0:
		// Held for a quarter of each period, starting half way through.
		phase := b.now % b.cfg.ButtonPeriod
		held := phase >= b.cfg.ButtonPeriod/2 && phase < b.cfg.ButtonPeriod*3/4
		b.setLevel(held, b.cfg.Bounces)
	}
}

// setLevel moves the edge line to level, chattering bounces times on the way.
func (b *simBoard) setLevel(level bool, bounces int) {
	if level == b.level {
		return
	}
	for i := 0; i < 2*bounces+1; i++ {
		b.level = !b.level
		if b.handler != nil {
			b.handler()
		}
	}
}

func (b *simBoard) gain() lightsensor.Gain {
	var g lightsensor.Gain
	if b.floating[lightsensor.Tap47k] {
		g |= 1
	}
	if b.floating[lightsensor.Tap22k] {
		g |= 2
	}
	return g
}

func (b *simBoard) light() lightsensor.Sample {
	v := b.cfg.Ambient
	if b.flashing && b.now >= b.flashAt && b.now < b.flashEnd {
		v += b.cfg.Brightness
	}

	t := float64(b.now)
	v += (math.Sin(t*0.0000731) + math.Cos(t*0.000113)) * b.cfg.NoiseLevel * 0.5

	v *= float64(b.gain().Resistance()) / float64(lightsensor.GainLow.Resistance())
	counts := math.Round(v * adcFullScale)
	if counts < 0 {
		counts = 0
	} else if counts > adcFullScale {
		counts = adcFullScale
	}
	return lightsensor.Sample(counts)
}

// simPort carries the simulated board's output. Buffered reports pending
// host input once a stop has been requested.
type simPort struct {
	io.Writer
	stop *atomic.Bool
}

func (p simPort) Buffered() int {
	if p.stop.Load() {
		return 1
	}
	return 0
}
