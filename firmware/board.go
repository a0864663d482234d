//go:build tinygo

package main

import (
	"machine"
	"machine/usb/hid/mouse"
	"time"

	"github.com/itohio/goldat/pkg/lightsensor"
)

// board implements lightsensor.Hardware on a XIAO SAMD21.
type board struct {
	adc        machine.ADC
	autofire   *machine.TCC
	autofireCh uint8
	autofireOn bool
	scopeLevel bool
}

var _ lightsensor.Hardware = (*board)(nil)

func newBoard() *board {
	machine.InitADC()
	PIN_LIGHT.Configure(machine.PinConfig{Mode: machine.PinInput})
	if OSCILLOSCOPE_DEBUG {
		PIN_SCOPE.Configure(machine.PinConfig{Mode: machine.PinOutput})
		PIN_SCOPE.Low()
	}
	return &board{
		adc:      machine.ADC{Pin: PIN_LIGHT},
		autofire: machine.TCC0,
	}
}

func (b *board) ConfigureADC(speed lightsensor.ADCSpeed) {
	samples := uint32(ADC_SAMPLES_SLOW)
	if speed == lightsensor.ADCFast {
		samples = ADC_SAMPLES_FAST
	}
	b.adc.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
		Samples:    samples,
	})
}

func (b *board) ReadADC() lightsensor.Sample {
	// machine.ADC scales every result to 16 bits
	return lightsensor.Sample(b.adc.Get() >> (16 - ADC_RESOLUTION))
}

func (b *board) SetSenseTap(tap lightsensor.SenseTap, grounded bool) {
	pin := PIN_SENSE_47K
	if tap == lightsensor.Tap22k {
		pin = PIN_SENSE_22K
	}
	if grounded {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
		return
	}
	pin.Configure(machine.PinConfig{Mode: machine.PinInput})
}

func (b *board) SetButtonPower(on bool) {
	if on {
		PIN_BUTTON_POWER.Configure(machine.PinConfig{Mode: machine.PinOutput})
		PIN_BUTTON_POWER.High()
		return
	}
	PIN_BUTTON_POWER.Low()
	PIN_BUTTON_POWER.Configure(machine.PinConfig{Mode: machine.PinInput})
}

func (b *board) StartAutofire() error {
	if err := b.autofire.Configure(machine.PWMConfig{Period: AUTOFIRE_PERIOD_NS}); err != nil {
		return err
	}
	ch, err := b.autofire.Channel(PIN_AUTOFIRE)
	if err != nil {
		return err
	}
	b.autofire.Set(ch, b.autofire.Top()/2)
	b.autofireCh = ch
	b.autofireOn = true
	return nil
}

func (b *board) AttachEdge(handler func()) error {
	PIN_EDGE.Configure(machine.PinConfig{Mode: machine.PinInput})
	return PIN_EDGE.SetInterrupt(machine.PinToggle, func(machine.Pin) {
		handler()
	})
}

func (b *board) DetachEdge() {
	PIN_EDGE.SetInterrupt(machine.PinToggle, nil)
}

func (b *board) EdgeLevel() bool {
	return PIN_EDGE.Get()
}

func (b *board) ReleasePins() {
	b.SetButtonPower(false)

	if b.autofireOn {
		b.autofire.Set(b.autofireCh, 0)
		b.autofireOn = false
	}
	PIN_AUTOFIRE.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_AUTOFIRE.Low()
	PIN_AUTOFIRE.Configure(machine.PinConfig{Mode: machine.PinInput})

	PIN_EDGE.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_SENSE_47K.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_SENSE_22K.Configure(machine.PinConfig{Mode: machine.PinInput})
}

func (b *board) DebugPulse() {
	if !OSCILLOSCOPE_DEBUG {
		return
	}
	b.scopeLevel = !b.scopeLevel
	PIN_SCOPE.Set(b.scopeLevel)
}

// usbPointer emits left button events through the USB HID mouse.
type usbPointer struct {
	m *mouse.Mouse
}

func (p usbPointer) Press()   { p.m.Press(mouse.Left) }
func (p usbPointer) Release() { p.m.Release(mouse.Left) }

// uptime is the millisecond clock used for debouncing.
type uptime struct {
	boot time.Time
}

func (u uptime) Millis() uint32 {
	return uint32(time.Since(u.boot) / time.Millisecond)
}
