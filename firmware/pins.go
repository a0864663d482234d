//go:build tinygo

package main

import "machine"

const (
	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 10   // Samples are streamed in the 0-1023 range
	ADC_SAMPLES_FAST = 1    // ~26us per conversion
	ADC_SAMPLES_SLOW = 4    // ~104us per conversion, averaged in hardware

	// Light sensor input
	PIN_LIGHT = machine.A0

	// Button and autofire. The autofire output is wired to PIN_EDGE on the board so
	// its toggles reach the same interrupt as the button.
	PIN_BUTTON_POWER = machine.D4
	PIN_AUTOFIRE     = machine.D2
	PIN_EDGE         = machine.D7

	// Divider taps between sensor- and ground
	PIN_SENSE_47K = machine.D9
	PIN_SENSE_22K = machine.D8

	// Timing pulses for an oscilloscope
	PIN_SCOPE = machine.D10

	// Autofire PWM period (~1Hz, 50% duty)
	AUTOFIRE_PERIOD_NS = 1_000_000_000

	// When true the sensor streams comma separated text instead of binary frames.
	SERIAL_DEBUG = false
	// When true PIN_SCOPE toggles around every flush.
	OSCILLOSCOPE_DEBUG = true
)
