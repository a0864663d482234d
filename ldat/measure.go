package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"github.com/itohio/goldat/pkg/config"
	"github.com/itohio/goldat/pkg/latency"
	"github.com/itohio/goldat/pkg/ldat"
	"github.com/itohio/goldat/pkg/lightsensor"
)

var errMeasurementTimeout = errors.New("measurement timed out")

// handleMeasure records a click session of the configured length and shows
// the click-to-photon latency summary.
func handleMeasure(state *appState) {
	if state.device == nil {
		return
	}

	state.mu.Lock()
	if state.measuring {
		state.mu.Unlock()
		return
	}
	state.measuring = true
	wasRunning := state.running
	state.running = false
	state.mu.Unlock()

	state.measureBtn.Disable()
	state.runBtn.Disable()
	state.runBtn.SetIcon(theme.MediaPlayIcon())

	if wasRunning {
		if err := state.device.Stop(); err != nil {
			log.Printf("Error stopping session: %v", err)
		}
	}

	// Latency needs clicks, monitor mode would never report any.
	flags := state.cfg.Sensor.Flags() &^ lightsensor.FlagMonitor
	device := state.device
	view := state.lightView
	cfg := state.cfg.Latency

	go func() {
		result, err := measure(device, view, flags, state.displayRate(ldat.SampleRate(flags)), cfg, state.setStatus)

		fyne.Do(func() {
			state.mu.Lock()
			state.measuring = false
			state.mu.Unlock()
			state.measureBtn.Enable()
			state.runBtn.Enable()

			if err != nil {
				state.status.SetText("Measurement failed")
				dialog.ShowError(fmt.Errorf("latency measurement: %w", err), state.window)
				return
			}
			state.scopeWidget.SetResult(result)
			state.status.SetText(fmt.Sprintf("Latency %.1f ms median over %d clicks", result.P50, len(result.Times)))
		})
	}()
}

// measure runs one recording session on device and analyzes it.
func measure(device ldat.Device, view *latency.Window, flags lightsensor.Flags, rate float64, cfg config.LatencyConfig, status func(string, ...any)) (*latency.Result, error) {
	rec := latency.NewRecorder(int(rate * cfg.Duration.Seconds()))

	view.Clear()
	view.Record(rec)
	defer view.Record(nil)

	if err := device.Start(flags); err != nil {
		return nil, err
	}
	status("Measuring for %s (%s)", cfg.Duration, flags.Mode())

	var err error
	select {
	case <-rec.Done():
	case <-time.After(measurementTimeout(cfg.Duration)):
		err = errMeasurementTimeout
	}

	if stopErr := device.Stop(); stopErr != nil {
		log.Printf("Error stopping session: %v", stopErr)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("Recorded %d samples, peak %.0f", rec.Len(), rec.Peak())
	return rec.Analyze(rate, cfg)
}
