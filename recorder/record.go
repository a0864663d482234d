package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/itohio/goldat/pkg/config"
	"github.com/itohio/goldat/pkg/latency"
	"github.com/itohio/goldat/pkg/ldat"
	"github.com/itohio/goldat/pkg/lightsensor"
	"github.com/itohio/goldat/pkg/sample"
)

// calibrationDuration is how long the dark screen is sampled per sensitivity step.
const calibrationDuration = 200 * time.Millisecond

// RecordCmd records one session and optionally analyzes it.
type RecordCmd struct {
	Port     string        `help:"Serial port of the device." short:"p" default:"COM3" env:"LDAT_PORT"`
	Baud     int           `help:"Serial baud rate." default:"2000000"`
	Mock     bool          `help:"Use the simulated device instead of a serial port."`
	Duration time.Duration `help:"Recording length." short:"d" default:"10s"`
	Output   string        `help:"CSV output file (- for stdout, empty to skip)." short:"o" default:"ldat.csv"`

	Autofire    bool `help:"Toggle the click line every 500ms."`
	NoBuffer    bool `help:"Send every sample as it is read." name:"nobuffer"`
	Monitor     bool `help:"Light only, no click tracking."`
	NoClick     bool `help:"Track clicks without sending them to the PC." name:"noclick"`
	FastADC     bool `help:"Use the fast ADC setting." name:"fastadc" default:"true" negatable:""`
	Sensitivity int  `help:"Photodiode gain, 0 (lowest) to 3 (max)." short:"s" default:"3"`

	Calibrate     bool    `help:"Lower the sensitivity until the dark screen stays under the calibration limit."`
	Analyze       bool    `help:"Print a click-to-photon latency summary." short:"a"`
	WhiteFraction float64 `help:"Rising threshold as a fraction of the black-to-max range." default:"0.3"`
	BlackFraction float64 `help:"Falling threshold as a fraction of the black-to-max range." default:"0.7"`
	MinContrast   float64 `help:"Minimum black-to-max range in ADC counts." default:"32"`
}

// Validate is called by kong after parsing.
func (c *RecordCmd) Validate() error {
	if c.Sensitivity < 0 || c.Sensitivity > 3 {
		return fmt.Errorf("sensitivity must be 0-3, got %d", c.Sensitivity)
	}
	if c.Duration <= 0 {
		return errors.New("duration must be positive")
	}
	if c.Analyze && c.Monitor {
		return errors.New("latency analysis needs clicks, drop --monitor")
	}
	return nil
}

func (c *RecordCmd) sensorConfig() config.SensorConfig {
	return config.SensorConfig{
		Autofire:    c.Autofire,
		NoBuffer:    c.NoBuffer,
		Monitor:     c.Monitor,
		NoClick:     c.NoClick,
		FastADC:     c.FastADC,
		Sensitivity: c.Sensitivity,
	}
}

func (c *RecordCmd) latencyConfig() config.LatencyConfig {
	return config.LatencyConfig{
		Duration:      c.Duration,
		WhiteFraction: c.WhiteFraction,
		BlackFraction: c.BlackFraction,
		MinContrast:   c.MinContrast,
	}
}

func (c *RecordCmd) device() ldat.Device {
	if c.Mock {
		return ldat.NewMock(nil)
	}
	return ldat.New(c.Port, c.Baud, ldat.DefaultBufferSize)
}

func (c *RecordCmd) Run(ctx context.Context) error {
	dev := c.device()
	if err := dev.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer dev.Close()

	// One consumer for the whole connection, recorders are attached per session.
	view := latency.NewWindow(1)
	go view.ProcessSamples(sample.NewConverter(4096)(dev.Samples()))

	sc := c.sensorConfig()
	if c.Calibrate {
		sens, err := calibrate(ctx, dev, view, sc)
		if err != nil {
			return err
		}
		sc.Sensitivity = sens
	}

	flags := sc.Flags()
	rate := ldat.SampleRate(flags)
	log.Printf("Recording %s at %.0f Hz, flags %s", c.Duration, rate, flags)

	rec, err := record(ctx, dev, view, flags, int(rate*c.Duration.Seconds()))
	if err != nil {
		return err
	}
	log.Printf("Recorded %d samples", rec.Len())

	if err := c.writeOutput(rec.Samples()); err != nil {
		return err
	}

	if c.Analyze {
		res, err := rec.Analyze(rate, c.latencyConfig())
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		printResult(os.Stdout, res)
	}
	return nil
}

func (c *RecordCmd) writeOutput(samples []sample.Sample) error {
	switch c.Output {
	case "":
		return nil
	case "-":
		return writeCSV(os.Stdout, samples)
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := writeCSV(f, samples); err != nil {
		f.Close()
		return err
	}
	log.Printf("Wrote %s", c.Output)
	return f.Close()
}

// record runs a session until n samples are captured or ctx is cancelled.
// A cancelled recording returns what was captured so far.
func record(ctx context.Context, dev ldat.Device, view *latency.Window, flags lightsensor.Flags, n int) (*latency.Recorder, error) {
	rec := latency.NewRecorder(n)
	view.Record(rec)
	defer view.Record(nil)

	if err := dev.Start(flags); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	select {
	case <-rec.Done():
	case <-ctx.Done():
		log.Printf("Interrupted after %d samples", rec.Len())
	}

	if err := dev.Stop(); err != nil {
		return nil, fmt.Errorf("stop: %w", err)
	}
	return rec, nil
}

// calibrationFlags keeps only the gain of sc. The dark screen is always read
// unbuffered with the accurate ADC setting and no clicks.
func calibrationFlags(sc config.SensorConfig) lightsensor.Flags {
	return config.SensorConfig{
		Monitor:     true,
		NoBuffer:    true,
		Sensitivity: sc.Sensitivity,
	}.Flags()
}

// calibrate samples the dark screen in monitor mode and lowers the
// sensitivity while it reads too bright.
func calibrate(ctx context.Context, dev ldat.Device, view *latency.Window, sc config.SensorConfig) (int, error) {
	for {
		flags := calibrationFlags(sc)
		n := int(ldat.SampleRate(flags) * calibrationDuration.Seconds())
		rec, err := record(ctx, dev, view, flags, n)
		if err != nil {
			return 0, fmt.Errorf("calibrate: %w", err)
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		black := rec.Peak()
		next, ok := latency.LowerSensitivity(black, sc.Sensitivity)
		if !ok {
			log.Printf("Calibrated: sensitivity %d, dark level %.0f", sc.Sensitivity, black)
			return sc.Sensitivity, nil
		}
		log.Printf("Dark level %.0f at sensitivity %d, lowering", black, sc.Sensitivity)
		sc.Sensitivity = next
	}
}
