package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/goldat/pkg/config"
	"github.com/itohio/goldat/pkg/latency"
	"github.com/itohio/goldat/pkg/ldat"
	"github.com/itohio/goldat/pkg/sample"
	"github.com/itohio/goldat/pkg/scope"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use mocked device instead of serial port")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of samples to average for display (0 = disabled, overrides config)")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	// Override average samples if provided via command line
	if *averageSamplesFlag >= 0 {
		cfg.Display.AverageSamples = *averageSamplesFlag
	}

	// Create Fyne application
	application := app.NewWithID("com.itohio.goldat")

	// Create main window
	window := application.NewWindow("Latency and Display Analysis Tool")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		window:     window,
		useMock:    *mockFlag,
	}

	// Create toolbar
	toolbar := createToolbar(state)

	// Create scope widget for graph display
	state.scopeWidget = scope.New(cfg)

	// Create border layout with toolbar at top and scope widget as content
	content := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		state.scopeWidget,
	)

	window.SetOnClosed(func() {
		closeSampleChain(state.chain)
	})
	window.SetContent(content)
	window.ShowAndRun()
}

// sampleChain tracks the components of the sample chain for graceful shutdown.
type sampleChain struct {
	device        ldat.Device
	samplesStream <-chan sample.Sample
	windowDone    chan struct{} // Closed when the window goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	device      ldat.Device
	lightView   *latency.Window
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	connectBtn  *widget.Button
	runBtn      *widget.Button
	measureBtn  *widget.Button
	status      *widget.Label
	useMock     bool
	chain       *sampleChain // Current sample chain (nil if not connected)

	mu        sync.Mutex
	running   bool
	measuring bool
}

// createToolbar creates the application toolbar with Connect, Settings, Run and Measure buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	runBtn := widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() {
		handleRunToggle(state)
	})
	runBtn.Disable()
	state.runBtn = runBtn

	measureBtn := widget.NewButtonWithIcon("Measure", theme.MediaRecordIcon(), func() {
		handleMeasure(state)
	})
	measureBtn.Disable()
	state.measureBtn = measureBtn

	state.status = widget.NewLabel("Disconnected")

	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn, settingsBtn, runBtn, measureBtn), // left
		state.status, // right
		nil,          // center (spacer)
	)
}

func (s *appState) setStatus(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fyne.Do(func() {
		s.status.SetText(msg)
	})
}

// closeSampleChain gracefully closes the sample chain.
// Waits for all goroutines to finish and channels to drain.
func closeSampleChain(chain *sampleChain) {
	if chain == nil {
		return
	}

	// Close device - this stops any session and closes the raw samples channel
	if chain.device != nil {
		if err := chain.device.Close(); err != nil {
			log.Printf("Error closing device: %v", err)
		}
	}

	// The window goroutine exits when samplesStream closes, which happens
	// once the converters have drained.
	if chain.windowDone != nil {
		<-chain.windowDone
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		disconnect(state)
		return
	}

	var device ldat.Device
	if state.useMock {
		device = ldat.NewMock(&state.cfg.Mock)
		log.Println("Using mocked device")
	} else {
		device = ldat.New(state.cfg.Serial.Port, state.cfg.Serial.Baud, ldat.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to connect to mocked device: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = device
	if state.useMock {
		state.status.SetText("Connected to mocked device")
	} else {
		state.status.SetText("Connected to " + state.cfg.Serial.Port)
	}

	state.runBtn.Enable()
	state.measureBtn.Enable()

	// Display settings may have changed since the last connection
	view := newLightView(state)
	state.lightView = view

	// Chain converters: base converter always used, averaging converter conditionally
	var samplesStream <-chan sample.Sample
	if state.cfg.Display.AverageSamples > 1 {
		samplesStream = sample.NewAveragingConverter(state.cfg.Display.AverageSamples, 4096)(device.Samples())
	} else {
		samplesStream = sample.NewConverter(4096)(device.Samples())
	}

	windowDone := make(chan struct{})
	go func() {
		defer close(windowDone)
		view.ProcessSamples(samplesStream)
	}()

	state.chain = &sampleChain{
		device:        device,
		samplesStream: samplesStream,
		windowDone:    windowDone,
	}
}

// newLightView creates the sliding window feeding the scope widget.
// The window throttles callbacks itself.
func newLightView(state *appState) *latency.Window {
	w := latency.NewWindow(state.cfg.Display.WindowSeconds)
	w.OnUpdate(func(samples []sample.Sample, clicks int) {
		fyne.Do(func() {
			state.scopeWidget.UpdateData(samples, clicks)
		})
	})
	return w
}

func disconnect(state *appState) {
	closeSampleChain(state.chain)
	state.chain = nil
	state.device = nil

	state.mu.Lock()
	state.running = false
	state.mu.Unlock()

	state.runBtn.SetIcon(theme.MediaPlayIcon())
	state.runBtn.Disable()
	state.measureBtn.Disable()
	state.status.SetText("Disconnected")
}

// handleRunToggle starts or stops a free running light sensor session.
func handleRunToggle(state *appState) {
	if state.device == nil {
		return
	}

	state.mu.Lock()
	running := state.running
	state.mu.Unlock()

	if running {
		if err := state.device.Stop(); err != nil {
			dialog.ShowError(fmt.Errorf("failed to stop light sensor: %w", err), state.window)
		}
		state.mu.Lock()
		state.running = false
		state.mu.Unlock()
		state.runBtn.SetIcon(theme.MediaPlayIcon())
		state.status.SetText("Idle")
		return
	}

	flags := state.cfg.Sensor.Flags()
	state.lightView.Clear()
	if err := state.device.Start(flags); err != nil {
		dialog.ShowError(fmt.Errorf("failed to start light sensor: %w", err), state.window)
		return
	}
	state.mu.Lock()
	state.running = true
	state.mu.Unlock()
	state.runBtn.SetIcon(theme.MediaStopIcon())
	state.status.SetText(fmt.Sprintf("%s at %.0f Hz", flags.Mode(), ldat.SampleRate(flags)))
}

// displayRate returns the rate at which samples reach the window.
func (s *appState) displayRate(rate float64) float64 {
	if n := s.cfg.Display.AverageSamples; n > 1 {
		return rate / float64(n)
	}
	return rate
}

// measurementTimeout bounds how long a measurement may wait for its samples.
func measurementTimeout(d time.Duration) time.Duration {
	return 2*d + 5*time.Second
}
