package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/goldat/pkg/config"
	"github.com/itohio/goldat/pkg/latency"
	"github.com/itohio/goldat/pkg/sample"
)

// minLevelSpan keeps a flat trace from being stretched over the whole plot.
const minLevelSpan = 0.05

// ScopeWidget is a custom Fyne widget that displays the light trace with click markers.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu     sync.RWMutex
	clicks int
	result *latency.Result

	// Display buffer (reused for downsampling)
	displaySamples []sample.Sample

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time

	// Display settings
	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		cfg:              cfg,
		displaySamples:   make([]sample.Sample, 0, 1000),
		maxDisplayPoints: 1000, // Limit points for efficient rendering
	}
	s.updateAutoScale()
	s.ExtendBaseWidget(s)
	// Trigger initial refresh to display empty scope
	s.Refresh()
	return s
}

// UpdateData updates the widget with a new window of samples.
// This should be called from the window callback using fyne.Do().
func (s *ScopeWidget) UpdateData(samples []sample.Sample, clicks int) {
	s.mu.Lock()

	// Downsample for display (reuse buffer)
	s.displaySamples = sample.DownsampleSamples(s.displaySamples, samples, s.maxDisplayPoints)
	s.clicks = clicks

	s.updateAutoScale()

	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// SetResult shows the summary of the last latency measurement. nil clears it.
func (s *ScopeWidget) SetResult(r *latency.Result) {
	s.mu.Lock()
	s.result = r
	s.mu.Unlock()
	s.Refresh()
}

// updateAutoScale calculates the axis ranges from the display samples.
func (s *ScopeWidget) updateAutoScale() {
	window := time.Duration(s.cfg.Display.WindowSeconds * float64(time.Second))
	s.yMin, s.yMax = levelRange(s.displaySamples)

	if len(s.displaySamples) == 0 {
		s.xMin = time.Now()
		s.xMax = s.xMin.Add(window)
		return
	}

	s.xMin = s.displaySamples[0].Timestamp
	s.xMax = s.displaySamples[len(s.displaySamples)-1].Timestamp
	// Ensure minimum window
	if s.xMax.Sub(s.xMin) < window {
		s.xMax = s.xMin.Add(window)
	}
}

// levelRange returns the displayed level range with a 10% margin.
func levelRange(samples []sample.Sample) (lo, hi float64) {
	if len(samples) == 0 {
		return 0, 1
	}

	lo, hi = samples[0].Level, samples[0].Level
	for _, s := range samples {
		lo = min(lo, s.Level)
		hi = max(hi, s.Level)
	}

	if span := hi - lo; span < minLevelSpan {
		mid := (hi + lo) / 2
		lo, hi = mid-minLevelSpan/2, mid+minLevelSpan/2
	}
	margin := (hi - lo) * 0.1
	return lo - margin, hi + margin
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:    s,
		grid:     grid,
		objects:  []fyne.CanvasObject{grid},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
