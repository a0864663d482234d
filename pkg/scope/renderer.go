package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"
	"github.com/itohio/goldat/pkg/latency"
	"github.com/itohio/goldat/pkg/sample"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	lightColor = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // Orange
	clickColor = color.RGBA{R: 220, G: 40, B: 60, A: 255}   // Red
	infoColor  = color.RGBA{R: 200, G: 200, B: 200, A: 255} // Light gray
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// viewport maps samples into the plot area.
type viewport struct {
	x, y, w, h float32
	yMin, yMax float64
	xMin, xMax time.Time
}

// point returns the plot position of a level at time t, clamped to the plot area.
func (v viewport) point(t time.Time, level float64) fyne.Position {
	fx := float32(t.Sub(v.xMin).Seconds() / v.xMax.Sub(v.xMin).Seconds())
	fy := float32((level - v.yMin) / (v.yMax - v.yMin))
	return fyne.NewPos(v.x+clamp01(fx)*v.w, v.y+v.h-clamp01(fy)*v.h)
}

func clamp01(f float32) float32 {
	if math32.IsNaN(f) {
		return 0
	}
	return math32.Max(0, math32.Min(1, f))
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	// Background fills entire widget
	r.grid.Resize(size)

	// Check if size changed
	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	clicks := r.scope.clicks
	result := r.scope.result
	v := viewport{
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Clear old objects (but keep grid)
	r.objects = []fyne.CanvasObject{r.grid}

	// Calculate margins
	marginLeft := float32(60.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	v.x, v.y = marginLeft, marginTop
	v.w = size.Width - marginLeft - marginRight
	v.h = size.Height - marginTop - marginBottom

	r.drawGrid(v)
	r.drawClicks(v, samples)
	if len(samples) > 1 {
		r.drawLightLine(v, samples)
	}
	r.drawInfo(v, clicks, result)
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(v viewport) {
	// Horizontal grid lines (level)
	numHLines := 8
	for i := range numHLines + 1 {
		y := v.y + float32(i)*v.h/float32(numHLines)
		r.addLine(gridColor, 1, fyne.NewPos(v.x, y), fyne.NewPos(v.x+v.w, y))

		value := v.yMax - float64(i)*(v.yMax-v.yMin)/float64(numHLines)
		r.addText(formatLevel(value), labelColor, 10, fyne.TextAlignTrailing, fyne.NewPos(v.x-5, y-6))
	}

	// Vertical grid lines (time)
	numVLines := 10
	span := v.xMax.Sub(v.xMin)
	for i := range numVLines + 1 {
		x := v.x + float32(i)*v.w/float32(numVLines)
		r.addLine(gridColor, 1, fyne.NewPos(x, v.y), fyne.NewPos(x, v.y+v.h))

		offset := span * time.Duration(i) / time.Duration(numVLines)
		r.addText(formatTime(offset), labelColor, 10, fyne.TextAlignCenter, fyne.NewPos(x-20, v.y+v.h+5))
	}
}

// drawLightLine draws the light level curve.
func (r *scopeRenderer) drawLightLine(v viewport, samples []sample.Sample) {
	prev := v.point(samples[0].Timestamp, samples[0].Level)
	for _, s := range samples[1:] {
		p := v.point(s.Timestamp, s.Level)
		r.addLine(lightColor, 1.5, prev, p)
		prev = p
	}
}

// drawClicks draws a vertical marker at every sample carrying a click.
func (r *scopeRenderer) drawClicks(v viewport, samples []sample.Sample) {
	for _, s := range samples {
		if !s.Click {
			continue
		}
		p := v.point(s.Timestamp, v.yMin)
		r.addLine(clickColor, 1, fyne.NewPos(p.X, v.y), fyne.NewPos(p.X, v.y+v.h))
	}
}

// drawInfo draws the click count and the last latency summary.
func (r *scopeRenderer) drawInfo(v viewport, clicks int, result *latency.Result) {
	r.addText(fmt.Sprintf("clicks: %d", clicks), infoColor, 11, fyne.TextAlignLeading, fyne.NewPos(v.x+10, v.y+10))
	if result == nil {
		return
	}
	r.addText(formatResult(result), infoColor, 11, fyne.TextAlignLeading, fyne.NewPos(v.x+10, v.y+26))
}

func (r *scopeRenderer) addLine(c color.Color, width float32, p1, p2 fyne.Position) {
	line := canvas.NewLine(c)
	line.Position1 = p1
	line.Position2 = p2
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

func (r *scopeRenderer) addText(s string, c color.Color, size float32, align fyne.TextAlign, pos fyne.Position) {
	text := canvas.NewText(s, c)
	text.TextSize = size
	text.Alignment = align
	text.Move(pos)
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}

// Helper functions for formatting

func formatLevel(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func formatTime(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func formatResult(r *latency.Result) string {
	return fmt.Sprintf("latency %.1f / %.1f / %.1f ms (min %.1f, max %.1f, n=%d)",
		r.P33, r.P50, r.P66, r.Min, r.Max, len(r.Times))
}
