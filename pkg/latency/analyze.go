// Package latency measures click-to-photon latency from a recorded light
// trace with click markers.
//
// The screen is expected to stay dark and flash white on every click. A
// flash is a rising crossing of the white threshold; the screen must fall
// back below the black threshold before the next flash is counted. Each
// flash is paired with the latest unused click before it.
package latency

import (
	"errors"
	"fmt"
	"slices"

	"github.com/itohio/goldat/pkg/config"
)

var (
	ErrInsufficientContrast = errors.New("insufficient contrast between black and flash")
	ErrAnalysisFailed       = errors.New("no click was followed by a flash")
)

// Result is the outcome of one latency measurement. Times are in milliseconds.
type Result struct {
	Times       []float64 // Latency of each matched flash, in trace order
	Clicks      []int     // Sample indices of clicks seen by the state machine
	Transitions []int     // Sample indices of black to white crossings

	Black, Peak    float64 // ADC counts
	WhiteThreshold float64
	BlackThreshold float64
	P33, P50, P66  float64
	Min, Max, Mean float64
}

// Analyze finds flashes in light and matches them to clicks. black is the
// dark screen level in ADC counts and rate the sample rate in Hz. clicks must
// be as long as light.
func Analyze(light []float64, clicks []bool, black, rate float64, cfg config.LatencyConfig) (*Result, error) {
	if len(clicks) != len(light) {
		return nil, fmt.Errorf("trace has %d light samples but %d click samples", len(light), len(clicks))
	}
	if rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %g", rate)
	}

	r := &Result{Black: black}
	for _, v := range light {
		r.Peak = max(r.Peak, v)
	}
	rng := r.Peak - black
	if rng < cfg.MinContrast {
		return nil, fmt.Errorf("%w: range %.0f < %.0f", ErrInsufficientContrast, rng, cfg.MinContrast)
	}
	r.WhiteThreshold = black + rng*cfg.WhiteFraction
	r.BlackThreshold = black + rng*cfg.BlackFraction

	r.Clicks, r.Transitions = findEdges(light, clicks, r.WhiteThreshold, r.BlackThreshold)
	for _, m := range match(r.Clicks, r.Transitions) {
		r.Times = append(r.Times, 1000*float64(m[1]-m[0])/rate)
	}
	if len(r.Times) == 0 {
		return nil, ErrAnalysisFailed
	}

	r.summarize()
	return r, nil
}

const (
	stateWaitClick = iota
	stateBlack
	stateWhite
)

// findEdges runs the black/white state machine over the trace.
func findEdges(light []float64, clicks []bool, white, black float64) (clickIdx, transitions []int) {
	state := stateWaitClick
	for i, v := range light {
		switch state {
		case stateWaitClick:
			// The first click only counts while the screen is dark.
			if clicks[i] && v <= black {
				clickIdx = append(clickIdx, i)
				state = stateBlack
			}
		case stateBlack:
			if clicks[i] {
				clickIdx = append(clickIdx, i)
			}
			if light[i-1] < white && v >= white {
				transitions = append(transitions, i)
				state = stateWhite
			}
		case stateWhite:
			if clicks[i] {
				clickIdx = append(clickIdx, i)
			}
			if light[i-1] > black && v <= black {
				state = stateBlack
			}
		}
	}
	return clickIdx, transitions
}

// match pairs every transition with the latest click before it that was not
// used by an earlier transition. Transitions with no such click are skipped.
func match(clicks, transitions []int) [][2]int {
	var pairs [][2]int
	c := 0
	for _, t := range transitions {
		last := -1
		for c < len(clicks) && clicks[c] < t {
			last = clicks[c]
			c++
		}
		if last >= 0 {
			pairs = append(pairs, [2]int{last, t})
		}
	}
	return pairs
}

func (r *Result) summarize() {
	sorted := slices.Clone(r.Times)
	slices.Sort(sorted)

	n := len(sorted)
	r.P33 = sorted[int(float64(n)*0.33)]
	r.P50 = sorted[int(float64(n)*0.5)]
	r.P66 = sorted[int(float64(n)*0.66)]
	r.Min = sorted[0]
	r.Max = sorted[n-1]

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	r.Mean = sum / float64(n)
}

// EstimateBlack returns the brightest sample before the first click, which is
// the dark screen level the flashes are measured against.
func EstimateBlack(light []float64, clicks []bool) (float64, bool) {
	first := slices.Index(clicks, true)
	if first <= 0 {
		return 0, false
	}
	return slices.Max(light[:first]), true
}

// CalibrationLimit is the highest dark screen level accepted before the
// sensitivity is lowered.
const CalibrationLimit = 100

// LowerSensitivity returns the next sensitivity to try for a dark screen
// level. ok is false when sens is already acceptable or cannot go lower.
func LowerSensitivity(black float64, sens int) (next int, ok bool) {
	if black > CalibrationLimit && sens > 0 {
		return sens - 1, true
	}
	return sens, false
}
