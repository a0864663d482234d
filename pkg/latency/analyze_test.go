package latency

import (
	"testing"

	"github.com/itohio/goldat/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dark   = 100.0
	bright = 600.0
	rate   = 1000.0 // one sample per millisecond
)

// trace builds a dark trace with the given clicks and lit [start, end) spans.
func trace(n int, clicks []int, flashes [][2]int) ([]float64, []bool) {
	light := make([]float64, n)
	clk := make([]bool, n)
	for i := range light {
		light[i] = dark
	}
	for _, f := range flashes {
		for i := f[0]; i < f[1]; i++ {
			light[i] = bright
		}
	}
	for _, c := range clicks {
		clk[c] = true
	}
	return light, clk
}

func TestAnalyze_RegularFlashes(t *testing.T) {
	light, clicks := trace(1000,
		[]int{100, 400, 700},
		[][2]int{{120, 220}, {425, 525}, {730, 830}})

	r, err := Analyze(light, clicks, dark, rate, config.Default().Latency)
	require.NoError(t, err)

	assert.Equal(t, []float64{20, 25, 30}, r.Times)
	assert.Equal(t, []int{100, 400, 700}, r.Clicks)
	assert.Equal(t, []int{120, 425, 730}, r.Transitions)
	assert.Equal(t, 250.0, r.WhiteThreshold)
	assert.Equal(t, 450.0, r.BlackThreshold)
	assert.Equal(t, bright, r.Peak)
	assert.Equal(t, 20.0, r.Min)
	assert.Equal(t, 30.0, r.Max)
	assert.Equal(t, 25.0, r.Mean)
	assert.Equal(t, 25.0, r.P50)
}

func TestAnalyze_LatestClickWins(t *testing.T) {
	// The first click was lost by the application; the flash belongs to the second.
	light, clicks := trace(500, []int{100, 150}, [][2]int{{170, 250}})

	r, err := Analyze(light, clicks, dark, rate, config.Default().Latency)
	require.NoError(t, err)
	assert.Equal(t, []float64{20}, r.Times)
}

func TestAnalyze_FlashWithoutClickIsSkipped(t *testing.T) {
	light, clicks := trace(600, []int{100}, [][2]int{{110, 200}, {300, 400}})

	r, err := Analyze(light, clicks, dark, rate, config.Default().Latency)
	require.NoError(t, err)
	assert.Equal(t, []int{110, 300}, r.Transitions)
	assert.Equal(t, []float64{10}, r.Times)
}

func TestAnalyze_FirstClickMustBeDark(t *testing.T) {
	// A click while the screen is already lit does not start the measurement.
	light, clicks := trace(600, []int{50, 300}, [][2]int{{0, 100}, {320, 400}})

	r, err := Analyze(light, clicks, dark, rate, config.Default().Latency)
	require.NoError(t, err)
	assert.Equal(t, []int{300}, r.Clicks)
	assert.Equal(t, []float64{20}, r.Times)
}

func TestAnalyze_Errors(t *testing.T) {
	cfg := config.Default().Latency

	light, clicks := trace(100, []int{10}, nil)
	_, err := Analyze(light, clicks, dark, rate, cfg)
	assert.ErrorIs(t, err, ErrInsufficientContrast)

	light[50] = dark + 31
	_, err = Analyze(light, clicks, dark, rate, cfg)
	assert.ErrorIs(t, err, ErrInsufficientContrast)

	light, clicks = trace(100, nil, [][2]int{{10, 20}})
	_, err = Analyze(light, clicks, dark, rate, cfg)
	assert.ErrorIs(t, err, ErrAnalysisFailed)

	_, err = Analyze(light, clicks[:10], dark, rate, cfg)
	assert.Error(t, err)

	_, err = Analyze(light, clicks, dark, 0, cfg)
	assert.Error(t, err)
}

func TestResult_Percentiles(t *testing.T) {
	r := &Result{Times: []float64{50, 10, 40, 20, 30}}
	r.summarize()

	assert.Equal(t, 20.0, r.P33)
	assert.Equal(t, 30.0, r.P50)
	assert.Equal(t, 40.0, r.P66)
	assert.Equal(t, 10.0, r.Min)
	assert.Equal(t, 50.0, r.Max)
	assert.Equal(t, 30.0, r.Mean)
	assert.Equal(t, []float64{50, 10, 40, 20, 30}, r.Times, "times keep trace order")
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name        string
		clicks      []int
		transitions []int
		want        [][2]int
	}{
		{"none", nil, nil, nil},
		{"one to one", []int{1, 10}, []int{5, 15}, [][2]int{{1, 5}, {10, 15}}},
		{"skipped flash", []int{1, 3, 10}, []int{5, 15}, [][2]int{{3, 5}, {10, 15}}},
		{"orphan transition", []int{1}, []int{5, 15}, [][2]int{{1, 5}}},
		{"trailing click", []int{1, 20}, []int{5}, [][2]int{{1, 5}}},
		{"click on transition sample", []int{5}, []int{5}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, match(tt.clicks, tt.transitions))
		})
	}
}

func TestEstimateBlack(t *testing.T) {
	light := []float64{3, 9, 4, 100, 2}
	black, ok := EstimateBlack(light, []bool{false, false, false, true, false})
	assert.True(t, ok)
	assert.Equal(t, 9.0, black)

	_, ok = EstimateBlack(light, []bool{true, false, false, false, false})
	assert.False(t, ok)
	_, ok = EstimateBlack(light, make([]bool, 5))
	assert.False(t, ok)
}

func TestLowerSensitivity(t *testing.T) {
	next, ok := LowerSensitivity(150, 3)
	assert.True(t, ok)
	assert.Equal(t, 2, next)

	_, ok = LowerSensitivity(150, 0)
	assert.False(t, ok)
	_, ok = LowerSensitivity(CalibrationLimit, 3)
	assert.False(t, ok)
}
