package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

// TestComputeRTDASpread_Scenario4 is spec.md scenario 4: RT (14:05, WEST,
// 50.00) vs DA (14:00, WEST, 45.00) → spread 5.00, spread_percent ~11.11.
func TestComputeRTDASpread_Scenario4(t *testing.T) {
	rt := []Point{{Ts: time.Date(2025, 11, 13, 14, 5, 0, 0, time.UTC), Zone: "WEST", Value: f(50.00)}}
	da := []Point{{Ts: time.Date(2025, 11, 13, 14, 0, 0, 0, time.UTC), Zone: "WEST", Value: f(45.00)}}

	rows := computeRTDASpread(rt, da, nil)
	require.Len(t, rows, 1)
	assert.InDelta(t, 5.00, rows[0].Spread, 1e-9)
	require.NotNil(t, rows[0].SpreadPercent)
	assert.InDelta(t, 11.11, *rows[0].SpreadPercent, 0.01)
}

func TestComputeRTDASpread_MinSpreadFilter(t *testing.T) {
	rt := []Point{{Ts: time.Date(2025, 11, 13, 14, 5, 0, 0, time.UTC), Zone: "WEST", Value: f(46.00)}}
	da := []Point{{Ts: time.Date(2025, 11, 13, 14, 0, 0, 0, time.UTC), Zone: "WEST", Value: f(45.00)}}

	min := 5.0
	rows := computeRTDASpread(rt, da, &min)
	assert.Empty(t, rows)
}

// TestComputeLoadForecastError_Scenario5 is spec.md scenario 5: five
// rt_load rows at 13:00-13:20 for WEST summing to 10000 (avg 2000), vs
// forecast 1900 → error_mw=100, error_percent ~5.26.
func TestComputeLoadForecastError_Scenario5(t *testing.T) {
	base := time.Date(2025, 11, 13, 13, 0, 0, 0, time.UTC)
	actual := []Point{
		{Ts: base, Zone: "WEST", Value: f(2000)},
		{Ts: base.Add(5 * time.Minute), Zone: "WEST", Value: f(2000)},
		{Ts: base.Add(10 * time.Minute), Zone: "WEST", Value: f(2000)},
		{Ts: base.Add(15 * time.Minute), Zone: "WEST", Value: f(2000)},
		{Ts: base.Add(20 * time.Minute), Zone: "WEST", Value: f(2000)},
	}
	forecast := []Point{{Ts: base, Zone: "WEST", Value: f(1900)}}

	rows := computeLoadForecastError(actual, forecast)
	require.Len(t, rows, 1)
	assert.InDelta(t, 2000, rows[0].ActualMW, 1e-9)
	assert.InDelta(t, 100, rows[0].ErrorMW, 1e-9)
	require.NotNil(t, rows[0].ErrorPercent)
	assert.InDelta(t, 5.26, *rows[0].ErrorPercent, 0.01)
}

func TestComputeLoadForecastError_FuzzyHourFallback(t *testing.T) {
	hour := time.Date(2025, 11, 13, 13, 0, 0, 0, time.UTC)
	// No actual data at hour 13, but hour 12 has some: fuzzy match should
	// prefer hour-1 over leaving the forecast unmatched.
	actual := []Point{{Ts: hour.Add(-time.Hour), Zone: "WEST", Value: f(1000)}}
	forecast := []Point{{Ts: hour, Zone: "WEST", Value: f(950)}}

	rows := computeLoadForecastError(actual, forecast)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1000, rows[0].ActualMW, 1e-9)
}

// TestComputeReserveMargin_Scenario6 is spec.md scenario 6: generation
// 18000, load 19000 → margin -1000, margin% ~-5.26.
func TestComputeReserveMargin_Scenario6(t *testing.T) {
	ts := time.Date(2025, 11, 13, 14, 0, 0, 0, time.UTC)
	gen := map[time.Time]float64{ts: 18000}
	load := map[time.Time]float64{ts: 19000}

	rows := computeReserveMargin(gen, load)
	require.Len(t, rows, 1)
	assert.InDelta(t, -1000, rows[0].Margin, 1e-9)
	require.NotNil(t, rows[0].MarginPercent)
	assert.InDelta(t, -5.26, *rows[0].MarginPercent, 0.01)
}

func TestComputeTradingSignals_LowReserveMarginCritical(t *testing.T) {
	margins := []ReserveMarginRow{{Ts: time.Now(), TotalGeneration: 18000, TotalLoad: 19000, Margin: -1000, MarginPercent: f(-5.26)}}
	signals := computeTradingSignals(nil, nil, margins)
	require.Len(t, signals, 1)
	assert.Equal(t, "low_reserve_margin", signals[0].SignalType)
	assert.Equal(t, SeverityCritical, signals[0].Severity)
}

func TestComputeTradingSignals_RTDASpreadThresholds(t *testing.T) {
	spreads := []SpreadRow{
		{Zone: "WEST", Spread: 16},
		{Zone: "EAST", Spread: 30},
		{Zone: "NORTH", Spread: 5},
	}
	signals := computeTradingSignals(spreads, nil, nil)
	require.Len(t, signals, 2)

	bySeverity := map[Severity]int{}
	for _, s := range signals {
		bySeverity[s.Severity]++
	}
	assert.Equal(t, 1, bySeverity[SeverityWarning])
	assert.Equal(t, 1, bySeverity[SeverityCritical])
}

func TestComputeZoneSpread(t *testing.T) {
	ts := time.Date(2025, 11, 13, 14, 0, 0, 0, time.UTC)
	rt := []Point{
		{Ts: ts, Zone: "WEST", Value: f(40)},
		{Ts: ts, Zone: "EAST", Value: f(55)},
		{Ts: ts, Zone: "NORTH", Value: f(20)},
	}
	rows := computeZoneSpread(rt)
	require.Len(t, rows, 1)
	assert.Equal(t, "EAST", rows[0].MaxZone)
	assert.Equal(t, "NORTH", rows[0].MinZone)
	assert.InDelta(t, 35, rows[0].MaxMinus, 1e-9)
}

func TestComputeCorrelation_OmitsPairsWithFewerThanTwoSamples(t *testing.T) {
	ts1 := time.Date(2025, 11, 13, 14, 0, 0, 0, time.UTC)
	byZone := map[string][]Point{
		"WEST": {{Ts: ts1, Zone: "WEST", Value: f(10)}},
		"EAST": {{Ts: ts1, Zone: "EAST", Value: f(20)}},
	}
	rows := computeCorrelation(byZone)
	assert.Empty(t, rows)
}

func TestComputeCorrelation_PerfectPositiveCorrelation(t *testing.T) {
	ts1 := time.Date(2025, 11, 13, 14, 0, 0, 0, time.UTC)
	ts2 := ts1.Add(time.Hour)
	byZone := map[string][]Point{
		"WEST": {{Ts: ts1, Zone: "WEST", Value: f(10)}, {Ts: ts2, Zone: "WEST", Value: f(20)}},
		"EAST": {{Ts: ts1, Zone: "EAST", Value: f(100)}, {Ts: ts2, Zone: "EAST", Value: f(200)}},
	}
	rows := computeCorrelation(byZone)
	require.Len(t, rows, 1)
	assert.InDelta(t, 1.0, rows[0].Correlation, 1e-9)
}

func TestComputePriceVolatility_InsufficientSampleReturnsNull(t *testing.T) {
	byZone := map[string][]Point{"WEST": {{Ts: time.Now(), Zone: "WEST", Value: f(42)}}}
	rows := computePriceVolatility(byZone)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Value)
}
