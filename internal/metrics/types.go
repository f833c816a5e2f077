// Package metrics is the C9 computed-metrics engine: every operation here
// is derived on read from the persisted time series, never stored itself
// (spec.md §4.9).
package metrics

import "time"

// Point is one (ts, zone, value) observation, the common shape fetch
// queries return before a compute function reduces them.
type Point struct {
	Ts    time.Time
	Zone  string
	Value *float64
}

type SpreadRow struct {
	Ts            time.Time `json:"timestamp"`
	Zone          string    `json:"zone_name"`
	Spread        float64   `json:"spread"`
	SpreadPercent *float64  `json:"spread_percent"`
}

type ZoneSpreadRow struct {
	Ts       time.Time `json:"timestamp"`
	MaxZone  string    `json:"max_zone"`
	MinZone  string    `json:"min_zone"`
	MaxMinus float64   `json:"spread"`
}

type ForecastErrorRow struct {
	Hour         time.Time `json:"hour"`
	ActualMW     float64   `json:"actual_mw"`
	ForecastMW   float64   `json:"forecast_mw"`
	ErrorMW      float64   `json:"error_mw"`
	ErrorPercent *float64  `json:"error_percent"`
}

type ReserveMarginRow struct {
	Ts              time.Time `json:"timestamp"`
	TotalGeneration float64   `json:"total_generation_mw"`
	TotalLoad       float64   `json:"total_load_mw"`
	Margin          float64   `json:"margin_mw"`
	MarginPercent   *float64  `json:"margin_percent"`
}

type VolatilityRow struct {
	Ts      time.Time `json:"timestamp"`
	Zone    string    `json:"zone_name"`
	Value   *float64  `json:"volatility_percent"`
	Samples int       `json:"samples"`
}

type CorrelationRow struct {
	ZoneA       string  `json:"zone_a"`
	ZoneB       string  `json:"zone_b"`
	Correlation float64 `json:"correlation"`
	N           int     `json:"n"`
}

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type Signal struct {
	SignalType string    `json:"signal_type"`
	Zone       string    `json:"zone_name,omitempty"`
	Ts         time.Time `json:"timestamp"`
	Value      float64   `json:"value"`
	Severity   Severity  `json:"severity"`
}
