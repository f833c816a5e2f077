package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Engine answers C9's computed-metrics queries by fetching the minimal raw
// rows each metric needs and reducing them with the pure compute functions
// in compute.go / signals.go.
type Engine struct {
	db *sqlx.DB
}

func NewEngine(db *sqlx.DB) *Engine {
	return &Engine{db: db}
}

type pointScan struct {
	Ts    time.Time `db:"ts"`
	Zone  string    `db:"zone_name"`
	Value *float64  `db:"value"`
}

func (e *Engine) fetchZonePoints(ctx context.Context, table, valueCol string, start, end time.Time, zones []string) ([]Point, error) {
	query := fmt.Sprintf(`SELECT t.ts AS ts, z.name AS zone_name, t.%s AS value
		FROM %s t JOIN zones z ON z.id = t.zone_id
		WHERE t.ts >= ? AND t.ts <= ?`, valueCol, table)
	args := []interface{}{start, end}

	if len(zones) > 0 {
		placeholders := make([]string, len(zones))
		for i, z := range zones {
			placeholders[i] = "?"
			args = append(args, z)
		}
		query += fmt.Sprintf(" AND z.name IN (%s)", strings.Join(placeholders, ", "))
	}
	query += " ORDER BY t.ts, z.name"

	var rows []pointScan
	if err := e.db.SelectContext(ctx, &rows, e.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("metrics: fetch %s: %w", table, err)
	}

	out := make([]Point, len(rows))
	for i, r := range rows {
		out[i] = Point{Ts: r.Ts, Zone: r.Zone, Value: r.Value}
	}
	return out, nil
}

func (e *Engine) fetchGenerationTotals(ctx context.Context, start, end time.Time) (map[time.Time]float64, error) {
	var rows []struct {
		Ts    time.Time `db:"ts"`
		Total float64   `db:"total"`
	}
	query := e.db.Rebind(`SELECT ts, COALESCE(SUM(generation_mw), 0) AS total FROM fuel_mix WHERE ts >= ? AND ts <= ? GROUP BY ts`)
	if err := e.db.SelectContext(ctx, &rows, query, start, end); err != nil {
		return nil, fmt.Errorf("metrics: fetch fuel_mix totals: %w", err)
	}
	out := make(map[time.Time]float64, len(rows))
	for _, r := range rows {
		out[r.Ts] = r.Total
	}
	return out, nil
}

func (e *Engine) fetchLoadTotals(ctx context.Context, start, end time.Time) (map[time.Time]float64, error) {
	var rows []struct {
		Ts    time.Time `db:"ts"`
		Total float64   `db:"total"`
	}
	query := e.db.Rebind(`SELECT ts, COALESCE(SUM(load_mw), 0) AS total FROM rt_load WHERE ts >= ? AND ts <= ? GROUP BY ts`)
	if err := e.db.SelectContext(ctx, &rows, query, start, end); err != nil {
		return nil, fmt.Errorf("metrics: fetch rt_load totals: %w", err)
	}
	out := make(map[time.Time]float64, len(rows))
	for _, r := range rows {
		out[r.Ts] = r.Total
	}
	return out, nil
}

func pointsByZone(points []Point) map[string][]Point {
	out := map[string][]Point{}
	for _, p := range points {
		out[p.Zone] = append(out[p.Zone], p)
	}
	return out
}

// RTDASpread is C9's rt_da_spread operation.
func (e *Engine) RTDASpread(ctx context.Context, start, end time.Time, zones []string, minSpread *float64) ([]SpreadRow, error) {
	rt, err := e.fetchZonePoints(ctx, "rt_lbmp", "lbmp", start, end, zones)
	if err != nil {
		return nil, err
	}
	da, err := e.fetchZonePoints(ctx, "da_lbmp", "lbmp", start.Add(-time.Hour), end, zones)
	if err != nil {
		return nil, err
	}
	return computeRTDASpread(rt, da, minSpread), nil
}

// ZoneSpread is C9's zone_spread operation.
func (e *Engine) ZoneSpread(ctx context.Context, start, end time.Time) ([]ZoneSpreadRow, error) {
	rt, err := e.fetchZonePoints(ctx, "rt_lbmp", "lbmp", start, end, nil)
	if err != nil {
		return nil, err
	}
	return computeZoneSpread(rt), nil
}

// ReserveMargin is C9's reserve_margin operation.
func (e *Engine) ReserveMargin(ctx context.Context, start, end time.Time) ([]ReserveMarginRow, error) {
	gen, err := e.fetchGenerationTotals(ctx, start, end)
	if err != nil {
		return nil, err
	}
	load, err := e.fetchLoadTotals(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return computeReserveMargin(gen, load), nil
}

// LoadForecastError is C9's load_forecast_error operation.
func (e *Engine) LoadForecastError(ctx context.Context, start, end time.Time) ([]ForecastErrorRow, error) {
	actual, err := e.fetchZonePoints(ctx, "rt_load", "load_mw", start.Add(-time.Hour), end.Add(time.Hour), nil)
	if err != nil {
		return nil, err
	}
	forecast, err := e.fetchZonePoints(ctx, "load_forecast", "forecast_mw", start, end, nil)
	if err != nil {
		return nil, err
	}
	return computeLoadForecastError(actual, forecast), nil
}

// PriceVolatility is C9's price_volatility operation over windowHours
// ending at end.
func (e *Engine) PriceVolatility(ctx context.Context, end time.Time, windowHours int, zones []string) ([]VolatilityRow, error) {
	start := end.Add(-time.Duration(windowHours) * time.Hour)
	points, err := e.fetchZonePoints(ctx, "rt_lbmp", "lbmp", start, end, zones)
	if err != nil {
		return nil, err
	}
	return computePriceVolatility(pointsByZone(points)), nil
}

// Correlation is C9's correlation operation over windowHours ending at end.
func (e *Engine) Correlation(ctx context.Context, end time.Time, windowHours int, zones []string) ([]CorrelationRow, error) {
	start := end.Add(-time.Duration(windowHours) * time.Hour)
	points, err := e.fetchZonePoints(ctx, "rt_lbmp", "lbmp", start, end, zones)
	if err != nil {
		return nil, err
	}
	return computeCorrelation(pointsByZone(points)), nil
}

// TradingSignals is C9's trading_signals operation over the most recent
// windowHours.
func (e *Engine) TradingSignals(ctx context.Context, end time.Time, windowHours int) ([]Signal, error) {
	start := end.Add(-time.Duration(windowHours) * time.Hour)

	spreads, err := e.RTDASpread(ctx, start, end, nil, nil)
	if err != nil {
		return nil, err
	}
	errs, err := e.LoadForecastError(ctx, start, end)
	if err != nil {
		return nil, err
	}
	margins, err := e.ReserveMargin(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return computeTradingSignals(spreads, errs, margins), nil
}
