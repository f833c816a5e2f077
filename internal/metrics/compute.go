package metrics

import (
	"math"
	"sort"
	"time"
)

// computeRTDASpread aligns each RT point to its containing hour and matches
// it against the DA point for that zone/hour (spec.md §4.9). rt and da need
// not be sorted; the result is ordered by ts then zone.
func computeRTDASpread(rt, da []Point, minSpread *float64) []SpreadRow {
	daByKey := make(map[string]float64, len(da))
	for _, p := range da {
		if p.Value == nil {
			continue
		}
		daByKey[hourZoneKey(p.Ts, p.Zone)] = *p.Value
	}

	var out []SpreadRow
	for _, p := range rt {
		if p.Value == nil {
			continue
		}
		daVal, ok := daByKey[hourZoneKey(truncateToHour(p.Ts), p.Zone)]
		if !ok {
			continue
		}
		spread := *p.Value - daVal
		if minSpread != nil && math.Abs(spread) < *minSpread {
			continue
		}
		var pct *float64
		if daVal != 0 {
			v := 100 * spread / daVal
			pct = &v
		}
		out = append(out, SpreadRow{Ts: p.Ts, Zone: p.Zone, Spread: spread, SpreadPercent: pct})
	}

	sortByTsThenZone(out, func(i int) (time.Time, string) { return out[i].Ts, out[i].Zone })
	return out
}

func hourZoneKey(ts time.Time, zone string) string {
	return ts.Format(time.RFC3339) + "|" + zone
}

func truncateToHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// computeZoneSpread finds, for every distinct ts, the highest- and
// lowest-priced zone and their difference (spec.md §4.9).
func computeZoneSpread(rt []Point) []ZoneSpreadRow {
	byTs := map[time.Time][]Point{}
	for _, p := range rt {
		if p.Value == nil {
			continue
		}
		byTs[p.Ts] = append(byTs[p.Ts], p)
	}

	var out []ZoneSpreadRow
	for ts, points := range byTs {
		if len(points) == 0 {
			continue
		}
		max, min := points[0], points[0]
		for _, p := range points[1:] {
			if *p.Value > *max.Value {
				max = p
			}
			if *p.Value < *min.Value {
				min = p
			}
		}
		out = append(out, ZoneSpreadRow{Ts: ts, MaxZone: max.Zone, MinZone: min.Zone, MaxMinus: *max.Value - *min.Value})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Ts.Before(out[j].Ts) })
	return out
}

// computeReserveMargin subtracts total load from total generation for each
// ts present in both series (spec.md §4.9, scenario 6).
func computeReserveMargin(generationByTs, loadByTs map[time.Time]float64) []ReserveMarginRow {
	var out []ReserveMarginRow
	for ts, gen := range generationByTs {
		load, ok := loadByTs[ts]
		if !ok {
			continue
		}
		margin := gen - load
		var pct *float64
		if load != 0 {
			v := 100 * margin / load
			pct = &v
		}
		out = append(out, ReserveMarginRow{Ts: ts, TotalGeneration: gen, TotalLoad: load, Margin: margin, MarginPercent: pct})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ts.Before(out[j].Ts) })
	return out
}

type hourAccum struct {
	sum   float64
	count int
}

// computeLoadForecastError implements spec.md §4.9's hour-average
// reconciliation with a one-hour fuzzy fallback (exact hour, then hour-1,
// then hour+1), summed across zones per hour (scenario 5).
func computeLoadForecastError(actual5min []Point, forecastByHour []Point) []ForecastErrorRow {
	actualByHourZone := map[time.Time]map[string]*hourAccum{}
	for _, p := range actual5min {
		if p.Value == nil {
			continue
		}
		hour := truncateToHour(p.Ts)
		if actualByHourZone[hour] == nil {
			actualByHourZone[hour] = map[string]*hourAccum{}
		}
		a := actualByHourZone[hour][p.Zone]
		if a == nil {
			a = &hourAccum{}
			actualByHourZone[hour][p.Zone] = a
		}
		a.sum += *p.Value
		a.count++
	}

	forecastByHourTotal := map[time.Time]float64{}
	for _, p := range forecastByHour {
		if p.Value == nil {
			continue
		}
		forecastByHourTotal[truncateToHour(p.Ts)] += *p.Value
	}

	var out []ForecastErrorRow
	for hour, forecastTotal := range forecastByHourTotal {
		actualTotal, ok := actualTotalForHour(actualByHourZone, hour)
		if !ok {
			continue
		}
		errMW := actualTotal - forecastTotal
		var pct *float64
		if forecastTotal != 0 {
			v := 100 * errMW / forecastTotal
			pct = &v
		}
		out = append(out, ForecastErrorRow{Hour: hour, ActualMW: actualTotal, ForecastMW: forecastTotal, ErrorMW: errMW, ErrorPercent: pct})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Hour.Before(out[j].Hour) })
	return out
}

// actualTotalForHour sums the per-zone hourly averages (sum/count) for
// hour, preferring an exact match and falling back to hour-1 then hour+1
// (spec.md §9 open question, resolved: fuzzy window tries exact first).
func actualTotalForHour(actualByHourZone map[time.Time]map[string]*hourAccum, hour time.Time) (float64, bool) {
	for _, candidate := range []time.Time{hour, hour.Add(-time.Hour), hour.Add(time.Hour)} {
		byZone, ok := actualByHourZone[candidate]
		if !ok || len(byZone) == 0 {
			continue
		}
		total := 0.0
		for _, a := range byZone {
			total += a.sum / float64(a.count)
		}
		return total, true
	}
	return 0, false
}

// computePriceVolatility returns rolling std-dev/mean (as a percent) of rt
// LBMP per zone, computed over whatever points are already window-filtered
// by the caller (spec.md §4.9).
func computePriceVolatility(pointsByZone map[string][]Point) []VolatilityRow {
	var out []VolatilityRow
	zones := make([]string, 0, len(pointsByZone))
	for z := range pointsByZone {
		zones = append(zones, z)
	}
	sort.Strings(zones)

	for _, zone := range zones {
		pts := pointsByZone[zone]
		var values []float64
		var latest time.Time
		for _, p := range pts {
			if p.Value == nil {
				continue
			}
			values = append(values, *p.Value)
			if p.Ts.After(latest) {
				latest = p.Ts
			}
		}
		if len(values) < 2 {
			out = append(out, VolatilityRow{Ts: latest, Zone: zone, Value: nil, Samples: len(values)})
			continue
		}
		mean, stddev := meanStdDev(values)
		var v *float64
		if mean != 0 {
			pct := 100 * stddev / mean
			v = &pct
		}
		out = append(out, VolatilityRow{Ts: latest, Zone: zone, Value: v, Samples: len(values)})
	}
	return out
}

func meanStdDev(values []float64) (mean, stddev float64) {
	n := float64(len(values))
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / n

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= n
	return mean, math.Sqrt(variance)
}

// computeCorrelation returns the Pearson correlation between every
// unordered pair of zones present in pointsByZone, aligned by ts; pairs
// with fewer than 2 overlapping samples are omitted (spec.md §4.9).
func computeCorrelation(pointsByZone map[string][]Point) []CorrelationRow {
	zones := make([]string, 0, len(pointsByZone))
	for z := range pointsByZone {
		zones = append(zones, z)
	}
	sort.Strings(zones)

	seriesByZone := make(map[string]map[time.Time]float64, len(zones))
	for _, zone := range zones {
		s := map[time.Time]float64{}
		for _, p := range pointsByZone[zone] {
			if p.Value != nil {
				s[p.Ts] = *p.Value
			}
		}
		seriesByZone[zone] = s
	}

	var out []CorrelationRow
	for i := 0; i < len(zones); i++ {
		for j := i + 1; j < len(zones); j++ {
			a, b := seriesByZone[zones[i]], seriesByZone[zones[j]]
			var xs, ys []float64
			for ts, av := range a {
				if bv, ok := b[ts]; ok {
					xs = append(xs, av)
					ys = append(ys, bv)
				}
			}
			if len(xs) < 2 {
				continue
			}
			r := pearson(xs, ys)
			out = append(out, CorrelationRow{ZoneA: zones[i], ZoneB: zones[j], Correlation: r, N: len(xs)})
		}
	}
	return out
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
		sumY2 += ys[i] * ys[i]
	}
	numerator := n*sumXY - sumX*sumY
	denominator := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func sortByTsThenZone(rows []SpreadRow, key func(i int) (time.Time, string)) {
	sort.Slice(rows, func(i, j int) bool {
		ti, zi := key(i)
		tj, zj := key(j)
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return zi < zj
	})
}
