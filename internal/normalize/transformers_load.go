package normalize

import "sort"

// rtLoadTransformer handles the actual real-time zonal load report: one row
// per zone per five-minute interval, already in long form.
type rtLoadTransformer struct{}

func (rtLoadTransformer) Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, err := parseCSV(csvBytes)
	if err != nil {
		return nil, nil, err
	}

	tag := string(FamilyRTLoad)
	if err := t.requireColumns(tag, "timestamp", "name", "load"); err != nil {
		return nil, nil, err
	}

	var rows []Row
	var warnings []ParseWarning
	for i, rec := range t.rows {
		ts, err := ParseTimestamp(t.get(rec, "timestamp"))
		if err != nil {
			warnings = append(warnings, ParseWarning{Row: i + 2, Reason: err.Error()})
			continue
		}
		r := newRow(FamilyRTLoad, ts)
		r.ZoneName = CanonicalName(t.get(rec, "name"))
		r.Numeric["load_mw"] = ParseNullableFloat(t.get(rec, "load"))
		rows = append(rows, r)
	}
	return rows, warnings, nil
}

// loadForecastTransformer handles the published load forecast report, which
// arrives wide: one "Time Stamp" column plus one column per zone. Each zone
// column becomes its own long-form row (spec.md §3 reshape requirement).
type loadForecastTransformer struct{}

func (loadForecastTransformer) Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, err := parseCSV(csvBytes)
	if err != nil {
		return nil, nil, err
	}

	tag := string(FamilyLoadForecast)
	if err := t.requireColumns(tag, "time stamp"); err != nil {
		return nil, nil, err
	}

	zoneCols := t.columnsExcluding("time stamp")
	sort.Strings(zoneCols) // deterministic output order; map iteration in columnsExcluding is not

	var rows []Row
	var warnings []ParseWarning
	for i, rec := range t.rows {
		ts, err := ParseTimestamp(t.get(rec, "time stamp"))
		if err != nil {
			warnings = append(warnings, ParseWarning{Row: i + 2, Reason: err.Error()})
			continue
		}
		for _, col := range zoneCols {
			v := ParseNullableFloat(t.get(rec, col))
			if v == nil {
				continue // a zone with no published forecast for this hour is not a row
			}
			r := newRow(FamilyLoadForecast, ts)
			r.ZoneName = CanonicalName(col)
			r.ForecastType = "day_ahead"
			r.Numeric["forecast_mw"] = v
			rows = append(rows, r)
		}
	}
	return rows, warnings, nil
}
