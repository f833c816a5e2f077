package normalize

// outageTransformer handles the generator/transmission outage report.
type outageTransformer struct{}

func (outageTransformer) Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, err := parseCSV(csvBytes)
	if err != nil {
		return nil, nil, err
	}

	tag := string(FamilyOutage)
	if err := t.requireColumns(tag, "timestamp", "outage type", "resource name"); err != nil {
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
		r := newRow(FamilyOutage, ts)
		r.OutageType = t.get(rec, "outage type")
		r.Market = t.get(rec, "market")
		r.ResourceName = t.get(rec, "resource name")
		r.ResourceType = t.get(rec, "resource type")
		r.Status = t.get(rec, "status")
		r.Numeric["mw_capacity"] = ParseNullableFloat(t.get(rec, "mw capacity"))
		r.Numeric["mw_outage"] = ParseNullableFloat(t.get(rec, "mw outage"))
		if t.has("start time") {
			if st, err := ParseTimestamp(t.get(rec, "start time")); err == nil {
				r.StartT = &st
			}
		}
		if t.has("end time") {
			if et, err := ParseTimestamp(t.get(rec, "end time")); err == nil {
				r.EndT = &et
			}
		}
		rows = append(rows, r)
	}
	return rows, warnings, nil
}

// weatherTransformer handles the zone-weather-forecast report. ts is the
// forecast-issuance time; forecast_ts is the hour the forecast describes.
type weatherTransformer struct{}

func (weatherTransformer) Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, err := parseCSV(csvBytes)
	if err != nil {
		return nil, nil, err
	}

	tag := string(FamilyWeather)
	if err := t.requireColumns(tag, "timestamp", "location"); err != nil {
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
		r := newRow(FamilyWeather, ts)
		r.Location = t.get(rec, "location")
		if t.has("forecast timestamp") {
			if ft, err := ParseTimestamp(t.get(rec, "forecast timestamp")); err == nil {
				r.ForecastTs = &ft
			}
		}
		r.Numeric["temp_f"] = ParseNullableFloat(t.get(rec, "temp_f"))
		r.Numeric["humidity"] = ParseNullableFloat(t.get(rec, "humidity"))
		r.Numeric["wind_mph"] = ParseNullableFloat(t.get(rec, "wind_mph"))
		r.Direction = t.get(rec, "wind_dir")
		r.Numeric["cloud_pct"] = ParseNullableFloat(t.get(rec, "cloud_pct"))
		rows = append(rows, r)
	}
	return rows, warnings, nil
}

// fuelMixTransformer handles the real-time fuel-mix report: generation and
// share of load by fuel type, one row per fuel type per interval.
type fuelMixTransformer struct{}

func (fuelMixTransformer) Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, err := parseCSV(csvBytes)
	if err != nil {
		return nil, nil, err
	}

	tag := string(FamilyFuelMix)
	if err := t.requireColumns(tag, "timestamp", "fuel category", "gen mw"); err != nil {
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
		r := newRow(FamilyFuelMix, ts)
		r.FuelType = t.get(rec, "fuel category")
		r.Numeric["generation_mw"] = ParseNullableFloat(t.get(rec, "gen mw"))
		if t.has("pct of load") {
			r.Numeric["pct"] = ParseNullableFloat(t.get(rec, "pct of load"))
		}
		rows = append(rows, r)
	}
	return rows, warnings, nil
}

// advisoryTransformer handles operator advisory/alert bulletins: free-text
// notices with a severity level, not tied to any zone or interface.
type advisoryTransformer struct{}

func (advisoryTransformer) Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, err := parseCSV(csvBytes)
	if err != nil {
		return nil, nil, err
	}

	tag := string(FamilyAdvisory)
	if err := t.requireColumns(tag, "timestamp", "advisory type", "title"); err != nil {
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
		r := newRow(FamilyAdvisory, ts)
		r.AdvisoryType = t.get(rec, "advisory type")
		r.Title = t.get(rec, "title")
		r.Message = t.get(rec, "message")
		r.Severity = t.get(rec, "severity")
		rows = append(rows, r)
	}
	return rows, warnings, nil
}
