package normalize

// interfaceFlowTransformer handles the real-time scheduled-flow report:
// timestamp, interface name, and a signed MW flow.
type interfaceFlowTransformer struct{}

func (interfaceFlowTransformer) Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, err := parseCSV(csvBytes)
	if err != nil {
		return nil, nil, err
	}

	tag := string(FamilyInterfaceFlow)
	if err := t.requireColumns(tag, "timestamp", "interface name", "flow (mwh)"); err != nil {
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
		r := newRow(FamilyInterfaceFlow, ts)
		r.InterfaceName = CanonicalName(t.get(rec, "interface name"))
		r.Numeric["flow_mw"] = ParseNullableFloat(t.get(rec, "flow (mwh)"))
		if t.has("positive limit (mwh)") {
			r.Numeric["pos_limit_mw"] = ParseNullableFloat(t.get(rec, "positive limit (mwh)"))
		}
		if t.has("negative limit (mwh)") {
			r.Numeric["neg_limit_mw"] = ParseNullableFloat(t.get(rec, "negative limit (mwh)"))
		}
		rows = append(rows, r)
	}
	return rows, warnings, nil
}

// atcTTCTransformer handles the available/total transfer capability report:
// one row per interface per hour, with separate ATC and TTC measurements.
type atcTTCTransformer struct{}

func (atcTTCTransformer) Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, err := parseCSV(csvBytes)
	if err != nil {
		return nil, nil, err
	}

	tag := string(FamilyATCTTC)
	if err := t.requireColumns(tag, "timestamp", "interface name"); err != nil {
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
		r := newRow(FamilyATCTTC, ts)
		r.InterfaceName = CanonicalName(t.get(rec, "interface name"))
		r.ForecastType = t.get(rec, "forecast type")
		r.Direction = t.get(rec, "direction")
		if t.has("atc") {
			r.Numeric["atc_mw"] = ParseNullableFloat(t.get(rec, "atc"))
		}
		if t.has("ttc") {
			r.Numeric["ttc_mw"] = ParseNullableFloat(t.get(rec, "ttc"))
		}
		if t.has("trm") {
			r.Numeric["trm_mw"] = ParseNullableFloat(t.get(rec, "trm"))
		}
		rows = append(rows, r)
	}
	return rows, warnings, nil
}
