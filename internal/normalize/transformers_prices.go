package normalize

// lbmpTransformer handles the three LBMP (locational based marginal price)
// families: real-time, day-ahead, and two-tier weighted. All three share the
// same CSV shape published by the upstream zone-price reports; only the
// cadence and family tag differ (the registry's category_tag, carried as
// Context.TransformerTag, selects which of the three is used).
type lbmpTransformer struct {
	family Family
}

func (tr lbmpTransformer) Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, err := parseCSV(csvBytes)
	if err != nil {
		return nil, nil, err
	}

	tag := string(tr.family)
	if err := t.requireColumns(tag, "time stamp", "name", "lbmp ($/mwhr)"); err != nil {
		return nil, nil, err
	}

	var rows []Row
	var warnings []ParseWarning
	for i, rec := range t.rows {
		rawTs := t.get(rec, "time stamp")
		ts, err := ParseTimestamp(rawTs)
		if err != nil {
			warnings = append(warnings, ParseWarning{Row: i + 2, Reason: err.Error()})
			continue
		}

		r := newRow(tr.family, ts)
		r.ZoneName = CanonicalName(t.get(rec, "name"))
		r.Numeric["lbmp"] = ParseNullableFloat(t.get(rec, "lbmp ($/mwhr)"))
		if t.has("marginal cost losses ($/mwhr)") {
			r.Numeric["mcl"] = ParseNullableFloat(t.get(rec, "marginal cost losses ($/mwhr)"))
		}
		if t.has("marginal cost congestion ($/mwhr)") {
			r.Numeric["mcc"] = ParseNullableFloat(t.get(rec, "marginal cost congestion ($/mwhr)"))
		}
		rows = append(rows, r)
	}

	return rows, warnings, nil
}
