package normalize

// ancillaryTransformer handles ancillary-services clearing-price reports:
// one row per zone per market per service type per hour.
type ancillaryTransformer struct{}

func (ancillaryTransformer) Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, err := parseCSV(csvBytes)
	if err != nil {
		return nil, nil, err
	}

	tag := string(FamilyAncillary)
	if err := t.requireColumns(tag, "timestamp", "name", "market", "service type", "price"); err != nil {
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
		r := newRow(FamilyAncillary, ts)
		r.ZoneName = CanonicalName(t.get(rec, "name"))
		r.Market = t.get(rec, "market")
		r.ServiceType = t.get(rec, "service type")
		r.Numeric["price"] = ParseNullableFloat(t.get(rec, "price"))
		rows = append(rows, r)
	}
	return rows, warnings, nil
}

// constraintTransformer handles the binding-constraint report: constraint
// name, market, shadow price, and whether the constraint is actually
// binding this interval.
type constraintTransformer struct{}

func (constraintTransformer) Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, err := parseCSV(csvBytes)
	if err != nil {
		return nil, nil, err
	}

	tag := string(FamilyConstraint)
	if err := t.requireColumns(tag, "timestamp", "constraint name", "market"); err != nil {
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
		r := newRow(FamilyConstraint, ts)
		r.ConstraintName = t.get(rec, "constraint name")
		r.Market = t.get(rec, "market")
		if t.has("shadow price") {
			r.Numeric["shadow_price"] = ParseNullableFloat(t.get(rec, "shadow price"))
		}
		if t.has("is binding") {
			r.Binding = ParseNullableBool(t.get(rec, "is binding"))
		}
		if t.has("limit (mwh)") {
			r.Numeric["limit_mw"] = ParseNullableFloat(t.get(rec, "limit (mwh)"))
		}
		if t.has("flow (mwh)") {
			r.Numeric["flow_mw"] = ParseNullableFloat(t.get(rec, "flow (mwh)"))
		}
		rows = append(rows, r)
	}
	return rows, warnings, nil
}
