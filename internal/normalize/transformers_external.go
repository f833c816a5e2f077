package normalize

import "strings"

// externalRTOTransformer handles the external-RTO proxy-price report. The
// report itself has no "rto" column; instead the generator-name column
// encodes the neighboring RTO by prefix, and rows whose prefix matches none
// of the known RTOs are dropped rather than guessed at (spec.md §4.3).
type externalRTOTransformer struct{}

func (externalRTOTransformer) Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, err := parseCSV(csvBytes)
	if err != nil {
		return nil, nil, err
	}

	tag := string(FamilyExternalRTOPrice)
	if err := t.requireColumns(tag, "timestamp", "generator name", "rtc price", "cts price"); err != nil {
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

		rto, ok := extractRTO(t.get(rec, "generator name"))
		if !ok {
			continue
		}

		r := newRow(FamilyExternalRTOPrice, ts)
		r.RTO = rto
		rtc := ParseNullableFloat(t.get(rec, "rtc price"))
		cts := ParseNullableFloat(t.get(rec, "cts price"))
		r.Numeric["rtc_price"] = rtc
		r.Numeric["cts_price"] = cts
		if rtc != nil && cts != nil {
			diff := *rtc - *cts
			r.Numeric["price_diff"] = &diff
		}
		rows = append(rows, r)
	}
	return rows, warnings, nil
}

// extractRTO pattern-matches a generator name against known neighboring-RTO
// prefixes (spec.md §4.3). Matching is case-insensitive: the name is
// trimmed and upper-cased before the prefix checks.
func extractRTO(generatorName string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(generatorName))
	switch {
	case strings.HasPrefix(upper, "N.E._"), strings.HasPrefix(upper, "NE_"):
		return "ISO-NE", true
	case strings.HasPrefix(upper, "PJM_"):
		return "PJM", true
	case strings.HasPrefix(upper, "IESO_"):
		return "IESO", true
	default:
		return "", false
	}
}
