package normalize

import (
	"time"
)

// Context carries the per-job inputs a transformer needs beyond the raw CSV
// bytes: which source/date this run is for, and the scrape-start instant
// used to stamp snapshot-cadence rows (spec.md §9 open question, resolved
// in DESIGN.md: snapshot timestamp = scrape-start, not download-complete).
type Context struct {
	SourceCode     string
	TransformerTag string // the registry's category_tag; see registry.Source.Category
	TargetDate     time.Time
	ScrapeStart    time.Time
	IsSnapshot     bool
}

// Transformer turns one report's raw CSV bytes into a flat, finite sequence
// of Rows. Implementations ignore unknown columns and fail fast via
// *SchemaError when a required column is absent.
type Transformer interface {
	Transform(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error)
}

var dispatch = map[string]Transformer{
	string(FamilyRTLBMP):           lbmpTransformer{family: FamilyRTLBMP},
	string(FamilyDALBMP):           lbmpTransformer{family: FamilyDALBMP},
	string(FamilyTWLBMP):           lbmpTransformer{family: FamilyTWLBMP},
	string(FamilyRTLoad):           rtLoadTransformer{},
	string(FamilyLoadForecast):     loadForecastTransformer{},
	string(FamilyInterfaceFlow):    interfaceFlowTransformer{},
	string(FamilyAncillary):        ancillaryTransformer{},
	string(FamilyConstraint):       constraintTransformer{},
	string(FamilyExternalRTOPrice): externalRTOTransformer{},
	string(FamilyATCTTC):           atcTTCTransformer{},
	string(FamilyOutage):           outageTransformer{},
	string(FamilyWeather):          weatherTransformer{},
	string(FamilyFuelMix):          fuelMixTransformer{},
	string(FamilyAdvisory):         advisoryTransformer{},
}

// Normalize dispatches to the Transformer registered for
// ctx.TransformerTag, then collapses duplicate rows (same idempotency key)
// to the last occurrence, consistent with upsert semantics (spec.md §4.3).
func Normalize(ctx Context, csvBytes []byte) ([]Row, []ParseWarning, error) {
	t, ok := dispatch[ctx.TransformerTag]
	if !ok {
		return nil, nil, &SchemaError{TransformerTag: ctx.TransformerTag, Column: "(no transformer registered for this tag)"}
	}

	rows, warnings, err := t.Transform(ctx, csvBytes)
	if err != nil {
		return nil, nil, err
	}

	return dedupeLastWins(rows), warnings, nil
}

func dedupeLastWins(rows []Row) []Row {
	order := make([]string, 0, len(rows))
	byKey := make(map[string]Row, len(rows))
	for _, r := range rows {
		k := r.IdempotencyKey()
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = r
	}
	out := make([]Row, 0, len(order))
	for _, k := range order {
		out = append(out, byKey[k])
	}
	return out
}
