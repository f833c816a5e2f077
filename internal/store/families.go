package store

// FamilySchema describes one time-series table well enough to build
// portable upsert SQL: its name, the key columns that form the idempotency
// key (in key order, spec.md §3 invariant), and the measurement columns.
// allColumns lists the key columns first, followed by the measurements.
type FamilySchema struct {
	Table        string
	KeyColumns   []string
	Measurements []string
}

func (s FamilySchema) allColumns() []string {
	out := make([]string, 0, len(s.KeyColumns)+len(s.Measurements))
	out = append(out, s.KeyColumns...)
	out = append(out, s.Measurements...)
	return out
}

// Families maps each family name from spec.md §3 to its schema. Every
// measurement column is nullable; the key columns are NOT NULL and carry a
// UNIQUE constraint (see schema.go).
var Families = map[string]FamilySchema{
	"rt_lbmp": {
		Table:        "rt_lbmp",
		KeyColumns:   []string{"ts", "zone_id"},
		Measurements: []string{"lbmp", "mcc", "mcl"},
	},
	"da_lbmp": {
		Table:        "da_lbmp",
		KeyColumns:   []string{"ts", "zone_id"},
		Measurements: []string{"lbmp", "mcc", "mcl"},
	},
	"tw_lbmp": {
		Table:        "tw_lbmp",
		KeyColumns:   []string{"ts", "zone_id"},
		Measurements: []string{"lbmp", "mcc", "mcl"},
	},
	"rt_load": {
		Table:        "rt_load",
		KeyColumns:   []string{"ts", "zone_id"},
		Measurements: []string{"load_mw"},
	},
	"load_forecast": {
		Table:        "load_forecast",
		KeyColumns:   []string{"ts", "zone_id"},
		Measurements: []string{"forecast_mw"},
	},
	"interface_flow": {
		Table:        "interface_flow",
		KeyColumns:   []string{"ts", "interface_id"},
		Measurements: []string{"flow_mw", "pos_limit_mw", "neg_limit_mw"},
	},
	"ancillary": {
		Table:        "ancillary",
		KeyColumns:   []string{"ts", "zone_id", "market", "service_type"},
		Measurements: []string{"price"},
	},
	"constraint": {
		Table:        "constraints",
		KeyColumns:   []string{"ts", "constraint_name", "market"},
		Measurements: []string{"shadow_price", "binding", "limit_mw", "flow_mw"},
	},
	"external_rto_price": {
		Table:        "external_rto_price",
		KeyColumns:   []string{"ts", "rto"},
		Measurements: []string{"rtc_price", "cts_price", "price_diff"},
	},
	"atc_ttc": {
		Table:        "atc_ttc",
		KeyColumns:   []string{"ts", "interface_id"},
		Measurements: []string{"forecast_type", "atc_mw", "ttc_mw", "trm_mw", "direction"},
	},
	"outage": {
		Table:        "outage",
		KeyColumns:   []string{"ts", "resource_name", "outage_type"},
		Measurements: []string{"market", "resource_type", "mw_capacity", "mw_outage", "start_t", "end_t", "status"},
	},
	"weather": {
		Table:        "weather",
		KeyColumns:   []string{"ts", "location"},
		Measurements: []string{"forecast_ts", "temp_f", "humidity", "wind_mph", "wind_dir", "cloud_pct"},
	},
	"fuel_mix": {
		Table:        "fuel_mix",
		KeyColumns:   []string{"ts", "fuel_type"},
		Measurements: []string{"generation_mw", "pct"},
	},
	"advisory": {
		Table:        "advisory",
		KeyColumns:   []string{"ts", "advisory_type", "title"},
		Measurements: []string{"message", "severity"},
	},
}
