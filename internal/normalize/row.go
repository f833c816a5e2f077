package normalize

import "time"

// Family names a semantic time-series family from spec.md §3.
type Family string

const (
	FamilyRTLBMP           Family = "rt_lbmp"
	FamilyDALBMP           Family = "da_lbmp"
	FamilyTWLBMP           Family = "tw_lbmp"
	FamilyRTLoad           Family = "rt_load"
	FamilyLoadForecast     Family = "load_forecast"
	FamilyInterfaceFlow    Family = "interface_flow"
	FamilyAncillary        Family = "ancillary"
	FamilyConstraint       Family = "constraint"
	FamilyExternalRTOPrice Family = "external_rto_price"
	FamilyATCTTC           Family = "atc_ttc"
	FamilyOutage           Family = "outage"
	FamilyWeather          Family = "weather"
	FamilyFuelMix          Family = "fuel_mix"
	FamilyAdvisory         Family = "advisory"
)

// Row is a single normalized, flat record emitted by a transformer. Not
// every field applies to every family; unused fields are left at their zero
// value. Numeric measurements are nullable pointers so a source row with no
// value is never fabricated into a zero (spec.md §3 invariant).
type Row struct {
	Family Family
	Ts     time.Time

	ZoneName      string
	InterfaceName string

	Market         string
	ServiceType    string
	ConstraintName string
	RTO            string
	OutageType     string
	ResourceName   string
	ResourceType   string
	ForecastType   string
	Direction      string
	FuelType       string
	Location       string
	AdvisoryType   string
	Title          string
	Message        string
	Severity       string
	Status         string

	StartT     *time.Time
	EndT       *time.Time
	ForecastTs *time.Time

	Binding *bool

	// Numeric holds family-specific measurement fields keyed by the column
	// name used in §3's family schema (e.g. "lbmp", "mcc", "mcl",
	// "load_mw", "forecast_mw", "flow_mw", ...).
	Numeric map[string]*float64
}

func newRow(family Family, ts time.Time) Row {
	return Row{Family: family, Ts: ts, Numeric: make(map[string]*float64)}
}

// IdempotencyKey returns the tuple spec.md §3 defines as unique per family,
// used both for in-CSV duplicate collapsing and as the writer's upsert key.
func (r Row) IdempotencyKey() string {
	switch r.Family {
	case FamilyAncillary:
		return r.Ts.String() + "|" + r.ZoneName + "|" + r.Market + "|" + r.ServiceType
	case FamilyConstraint:
		return r.Ts.String() + "|" + r.ConstraintName + "|" + r.Market
	case FamilyExternalRTOPrice:
		return r.Ts.String() + "|" + r.RTO
	case FamilyInterfaceFlow, FamilyATCTTC:
		return r.Ts.String() + "|" + r.InterfaceName
	case FamilyOutage:
		return r.Ts.String() + "|" + r.ResourceName + "|" + r.OutageType
	case FamilyWeather:
		return r.Ts.String() + "|" + r.Location
	case FamilyFuelMix:
		return r.Ts.String() + "|" + r.FuelType
	case FamilyAdvisory:
		return r.Ts.String() + "|" + r.AdvisoryType + "|" + r.Title
	default:
		return r.Ts.String() + "|" + r.ZoneName
	}
}
