package store

import (
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/normalize"
)

// FamilyFor maps a normalize.Family to the store family name used to look
// up its FamilySchema; today these are identical strings, but callers
// should go through this function rather than a raw string(family) cast so
// the two naming spaces can diverge later without touching call sites.
func FamilyFor(family normalize.Family) string {
	return string(family)
}

// BuildRecord turns a normalized Row plus its resolved zone/interface
// surrogate ids (nil when the family does not reference that dimension)
// into the column map UpsertFamily expects.
func BuildRecord(row normalize.Row, zoneID, interfaceID *int64) Record {
	rec := Record{"ts": row.Ts}

	switch row.Family {
	case normalize.FamilyRTLBMP, normalize.FamilyDALBMP, normalize.FamilyTWLBMP:
		rec["zone_id"] = zoneID
		rec["lbmp"] = row.Numeric["lbmp"]
		rec["mcc"] = row.Numeric["mcc"]
		rec["mcl"] = row.Numeric["mcl"]

	case normalize.FamilyRTLoad:
		rec["zone_id"] = zoneID
		rec["load_mw"] = row.Numeric["load_mw"]

	case normalize.FamilyLoadForecast:
		rec["zone_id"] = zoneID
		rec["forecast_mw"] = row.Numeric["forecast_mw"]

	case normalize.FamilyInterfaceFlow:
		rec["interface_id"] = interfaceID
		rec["flow_mw"] = row.Numeric["flow_mw"]
		rec["pos_limit_mw"] = row.Numeric["pos_limit_mw"]
		rec["neg_limit_mw"] = row.Numeric["neg_limit_mw"]

	case normalize.FamilyAncillary:
		rec["zone_id"] = zoneID
		rec["market"] = row.Market
		rec["service_type"] = row.ServiceType
		rec["price"] = row.Numeric["price"]

	case normalize.FamilyConstraint:
		rec["constraint_name"] = row.ConstraintName
		rec["market"] = row.Market
		rec["shadow_price"] = row.Numeric["shadow_price"]
		rec["binding"] = row.Binding
		rec["limit_mw"] = row.Numeric["limit_mw"]
		rec["flow_mw"] = row.Numeric["flow_mw"]

	case normalize.FamilyExternalRTOPrice:
		rec["rto"] = row.RTO
		rec["rtc_price"] = row.Numeric["rtc_price"]
		rec["cts_price"] = row.Numeric["cts_price"]
		rec["price_diff"] = row.Numeric["price_diff"]

	case normalize.FamilyATCTTC:
		rec["interface_id"] = interfaceID
		rec["forecast_type"] = row.ForecastType
		rec["atc_mw"] = row.Numeric["atc_mw"]
		rec["ttc_mw"] = row.Numeric["ttc_mw"]
		rec["trm_mw"] = row.Numeric["trm_mw"]
		rec["direction"] = row.Direction

	case normalize.FamilyOutage:
		rec["resource_name"] = row.ResourceName
		rec["outage_type"] = row.OutageType
		rec["market"] = row.Market
		rec["resource_type"] = row.ResourceType
		rec["mw_capacity"] = row.Numeric["mw_capacity"]
		rec["mw_outage"] = row.Numeric["mw_outage"]
		rec["start_t"] = row.StartT
		rec["end_t"] = row.EndT
		rec["status"] = row.Status

	case normalize.FamilyWeather:
		rec["location"] = row.Location
		rec["forecast_ts"] = row.ForecastTs
		rec["temp_f"] = row.Numeric["temp_f"]
		rec["humidity"] = row.Numeric["humidity"]
		rec["wind_mph"] = row.Numeric["wind_mph"]
		rec["wind_dir"] = row.Direction
		rec["cloud_pct"] = row.Numeric["cloud_pct"]

	case normalize.FamilyFuelMix:
		rec["fuel_type"] = row.FuelType
		rec["generation_mw"] = row.Numeric["generation_mw"]
		rec["pct"] = row.Numeric["pct"]

	case normalize.FamilyAdvisory:
		rec["advisory_type"] = row.AdvisoryType
		rec["title"] = row.Title
		rec["message"] = row.Message
		rec["severity"] = row.Severity
	}

	return rec
}
