package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/store"
)

// Params is the parsed, validated form of the query parameters spec.md
// §4.11 recognizes. Every read endpoint accepts the same superset; a
// given handler reads only the fields its family/metric cares about.
type Params struct {
	Start *time.Time
	End   *time.Time
	Limit int

	Zones           []string
	MarketType      string
	RTOName         string
	InterfaceName   string
	OutageType      string
	FuelType        string
	ServiceType     string
	WindowHours     int
	MinSpread       *float64
	MaxErrorPercent *float64
	IncludeAllZones bool
}

// ValidationError is returned for a malformed or out-of-range query
// parameter; handlers map every ValidationError, malformed or out of range,
// to HTTP 422. No ValidationError is answered with HTTP 400.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query parameter %q: %s", e.Param, e.Reason)
}

const dateLayout = "2006-01-02"

// ParseParams validates q against spec.md §4.11's recognized parameter
// set, applying family-appropriate defaults.
func ParseParams(q url.Values, defaultLimit int) (Params, error) {
	p := Params{Limit: defaultLimit, WindowHours: 24}

	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return p, &ValidationError{Param: "start_date", Reason: "must be YYYY-MM-DD"}
		}
		p.Start = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return p, &ValidationError{Param: "end_date", Reason: "must be YYYY-MM-DD"}
		}
		end := t.Add(24 * time.Hour).Add(-time.Nanosecond)
		p.End = &end
	}
	if p.Start != nil && p.End != nil && p.End.Before(*p.Start) {
		return p, &ValidationError{Param: "end_date", Reason: "must not precede start_date"}
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 10000 {
			return p, &ValidationError{Param: "limit", Reason: "must be an integer between 1 and 10000"}
		}
		p.Limit = n
	}

	if v := q.Get("zones"); v != "" {
		for _, z := range strings.Split(v, ",") {
			if z = strings.TrimSpace(z); z != "" {
				p.Zones = append(p.Zones, z)
			}
		}
	}

	if v := q.Get("market_type"); v != "" {
		if v != "realtime" && v != "dayahead" {
			return p, &ValidationError{Param: "market_type", Reason: "must be realtime or dayahead"}
		}
		p.MarketType = v
	}

	p.RTOName = q.Get("rto_name")
	p.InterfaceName = q.Get("interface_name")
	p.OutageType = q.Get("outage_type")
	p.FuelType = q.Get("fuel_type")
	p.ServiceType = q.Get("service_type")

	if v := q.Get("window_hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 168 {
			return p, &ValidationError{Param: "window_hours", Reason: "must be an integer between 1 and 168"}
		}
		p.WindowHours = n
	}

	if v := q.Get("min_spread"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, &ValidationError{Param: "min_spread", Reason: "must be a number"}
		}
		p.MinSpread = &f
	}

	if v := q.Get("max_error_percent"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return p, &ValidationError{Param: "max_error_percent", Reason: "must be a number"}
		}
		p.MaxErrorPercent = &f
	}

	if v := q.Get("include_all_zones"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, &ValidationError{Param: "include_all_zones", Reason: "must be a boolean"}
		}
		p.IncludeAllZones = b
	}

	return p, nil
}

// StoreFilter projects Params onto the subset store.QueryFamily reads.
func (p Params) StoreFilter() store.QueryFilter {
	return store.QueryFilter{
		Start:         p.Start,
		End:           p.End,
		Limit:         p.Limit,
		Zones:         p.Zones,
		MarketType:    p.MarketType,
		RTOName:       p.RTOName,
		InterfaceName: p.InterfaceName,
		OutageType:    p.OutageType,
		FuelType:      p.FuelType,
		ServiceType:   p.ServiceType,
	}
}
