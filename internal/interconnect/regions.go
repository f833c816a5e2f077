// Package interconnect is C10's External-Interface Specialization: a
// read-side view over interface_flow that buckets rows by external region
// and derives direction/utilization per spec.md §4.10.
package interconnect

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Region names one of the four external regions spec.md §4.10 names,
// plus the "other" bucket for interfaces that match none of them (open
// question resolved in DESIGN.md).
type Region string

const (
	RegionPJM   Region = "PJM"
	RegionISONE Region = "ISO-NE"
	RegionIESO  Region = "IESO"
	RegionHQ    Region = "HQ"
	RegionOther Region = "other"
)

// Direction is derived from the sign of flow_mw.
type Direction string

const (
	DirectionImport Direction = "import"
	DirectionExport Direction = "export"
	DirectionZero   Direction = "zero"
)

// FlowRow is one interface's most-recent observation, bucketed into a
// Region with its derived Direction and utilization.
type FlowRow struct {
	InterfaceName      string    `json:"interface_name"`
	Region             Region    `json:"region"`
	Ts                 time.Time `json:"timestamp"`
	FlowMW             float64   `json:"flow_mw"`
	Direction          Direction `json:"direction"`
	UtilizationPercent *float64  `json:"utilization_percent"`
}

// classifyRegion maps an interface name to one of the four external
// regions by substring, matching the same kind of name-tagging convention
// the external-RTO transformer uses for the rto field (spec.md §4.3).
func classifyRegion(interfaceName string) Region {
	upper := strings.ToUpper(interfaceName)
	switch {
	case strings.Contains(upper, "PJM"):
		return RegionPJM
	case strings.Contains(upper, "ISONE"), strings.Contains(upper, "ISO-NE"), strings.Contains(upper, "ISO_NE"), strings.Contains(upper, "NE."), strings.HasPrefix(upper, "NE_"):
		return RegionISONE
	case strings.Contains(upper, "IESO"):
		return RegionIESO
	case strings.Contains(upper, "HQ"), strings.Contains(upper, "HYDRO QUEBEC"), strings.Contains(upper, "HYDRO-QUEBEC"):
		return RegionHQ
	default:
		return RegionOther
	}
}

type flowScan struct {
	InterfaceName string    `db:"interface_name"`
	Ts            time.Time `db:"ts"`
	FlowMW        *float64  `db:"flow_mw"`
	PosLimitMW    *float64  `db:"pos_limit_mw"`
	NegLimitMW    *float64  `db:"neg_limit_mw"`
}

// View answers C10's region-bucketed interface queries.
type View struct {
	db *sqlx.DB
}

func NewView(db *sqlx.DB) *View {
	return &View{db: db}
}

// Regions returns, for every external region, the most-recent-ts row for
// each interface tagged into that region. Rows with no flow value are
// omitted (spec.md §3 invariant: never fabricate a measurement).
func (v *View) Regions(ctx context.Context) (map[Region][]FlowRow, error) {
	query := v.db.Rebind(`
		SELECT i.name AS interface_name, f.ts AS ts, f.flow_mw AS flow_mw,
		       f.pos_limit_mw AS pos_limit_mw, f.neg_limit_mw AS neg_limit_mw
		FROM interface_flow f
		JOIN interfaces i ON i.id = f.interface_id
		WHERE f.ts = (SELECT MAX(ts) FROM interface_flow WHERE interface_id = f.interface_id)`)

	var rows []flowScan
	if err := v.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("interconnect: fetch interface_flow: %w", err)
	}

	out := map[Region][]FlowRow{}
	for _, r := range rows {
		if r.FlowMW == nil {
			continue
		}
		region := classifyRegion(r.InterfaceName)
		out[region] = append(out[region], buildFlowRow(r, region))
	}

	for region := range out {
		sort.Slice(out[region], func(i, j int) bool {
			return out[region][i].InterfaceName < out[region][j].InterfaceName
		})
	}
	return out, nil
}

// Region returns only the rows tagged into the given region.
func (v *View) Region(ctx context.Context, region Region) ([]FlowRow, error) {
	all, err := v.Regions(ctx)
	if err != nil {
		return nil, err
	}
	return all[region], nil
}

func buildFlowRow(r flowScan, region Region) FlowRow {
	flow := *r.FlowMW
	row := FlowRow{InterfaceName: r.InterfaceName, Region: region, Ts: r.Ts, FlowMW: flow}

	switch {
	case flow > 0:
		row.Direction = DirectionImport
	case flow < 0:
		row.Direction = DirectionExport
	default:
		row.Direction = DirectionZero
	}

	row.UtilizationPercent = utilizationPercent(flow, row.Direction, r.PosLimitMW, r.NegLimitMW)
	return row
}

// utilizationPercent is 100*|flow|/|relevant limit|, null when the
// relevant limit is absent or zero (spec.md §4.10).
func utilizationPercent(flow float64, direction Direction, posLimit, negLimit *float64) *float64 {
	var limit *float64
	switch direction {
	case DirectionImport:
		limit = posLimit
	case DirectionExport:
		limit = negLimit
	default:
		return nil
	}
	if limit == nil || *limit == 0 {
		return nil
	}
	pct := 100 * absFloat(flow) / absFloat(*limit)
	return &pct
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
