package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// QueryFilter is the set of recognized query parameters from spec.md §4.11
// that apply to a raw family read. Only the fields relevant to a given
// family's schema take effect; callers pass the full struct regardless.
type QueryFilter struct {
	Start *time.Time
	End   *time.Time
	Limit int

	Zones         []string
	MarketType    string
	RTOName       string
	InterfaceName string
	OutageType    string
	FuelType      string
	ServiceType   string
}

// QueryFamily returns the most recent rows (newest-first, capped at
// filter.Limit) for family, with zone_id/interface_id resolved back to
// their names. The API layer shapes these generic rows into its response
// contracts; this layer performs no business logic (spec.md §4.11).
func (s *Store) QueryFamily(ctx context.Context, family string, filter QueryFilter) ([]map[string]interface{}, error) {
	schema, ok := Families[family]
	if !ok {
		return nil, fmt.Errorf("store: unknown family %q", family)
	}

	hasZone := containsColumn(schema.KeyColumns, "zone_id")
	hasInterface := containsColumn(schema.KeyColumns, "interface_id")

	selectCols := []string{"t.*"}
	joins := ""
	if hasZone {
		selectCols = append(selectCols, "z.name AS zone_name")
		joins += " JOIN zones z ON z.id = t.zone_id"
	}
	if hasInterface {
		selectCols = append(selectCols, "i.name AS interface_name")
		joins += " JOIN interfaces i ON i.id = t.interface_id"
	}

	query := fmt.Sprintf("SELECT %s FROM %s t%s", strings.Join(selectCols, ", "), schema.Table, joins)

	var where []string
	var args []interface{}

	if filter.Start != nil {
		where = append(where, "t.ts >= ?")
		args = append(args, *filter.Start)
	}
	if filter.End != nil {
		where = append(where, "t.ts <= ?")
		args = append(args, *filter.End)
	}
	if hasZone && len(filter.Zones) > 0 {
		placeholders := make([]string, len(filter.Zones))
		for i, z := range filter.Zones {
			placeholders[i] = "?"
			args = append(args, z)
		}
		where = append(where, fmt.Sprintf("z.name IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filter.MarketType != "" && containsColumn(schema.KeyColumns, "market") {
		where = append(where, "t.market = ?")
		args = append(args, filter.MarketType)
	}
	if filter.RTOName != "" && containsColumn(schema.KeyColumns, "rto") {
		where = append(where, "t.rto = ?")
		args = append(args, filter.RTOName)
	}
	if filter.InterfaceName != "" && hasInterface {
		where = append(where, "i.name = ?")
		args = append(args, filter.InterfaceName)
	}
	if filter.OutageType != "" && containsColumn(schema.KeyColumns, "outage_type") {
		where = append(where, "t.outage_type = ?")
		args = append(args, filter.OutageType)
	}
	if filter.FuelType != "" && containsColumn(schema.KeyColumns, "fuel_type") {
		where = append(where, "t.fuel_type = ?")
		args = append(args, filter.FuelType)
	}
	if filter.ServiceType != "" && containsColumn(schema.KeyColumns, "service_type") {
		where = append(where, "t.service_type = ?")
		args = append(args, filter.ServiceType)
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.ts DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 10000 {
		limit = 1000
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := s.DB.QueryxContext(ctx, s.DB.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("store: query %s: %w", family, err)
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", family, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func containsColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}
