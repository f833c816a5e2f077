package store

import (
	"context"
	"fmt"
)

// Migrate creates every table the core writes to, if it does not already
// exist. Safe to call on every process start (spec.md §4.5 does not define
// a migration tool; idempotent DDL suffices for this core).
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.ddlStatements() {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) ddlStatements() []string {
	pk := "SERIAL PRIMARY KEY"
	boolType := "BOOLEAN"
	if s.Driver == DriverSQLite {
		pk = "INTEGER PRIMARY KEY AUTOINCREMENT"
		boolType = "INTEGER" // 0/1, modernc.org/sqlite has no native BOOLEAN
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS zones (
			id %s,
			name TEXT NOT NULL UNIQUE
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS interfaces (
			id %s,
			name TEXT NOT NULL UNIQUE
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS jobs (
			id %s,
			source_code TEXT NOT NULL,
			target_date TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			status TEXT NOT NULL,
			rows_inserted INTEGER NOT NULL DEFAULT 0,
			rows_updated INTEGER NOT NULL DEFAULT 0,
			error_text TEXT,
			url_used TEXT
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_jobs_source_date ON jobs (source_code, target_date)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rt_lbmp (
			id %s,
			ts TIMESTAMP NOT NULL,
			zone_id INTEGER NOT NULL,
			lbmp DOUBLE PRECISION,
			mcc DOUBLE PRECISION,
			mcl DOUBLE PRECISION,
			UNIQUE (ts, zone_id)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_rt_lbmp_ts ON rt_lbmp (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_rt_lbmp_zone ON rt_lbmp (zone_id)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS da_lbmp (
			id %s,
			ts TIMESTAMP NOT NULL,
			zone_id INTEGER NOT NULL,
			lbmp DOUBLE PRECISION,
			mcc DOUBLE PRECISION,
			mcl DOUBLE PRECISION,
			UNIQUE (ts, zone_id)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_da_lbmp_ts ON da_lbmp (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_da_lbmp_zone ON da_lbmp (zone_id)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tw_lbmp (
			id %s,
			ts TIMESTAMP NOT NULL,
			zone_id INTEGER NOT NULL,
			lbmp DOUBLE PRECISION,
			mcc DOUBLE PRECISION,
			mcl DOUBLE PRECISION,
			UNIQUE (ts, zone_id)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_tw_lbmp_ts ON tw_lbmp (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_tw_lbmp_zone ON tw_lbmp (zone_id)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rt_load (
			id %s,
			ts TIMESTAMP NOT NULL,
			zone_id INTEGER NOT NULL,
			load_mw DOUBLE PRECISION,
			UNIQUE (ts, zone_id)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_rt_load_ts ON rt_load (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_rt_load_zone ON rt_load (zone_id)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS load_forecast (
			id %s,
			ts TIMESTAMP NOT NULL,
			zone_id INTEGER NOT NULL,
			forecast_mw DOUBLE PRECISION,
			UNIQUE (ts, zone_id)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_load_forecast_ts ON load_forecast (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_load_forecast_zone ON load_forecast (zone_id)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS interface_flow (
			id %s,
			ts TIMESTAMP NOT NULL,
			interface_id INTEGER NOT NULL,
			flow_mw DOUBLE PRECISION,
			pos_limit_mw DOUBLE PRECISION,
			neg_limit_mw DOUBLE PRECISION,
			UNIQUE (ts, interface_id)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_interface_flow_ts ON interface_flow (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_interface_flow_iface ON interface_flow (interface_id)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS ancillary (
			id %s,
			ts TIMESTAMP NOT NULL,
			zone_id INTEGER NOT NULL,
			market TEXT NOT NULL,
			service_type TEXT NOT NULL,
			price DOUBLE PRECISION,
			UNIQUE (ts, zone_id, market, service_type)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_ancillary_ts ON ancillary (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_ancillary_market_ts ON ancillary (market, ts)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS constraints (
			id %s,
			ts TIMESTAMP NOT NULL,
			constraint_name TEXT NOT NULL,
			market TEXT NOT NULL,
			shadow_price DOUBLE PRECISION,
			binding %s,
			limit_mw DOUBLE PRECISION,
			flow_mw DOUBLE PRECISION,
			UNIQUE (ts, constraint_name, market)
		)`, pk, boolType),
		`CREATE INDEX IF NOT EXISTS idx_constraints_ts ON constraints (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_constraints_market_ts ON constraints (market, ts)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS external_rto_price (
			id %s,
			ts TIMESTAMP NOT NULL,
			rto TEXT NOT NULL,
			rtc_price DOUBLE PRECISION,
			cts_price DOUBLE PRECISION,
			price_diff DOUBLE PRECISION,
			UNIQUE (ts, rto)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_external_rto_price_ts ON external_rto_price (ts)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS atc_ttc (
			id %s,
			ts TIMESTAMP NOT NULL,
			interface_id INTEGER NOT NULL,
			forecast_type TEXT,
			atc_mw DOUBLE PRECISION,
			ttc_mw DOUBLE PRECISION,
			trm_mw DOUBLE PRECISION,
			direction TEXT,
			UNIQUE (ts, interface_id)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_atc_ttc_ts ON atc_ttc (ts)`,
		`CREATE INDEX IF NOT EXISTS idx_atc_ttc_iface ON atc_ttc (interface_id)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS outage (
			id %s,
			ts TIMESTAMP NOT NULL,
			resource_name TEXT NOT NULL,
			outage_type TEXT NOT NULL,
			market TEXT,
			resource_type TEXT,
			mw_capacity DOUBLE PRECISION,
			mw_outage DOUBLE PRECISION,
			start_t TIMESTAMP,
			end_t TIMESTAMP,
			status TEXT,
			UNIQUE (ts, resource_name, outage_type)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_outage_ts ON outage (ts)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS weather (
			id %s,
			ts TIMESTAMP NOT NULL,
			location TEXT NOT NULL,
			forecast_ts TIMESTAMP,
			temp_f DOUBLE PRECISION,
			humidity DOUBLE PRECISION,
			wind_mph DOUBLE PRECISION,
			wind_dir TEXT,
			cloud_pct DOUBLE PRECISION,
			UNIQUE (ts, location)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_weather_ts ON weather (ts)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS fuel_mix (
			id %s,
			ts TIMESTAMP NOT NULL,
			fuel_type TEXT NOT NULL,
			generation_mw DOUBLE PRECISION,
			pct DOUBLE PRECISION,
			UNIQUE (ts, fuel_type)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_fuel_mix_ts ON fuel_mix (ts)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS advisory (
			id %s,
			ts TIMESTAMP NOT NULL,
			advisory_type TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT,
			severity TEXT,
			UNIQUE (ts, advisory_type, title)
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_advisory_ts ON advisory (ts)`,
	}
}
