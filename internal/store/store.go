// Package store is the C5 time-series writer: an idempotent, driver-agnostic
// upsert layer over either SQLite (single node) or PostgreSQL (multi
// reader), selected at Open time by the DATABASE_URL scheme.
package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver is the database backend a Store is bound to. DDL and some SQL
// fragments (placeholder style, autoincrement syntax) differ between them.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

type Store struct {
	DB     *sqlx.DB
	Driver Driver
}

// Open selects a driver from dsn's scheme ("postgres://", "sqlite://", or a
// bare file path treated as sqlite) and opens a connection pool.
func Open(ctx context.Context, dsn string) (*Store, error) {
	driver, dataSource, err := classify(dsn)
	if err != nil {
		return nil, err
	}

	sqlDriverName := "postgres"
	if driver == DriverSQLite {
		sqlDriverName = "sqlite"
	}

	db, err := sqlx.Open(sqlDriverName, dataSource)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// modernc.org/sqlite has no real connection pool; serialize writers
		// to avoid SQLITE_BUSY under the worker pool's concurrent jobs.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", driver, err)
	}

	return &Store{DB: db, Driver: driver}, nil
}

func classify(dsn string) (Driver, string, error) {
	if dsn == "" {
		return "", "", fmt.Errorf("store: empty DATABASE_URL")
	}

	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		// No recognizable scheme: treat the whole string as a sqlite file path.
		return DriverSQLite, dsn, nil
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return DriverPostgres, dsn, nil
	case "sqlite", "sqlite3":
		path := strings.TrimPrefix(dsn, u.Scheme+"://")
		return DriverSQLite, path, nil
	default:
		return "", "", fmt.Errorf("store: unrecognized DATABASE_URL scheme %q", u.Scheme)
	}
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Rebind converts a query written with "?" placeholders to the bindvar
// style the active driver expects.
func (s *Store) Rebind(query string) string {
	return s.DB.Rebind(query)
}
