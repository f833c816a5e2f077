package store

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return &Store{DB: sqlxDB, Driver: DriverPostgres}, mock, func() { db.Close() }
}

func TestQueryFamily_JoinsZoneNameAndAppliesFilters(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	ts := time.Date(2025, 11, 13, 14, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"ts", "zone_id", "lbmp", "mcc", "mcl", "zone_name"}).
		AddRow(ts, int64(1), 42.1, 0.5, 1.2, "WEST")

	mock.ExpectQuery("SELECT t.\\*, z.name AS zone_name FROM rt_lbmp t JOIN zones z ON z.id = t.zone_id WHERE t.ts >= \\$1 AND z.name IN \\(\\$2\\) ORDER BY t.ts DESC LIMIT 500").
		WithArgs(ts, "WEST").
		WillReturnRows(rows)

	out, err := s.QueryFamily(context.Background(), "rt_lbmp", QueryFilter{Start: &ts, Zones: []string{"WEST"}, Limit: 500})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "WEST", out[0]["zone_name"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryFamily_UnknownFamily(t *testing.T) {
	s, _, closeDB := newMockStore(t)
	defer closeDB()

	_, err := s.QueryFamily(context.Background(), "not_a_family", QueryFilter{})
	require.Error(t, err)
}

func TestQueryFamily_DefaultLimitAppliedWhenUnset(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	rows := sqlmock.NewRows([]string{"ts", "fuel_type", "generation_mw", "pct"})
	mock.ExpectQuery("SELECT t.\\* FROM fuel_mix t ORDER BY t.ts DESC LIMIT 1000").WillReturnRows(rows)

	_, err := s.QueryFamily(context.Background(), "fuel_mix", QueryFilter{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// The "constraint" family reads from the "constraints" table (the bare word
// "constraint" is reserved in both Postgres and SQLite); this guards the
// generated query against regressing back to the unquoted reserved word.
func TestQueryFamily_ConstraintFamilyQueriesConstraintsTable(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	rows := sqlmock.NewRows([]string{"ts", "constraint_name", "market", "shadow_price", "binding", "limit_mw", "flow_mw"})
	mock.ExpectQuery("SELECT t.\\* FROM constraints t ORDER BY t.ts DESC LIMIT 1000").WillReturnRows(rows)

	_, err := s.QueryFamily(context.Background(), "constraint", QueryFilter{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
