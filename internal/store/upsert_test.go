package store

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockStoreTx(t *testing.T) (*Store, *sqlx.Tx, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	s := &Store{DB: sqlxDB, Driver: DriverPostgres}

	mock.ExpectBegin()
	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	return s, tx, mock, func() { db.Close() }
}

func TestUpsertFamily_InsertsNewKeyTuple(t *testing.T) {
	s, tx, mock, closeDB := newMockStoreTx(t)
	defer closeDB()

	ts := time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT lbmp, mcc, mcl FROM rt_lbmp WHERE ts = \$1 AND zone_id = \$2`).
		WithArgs(ts, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"lbmp", "mcc", "mcl"}))
	mock.ExpectExec(`INSERT INTO rt_lbmp \(ts, zone_id, lbmp, mcc, mcl\) VALUES \(\$1, \$2, \$3, \$4, \$5\)`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	lbmp := 42.10
	rec := Record{"ts": ts, "zone_id": int64(1), "lbmp": &lbmp, "mcc": (*float64)(nil), "mcl": (*float64)(nil)}

	inserted, updated, err := s.UpsertFamily(context.Background(), tx, "rt_lbmp", []Record{rec})
	require.NoError(t, err)
	require.Equal(t, 1, inserted)
	require.Equal(t, 0, updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertFamily_SameValuesProduceNoUpdate(t *testing.T) {
	s, tx, mock, closeDB := newMockStoreTx(t)
	defer closeDB()

	ts := time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT lbmp, mcc, mcl FROM rt_lbmp WHERE ts = \$1 AND zone_id = \$2`).
		WithArgs(ts, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"lbmp", "mcc", "mcl"}).AddRow(42.10, nil, nil))

	lbmp := 42.10
	rec := Record{"ts": ts, "zone_id": int64(1), "lbmp": &lbmp, "mcc": (*float64)(nil), "mcl": (*float64)(nil)}

	inserted, updated, err := s.UpsertFamily(context.Background(), tx, "rt_lbmp", []Record{rec})
	require.NoError(t, err)
	require.Equal(t, 0, inserted)
	require.Equal(t, 0, updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertFamily_ChangedMeasurementProducesUpdate(t *testing.T) {
	s, tx, mock, closeDB := newMockStoreTx(t)
	defer closeDB()

	ts := time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT lbmp, mcc, mcl FROM rt_lbmp WHERE ts = \$1 AND zone_id = \$2`).
		WithArgs(ts, int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"lbmp", "mcc", "mcl"}).AddRow(40.00, nil, nil))
	mock.ExpectExec(`UPDATE rt_lbmp SET lbmp = \$1, mcc = \$2, mcl = \$3 WHERE ts = \$4 AND zone_id = \$5`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	lbmp := 42.10
	rec := Record{"ts": ts, "zone_id": int64(1), "lbmp": &lbmp, "mcc": (*float64)(nil), "mcl": (*float64)(nil)}

	inserted, updated, err := s.UpsertFamily(context.Background(), tx, "rt_lbmp", []Record{rec})
	require.NoError(t, err)
	require.Equal(t, 0, inserted)
	require.Equal(t, 1, updated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertFamily_UnknownFamily(t *testing.T) {
	s, tx, _, closeDB := newMockStoreTx(t)
	defer closeDB()

	_, _, err := s.UpsertFamily(context.Background(), tx, "not_a_family", nil)
	require.Error(t, err)
}

// The "constraint" family's table is named "constraints" (unquoted
// "constraint" is a reserved word in both Postgres and SQLite); this guards
// against the SQL builders regressing back to the bare reserved word.
func TestUpsertFamily_ConstraintFamilyUsesConstraintsTable(t *testing.T) {
	s, tx, mock, closeDB := newMockStoreTx(t)
	defer closeDB()

	ts := time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT shadow_price, binding, limit_mw, flow_mw FROM constraints WHERE ts = \$1 AND constraint_name = \$2 AND market = \$3`).
		WithArgs(ts, "CENTRAL EAST", "DAM").
		WillReturnRows(sqlmock.NewRows([]string{"shadow_price", "binding", "limit_mw", "flow_mw"}))
	mock.ExpectExec(`INSERT INTO constraints \(ts, constraint_name, market, shadow_price, binding, limit_mw, flow_mw\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\)`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	shadow := 12.5
	rec := Record{
		"ts": ts, "constraint_name": "CENTRAL EAST", "market": "DAM",
		"shadow_price": &shadow, "binding": true, "limit_mw": (*float64)(nil), "flow_mw": (*float64)(nil),
	}

	inserted, updated, err := s.UpsertFamily(context.Background(), tx, "constraint", []Record{rec})
	require.NoError(t, err)
	require.Equal(t, 1, inserted)
	require.Equal(t, 0, updated)
	require.NoError(t, mock.ExpectationsWereMet())
}
