package refdata

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockTx(t *testing.T) (*sqlx.Tx, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	mock.ExpectBegin()
	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)
	return tx, mock, func() { db.Close() }
}

func TestResolver_ZoneID_CacheHitSkipsDatabase(t *testing.T) {
	tx, mock, closeDB := newMockTx(t)
	defer closeDB()

	r := New(nil)
	r.setCachedID(KindZone, "WEST", 7)

	id, err := r.ZoneID(context.Background(), tx, "WEST")
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolver_ZoneID_InsertsOnFirstObservation(t *testing.T) {
	tx, mock, closeDB := newMockTx(t)
	defer closeDB()

	mock.ExpectQuery(`SELECT id FROM zones WHERE name = \$1`).
		WithArgs("WEST").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO zones \(name\) VALUES \(\$1\) ON CONFLICT \(name\) DO NOTHING RETURNING id`).
		WithArgs("WEST").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	r := New(nil)
	id, err := r.ZoneID(context.Background(), tx, "WEST")
	require.NoError(t, err)
	require.Equal(t, int64(3), id)
	require.NoError(t, mock.ExpectationsWereMet())

	cached, ok := r.cachedID(KindZone, "WEST")
	require.True(t, ok)
	require.Equal(t, int64(3), cached)
}

func TestResolver_InterfaceID_ConflictFallsBackToReread(t *testing.T) {
	tx, mock, closeDB := newMockTx(t)
	defer closeDB()

	mock.ExpectQuery(`SELECT id FROM interfaces WHERE name = \$1`).
		WithArgs("TOTAL EAST").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO interfaces \(name\) VALUES \(\$1\) ON CONFLICT \(name\) DO NOTHING RETURNING id`).
		WithArgs("TOTAL EAST").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT id FROM interfaces WHERE name = \$1`).
		WithArgs("TOTAL EAST").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	r := New(nil)
	id, err := r.InterfaceID(context.Background(), tx, "TOTAL EAST")
	require.NoError(t, err)
	require.Equal(t, int64(9), id)
	require.NoError(t, mock.ExpectationsWereMet())
}
