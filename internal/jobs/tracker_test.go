package jobs

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockTracker(t *testing.T) (*Tracker, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewTracker(sqlx.NewDb(db, "postgres")), mock, func() { db.Close() }
}

func TestBegin_CreatesRunningJob(t *testing.T) {
	tr, mock, closeDB := newMockTracker(t)
	defer closeDB()

	date := time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, source_code, started_at, finished_at, status, rows_inserted, rows_updated, error_text, url_used`).
		WithArgs("RT-LBMP", "2025-11-13", StatusSucceeded).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO jobs`).
		WithArgs("RT-LBMP", "2025-11-13", sqlmock.AnyArg(), StatusRunning).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	job, err := tr.Begin(context.Background(), "RT-LBMP", date, false)
	require.NoError(t, err)
	require.Equal(t, int64(5), job.ID)
	require.Equal(t, StatusRunning, job.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBegin_SkipsWhenAlreadySucceeded(t *testing.T) {
	tr, mock, closeDB := newMockTracker(t)
	defer closeDB()

	date := time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, source_code, started_at, finished_at, status, rows_inserted, rows_updated, error_text, url_used`).
		WithArgs("RT-LBMP", "2025-11-13", StatusSucceeded).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source_code", "started_at", "finished_at", "status", "rows_inserted", "rows_updated", "error_text", "url_used"}).
			AddRow(int64(4), "RT-LBMP", time.Now(), time.Now(), StatusSucceeded, 1, 0, nil, nil))

	job, err := tr.Begin(context.Background(), "RT-LBMP", date, false)
	require.NoError(t, err)
	require.Equal(t, StatusSkipped, job.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBegin_ForceBypassesSkip(t *testing.T) {
	tr, mock, closeDB := newMockTracker(t)
	defer closeDB()

	date := time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO jobs`).
		WithArgs("RT-LBMP", "2025-11-13", sqlmock.AnyArg(), StatusRunning).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	job, err := tr.Begin(context.Background(), "RT-LBMP", date, true)
	require.NoError(t, err)
	require.Equal(t, StatusRunning, job.Status)
	require.Equal(t, int64(9), job.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinish_WritesTerminalState(t *testing.T) {
	tr, mock, closeDB := newMockTracker(t)
	defer closeDB()

	mock.ExpectExec(`UPDATE jobs SET finished_at = \$1, status = \$2, rows_inserted = \$3, rows_updated = \$4, error_text = \$5, url_used = \$6`).
		WithArgs(sqlmock.AnyArg(), StatusSucceeded, 3, 1, nil, "https://example.test/data.zip", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	job := Job{ID: 5}
	err := tr.Finish(context.Background(), job, StatusSucceeded, 3, 1, "https://example.test/data.zip", nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
