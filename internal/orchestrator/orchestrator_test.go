package orchestrator

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/fetch"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/jobs"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/refdata"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/registry"
	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/store"
)

func newReader(s string) *strings.Reader { return strings.NewReader(s) }
func sqlErrNoRows() error                { return sql.ErrNoRows }

const sampleLBMP = "Time Stamp,Name,LBMP ($/MWHr),Marginal Cost Losses ($/MWHr),Marginal Cost Congestion ($/MWHr)\n" +
	"11/13/2025 00:00:00,WEST,42.10,1.20,0.50\n"

func TestScrapeOne_EndToEndSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleLBMP))
	}))
	defer srv.Close()

	regSrc := "NYISO RT LBMP,RT-LBMP,rtlbmp,rt,http://" + srv.Listener.Addr().String() + "/{YYYYMMDD}rt.csv,,,rt5,rt_lbmp\n"
	reg, err := registry.Parse(newReader(regSrc))
	require.NoError(t, err)
	source, err := reg.Get("RT-LBMP")
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "postgres")

	mock.ExpectQuery(`SELECT id, source_code, started_at, finished_at, status, rows_inserted, rows_updated, error_text, url_used`).
		WillReturnError(sqlErrNoRows())
	mock.ExpectQuery(`INSERT INTO jobs`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM zones WHERE name = \$1`).
		WithArgs("WEST").
		WillReturnError(sqlErrNoRows())
	mock.ExpectQuery(`INSERT INTO zones`).
		WithArgs("WEST").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT lbmp, mcc, mcl FROM rt_lbmp`).
		WillReturnError(sqlErrNoRows())
	mock.ExpectExec(`INSERT INTO rt_lbmp`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`UPDATE jobs SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	o := New(reg, fetch.New(fetch.DefaultConfig()), jobs.NewTracker(sqlxDB), refdata.New(sqlxDB), &store.Store{DB: sqlxDB, Driver: store.DriverPostgres}, nil, zerolog.Nop())

	job, err := o.ScrapeOne(context.Background(), source, time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC), false)
	require.NoError(t, err)
	require.Equal(t, jobs.StatusSucceeded, job.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScrapeOne_SnapshotNotFoundSucceedsWithZeroRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	regSrc := "External Limits,EXT-LIMITS,ext,currentExternalLimitsFlows,http://" + srv.Listener.Addr().String() + "/currentExternalLimitsFlows.csv,,,snapshot,interface_flow\n"
	reg, err := registry.Parse(newReader(regSrc))
	require.NoError(t, err)
	source, err := reg.Get("EXT-LIMITS")
	require.NoError(t, err)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	sqlxDB := sqlx.NewDb(db, "postgres")

	mock.ExpectQuery(`SELECT id, source_code, started_at, finished_at, status, rows_inserted, rows_updated, error_text, url_used`).
		WillReturnError(sqlErrNoRows())
	mock.ExpectQuery(`INSERT INTO jobs`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectExec(`UPDATE jobs SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	o := New(reg, fetch.New(fetch.DefaultConfig()), jobs.NewTracker(sqlxDB), refdata.New(sqlxDB), &store.Store{DB: sqlxDB, Driver: store.DriverPostgres}, nil, zerolog.Nop())

	job, err := o.ScrapeOne(context.Background(), source, time.Now(), false)
	require.NoError(t, err)
	require.Equal(t, jobs.StatusSucceeded, job.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
