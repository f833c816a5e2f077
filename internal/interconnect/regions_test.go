package interconnect

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockView(t *testing.T) (*View, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewView(sqlxDB), mock, func() { db.Close() }
}

func TestClassifyRegion(t *testing.T) {
	assert.Equal(t, RegionPJM, classifyRegion("PJM_KEYSTONE"))
	assert.Equal(t, RegionISONE, classifyRegion("NE_NORTHPORT"))
	assert.Equal(t, RegionIESO, classifyRegion("IESO_ONTARIO"))
	assert.Equal(t, RegionHQ, classifyRegion("HQ_CHATEAUGUAY"))
	assert.Equal(t, RegionOther, classifyRegion("SOME_UNRECOGNIZED_TIE"))
}

func TestRegions_BucketsByRegionAndDerivesDirection(t *testing.T) {
	view, mock, closeDB := newMockView(t)
	defer closeDB()

	ts := time.Date(2025, 11, 13, 14, 0, 0, 0, time.UTC)
	pos, neg := 500.0, 300.0
	rows := sqlmock.NewRows([]string{"interface_name", "ts", "flow_mw", "pos_limit_mw", "neg_limit_mw"}).
		AddRow("PJM_KEYSTONE", ts, 250.0, pos, neg).
		AddRow("IESO_ONTARIO", ts, -150.0, pos, neg).
		AddRow("SOME_UNRECOGNIZED_TIE", ts, 0.0, pos, neg)

	mock.ExpectQuery("SELECT i.name AS interface_name").WillReturnRows(rows)

	out, err := view.Regions(context.Background())
	require.NoError(t, err)

	require.Len(t, out[RegionPJM], 1)
	pjm := out[RegionPJM][0]
	assert.Equal(t, DirectionImport, pjm.Direction)
	require.NotNil(t, pjm.UtilizationPercent)
	assert.InDelta(t, 50.0, *pjm.UtilizationPercent, 1e-9)

	require.Len(t, out[RegionIESO], 1)
	ieso := out[RegionIESO][0]
	assert.Equal(t, DirectionExport, ieso.Direction)
	require.NotNil(t, ieso.UtilizationPercent)
	assert.InDelta(t, 50.0, *ieso.UtilizationPercent, 1e-9)

	require.Len(t, out[RegionOther], 1)
	assert.Equal(t, DirectionZero, out[RegionOther][0].Direction)
	assert.Nil(t, out[RegionOther][0].UtilizationPercent)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUtilizationPercent_NullWhenLimitZeroOrMissing(t *testing.T) {
	zero := 0.0
	assert.Nil(t, utilizationPercent(100, DirectionImport, &zero, nil))
	assert.Nil(t, utilizationPercent(100, DirectionImport, nil, nil))
	assert.Nil(t, utilizationPercent(100, DirectionZero, nil, nil))
}

func TestRegion_FiltersToSingleRegion(t *testing.T) {
	view, mock, closeDB := newMockView(t)
	defer closeDB()

	ts := time.Date(2025, 11, 13, 14, 0, 0, 0, time.UTC)
	limit := 500.0
	rows := sqlmock.NewRows([]string{"interface_name", "ts", "flow_mw", "pos_limit_mw", "neg_limit_mw"}).
		AddRow("PJM_KEYSTONE", ts, 250.0, limit, limit).
		AddRow("HQ_CHATEAUGUAY", ts, 100.0, limit, limit)

	mock.ExpectQuery("SELECT i.name AS interface_name").WillReturnRows(rows)

	got, err := view.Region(context.Background(), RegionHQ)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "HQ_CHATEAUGUAY", got[0].InterfaceName)
}
