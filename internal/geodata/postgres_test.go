package geodata

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresSource_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boundary, err := EncodeEWKB(orb.Bound{Min: orb.Point{-100, 25}, Max: orb.Point{-80, 36}}.ToPolygon())
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT store_id`).WithArgs("US").WillReturnRows(
		pgxmock.NewRows(storeColumns).
			AddRow("A", "Midtown", "Southern", "ATL", 85.0, 6.5, 0.04, true, "US", -84.4, 33.7).
			AddRow("B", "", "south", "ATL", 55.0, nil, nil, false, "US", -84.5, 33.8).
			AddRow("X", "", "Western", "ATL", 10.0, nil, nil, false, "US", -84.5, 33.8),
	)
	mock.ExpectQuery(`SELECT dc_id`).WillReturnRows(
		pgxmock.NewRows(dcColumns).
			AddRow("ATL", "Atlanta", "Southern", -84.39, 33.75, []byte(nil)),
	)
	mock.ExpectQuery(`SELECT division, boundary`).WillReturnRows(
		pgxmock.NewRows(regionColumns).
			AddRow("Southern", boundary).
			AddRow("Southern", []byte{0xde, 0xad}),
	)

	ds, err := NewPostgresSource(mock, "storemap").Load(context.Background(), "US")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, ds.Stores(), 2)
	a, _ := ds.Store("A")
	require.NotNil(t, a.Turnover)
	assert.InDelta(t, 6.5, *a.Turnover, 1e-9)
	b, _ := ds.Store("B")
	assert.Nil(t, b.Turnover)
	assert.Equal(t, DivisionSouthern, b.Division)

	atl, ok := ds.DC("ATL")
	require.True(t, ok)
	assert.InDelta(t, 70.0, atl.RollupHealth, 1e-9)
	assert.Nil(t, atl.Area)

	_, ok = ds.Region(DivisionSouthern)
	assert.True(t, ok)
}

func TestPostgresSource_LoadQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT store_id`).WillReturnError(fmt.Errorf("relation does not exist"))

	_, err = NewPostgresSource(mock, "storemap").Load(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geodata: query stores")
}

func TestPostgresSource_Migrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "storemap"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "storemap"."stores"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "storemap"."distribution_centers"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "storemap"."regions"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, NewPostgresSource(mock, "storemap").Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_Import(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ds := Generate(GenerateOptions{Seed: 3, StoresPerDC: 2})
	sum := ds.Summary()

	mock.ExpectBegin()
	for _, tbl := range []struct {
		name string
		cols []string
		n    int
	}{
		{"stores", storeColumns, sum.Stores},
		{"distribution_centers", dcColumns, sum.DCs},
		{"regions", regionColumns, sum.Regions},
	} {
		mock.ExpectExec(`DELETE FROM "storemap"."` + tbl.name + `"`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectCopyFrom(pgx.Identifier{"storemap", tbl.name}, tbl.cols).WillReturnResult(int64(tbl.n))
	}
	mock.ExpectCommit()

	counts, err := NewPostgresSource(mock, "storemap").Import(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, ImportCounts{Stores: int64(sum.Stores), DCs: int64(sum.DCs), Regions: int64(sum.Regions)}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_Import_PartialFailureRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ds := Generate(GenerateOptions{Seed: 3, StoresPerDC: 2})

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "storemap"."stores"`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"storemap", "stores"}, storeColumns).WillReturnResult(int64(ds.Summary().Stores))
	mock.ExpectExec(`DELETE FROM "storemap"."distribution_centers"`).WillReturnError(fmt.Errorf("lock timeout"))
	mock.ExpectRollback()

	counts, err := NewPostgresSource(mock, "storemap").Import(context.Background(), ds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear storemap.distribution_centers")
	assert.Equal(t, ImportCounts{}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
