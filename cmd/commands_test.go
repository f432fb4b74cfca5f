package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/storemap/internal/camera"
	"github.com/sells-group/storemap/internal/config"
	"github.com/sells-group/storemap/internal/export"
	"github.com/sells-group/storemap/internal/geodata"
)

func abcDataset() *geodata.Dataset {
	return geodata.New([]geodata.Store{
		{ID: "A", Location: orb.Point{-84.4, 33.7}, Division: geodata.DivisionSouthern, DCID: "ATL", Health: 80},
		{ID: "B", Location: orb.Point{-84.2, 33.9}, Division: geodata.DivisionSouthern, DCID: "ATL", Health: 60},
		{ID: "C", Location: orb.Point{-71.1, 42.4}, Division: geodata.DivisionEastern, DCID: "BOS", Health: 50},
	}, []geodata.DistributionCenter{
		{ID: "ATL", Name: "Atlanta DC", Division: geodata.DivisionSouthern, Centroid: orb.Point{-84.39, 33.75}},
		{ID: "BOS", Name: "Boston DC", Division: geodata.DivisionEastern, Centroid: orb.Point{-71.06, 42.36}},
	}, nil)
}

func TestPrintView_JSON(t *testing.T) {
	ds := abcDataset()
	flags := filterFlags{division: "southern", dc: "ATL"}

	var buf bytes.Buffer
	require.NoError(t, printView(&buf, ds, flags.state(ds), camera.Options{DrillZoom: 9.5}, true))

	var sum deriveSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &sum))
	assert.Equal(t, geodata.DivisionSouthern, sum.Filter.Division)
	assert.Equal(t, "ATL", sum.Filter.DC)
	assert.Equal(t, []string{"ALL", "ATL"}, sum.DCOptions)
	assert.Equal(t, 2, sum.Stores)
	require.Len(t, sum.DCs, 1)
	require.NotNil(t, sum.DCs[0].Rollup)
	assert.InDelta(t, 70, *sum.DCs[0].Rollup, 1e-9)
	assert.Equal(t, camera.TargetDC, sum.Camera.Target)
	assert.Equal(t, 9.5, sum.Camera.Zoom)
}

func TestPrintView_Table(t *testing.T) {
	ds := abcDataset()
	flags := filterFlags{division: "All", dc: "ALL"}

	var buf bytes.Buffer
	require.NoError(t, printView(&buf, ds, flags.state(ds), camera.Options{}, false))

	out := buf.String()
	assert.Contains(t, out, "division=All dc=ALL")
	assert.Contains(t, out, "Stores:      3")
	assert.Contains(t, out, "Atlanta DC")
	assert.Contains(t, out, "70.0")
}

func TestWriteExport_CSV(t *testing.T) {
	ds := abcDataset()

	var buf bytes.Buffer
	n, err := writeExport(&buf, ds, filterFlags{division: "All", dc: "ALL"}, export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "C", records[1][1])
	assert.Equal(t, "A", records[3][1])
}

func TestGenerateDataset_LoadsBack(t *testing.T) {
	dir := t.TempDir()
	opts := geodata.DefaultGenerateOptions()
	opts.StoresPerDC = 10

	sum, err := generateDataset(dir, opts)
	require.NoError(t, err)
	assert.Positive(t, sum.Stores)

	loaded, err := geodata.LoadFiles(context.Background(), geodata.Options{
		StoresPath:  filepath.Join(dir, "stores.geojson"),
		DCsPath:     filepath.Join(dir, "dcs.geojson"),
		RegionsPath: filepath.Join(dir, "regions.geojson"),
	})
	require.NoError(t, err)
	assert.Equal(t, sum.Stores, loaded.Summary().Stores)
	assert.Equal(t, sum.DCs, loaded.Summary().DCs)
	assert.Len(t, loaded.Regions(), len(geodata.Divisions))
}

func TestDatasetStore_SQLiteImport(t *testing.T) {
	c := &config.Config{Store: config.StoreConfig{SQLitePath: filepath.Join(t.TempDir(), "test.db")}}
	ctx := context.Background()

	store, closeFn, err := openDatasetStore(ctx, c, "sqlite")
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, store.Migrate(ctx))
	counts, err := store.Import(ctx, abcDataset())
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Stores)
	assert.Equal(t, int64(2), counts.DCs)
}

func TestOpenDatasetStore_Errors(t *testing.T) {
	ctx := context.Background()

	_, _, err := openDatasetStore(ctx, &config.Config{}, "postgres")
	assert.Error(t, err)

	_, _, err = openDatasetStore(ctx, &config.Config{}, "mysql")
	assert.Error(t, err)
}

func TestPrintIssues(t *testing.T) {
	ds := geodata.New([]geodata.Store{
		{ID: "X", Location: orb.Point{-84, 33}, Division: geodata.DivisionSouthern, DCID: "GHOST", Health: 120},
	}, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, printIssues(&buf, ds.Summary(), geodata.Check(ds)))
	out := buf.String()
	assert.Contains(t, out, geodata.IssueUnknownDC)
	assert.Contains(t, out, geodata.IssueHealthRange)
	assert.Contains(t, out, "GHOST")

	buf.Reset()
	require.NoError(t, printIssues(&buf, ds.Summary(), nil))
	assert.Contains(t, buf.String(), "No issues found.")
}
