package interact

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/storemap/internal/derive"
	"github.com/sells-group/storemap/internal/filter"
	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/health"
	"github.com/sells-group/storemap/internal/surface"
)

func f64(v float64) *float64 { return &v }

func testDataset() *geodata.Dataset {
	return geodata.New([]geodata.Store{
		{ID: "A", Name: "Midtown", Location: orb.Point{-84.4, 33.7}, Division: geodata.DivisionSouthern, DCID: "ATL", Health: 85, Turnover: f64(1234.5), ReturnPct: f64(0.042)},
		{ID: "B", Location: orb.Point{-84.5, 33.8}, Division: geodata.DivisionSouthern, DCID: "ATL", Health: 55},
		{ID: "C", Location: orb.Point{-87.6, 41.9}, Division: geodata.DivisionMidwestern, DCID: "CHI", Health: 70},
	}, []geodata.DistributionCenter{
		{ID: "ATL", Name: "Atlanta DC", Division: geodata.DivisionSouthern, Centroid: orb.Point{-84.39, 33.75}},
		{ID: "IDLE", Division: geodata.DivisionEastern, Centroid: orb.Point{-71, 42}},
	}, nil)
}

func TestStoreTooltip(t *testing.T) {
	s, _ := testDataset().Store("A")
	tip := StoreTooltip(s)
	assert.Equal(t, KindStore, tip.Kind)
	assert.Equal(t, "Midtown (A)", tip.Title)
	assert.Equal(t, health.Healthy, tip.Band)
	assert.Equal(t, []Line{
		{Label: "Health", Value: "85.0 (Healthy)"},
		{Label: "Turnover", Value: "1,234.5x"},
		{Label: "Returns", Value: "4.2%"},
		{Label: "Division", Value: "Southern"},
		{Label: "DC", Value: "ATL"},
	}, tip.Lines)
}

func TestStoreTooltip_OptionalMetricsOmitted(t *testing.T) {
	s, _ := testDataset().Store("B")
	tip := StoreTooltip(s)
	assert.Equal(t, "B", tip.Title)
	assert.Equal(t, health.AtRisk, tip.Band)
	assert.Len(t, tip.Lines, 3)
}

func TestDCTooltip(t *testing.T) {
	ds := testDataset()
	atl, _ := ds.DC("ATL")
	tip := DCTooltip(atl)
	assert.Equal(t, "Atlanta DC", tip.Title)
	assert.Equal(t, health.Watch, tip.Band)
	assert.Equal(t, Line{Label: "Avg health", Value: "70.0 (Watch)"}, tip.Lines[0])
	assert.Equal(t, Line{Label: "Stores", Value: "2"}, tip.Lines[1])

	idle, _ := ds.DC("IDLE")
	tip = DCTooltip(idle)
	assert.Equal(t, "n/a", tip.Lines[0].Value)
	assert.Empty(t, tip.Color)
}

func TestIntentPathAndParse(t *testing.T) {
	tests := []Intent{
		{StoreID: "A", Period: MonthToDate},
		{StoreID: "S00042"},
		{StoreID: "store 7/b", Period: YearToDate},
	}
	for _, in := range tests {
		got, err := ParseTarget(in.Path())
		require.NoError(t, err, in.Path())
		assert.Equal(t, in, got)
	}
	assert.Equal(t, "/stores/A?period=MTD", Intent{StoreID: "A", Period: MonthToDate}.Path())
	assert.Equal(t, "/stores/A", Intent{StoreID: "A"}.Path())
}

func TestParseTarget_Errors(t *testing.T) {
	for _, target := range []string{"/dcs/ATL", "/stores/", "/stores/A/extra", "/stores/A?period=decade", "%zz"} {
		_, err := ParseTarget(target)
		assert.Error(t, err, target)
	}

	got, err := ParseTarget("/stores/A?period=qtd")
	require.NoError(t, err)
	assert.Equal(t, QuarterToDate, got.Period)
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod(" wtd ")
	require.NoError(t, err)
	assert.Equal(t, WeekToDate, p)
	_, err = ParsePeriod("daily")
	assert.Error(t, err)
}

func newBridge() (*Bridge, *filter.Filter) {
	ds := testDataset()
	f := filter.New(derive.NewOptions(ds).For)
	return NewBridge(ds, f, ""), f
}

func TestBridge_Hover(t *testing.T) {
	b, _ := newBridge()

	tip, ok := b.Hover(surface.LayerStores, "A")
	require.True(t, ok)
	assert.Equal(t, "A", tip.ID)

	tip, ok = b.Hover(surface.LayerDCLabels, "ATL")
	require.True(t, ok)
	assert.Equal(t, KindDC, tip.Kind)

	_, ok = b.Hover(surface.LayerStores, "missing")
	assert.False(t, ok)
	_, ok = b.Hover("background", "A")
	assert.False(t, ok)
}

func TestBridge_ClickStoreNavigates(t *testing.T) {
	b, _ := newBridge()
	assert.Equal(t, DefaultPeriod, b.Period())
	assert.True(t, b.SetPeriod("ytd"))
	assert.False(t, b.SetPeriod("bogus"))

	res := b.Click(surface.LayerStores, "B")
	require.NotNil(t, res.Navigate)
	assert.Equal(t, "/stores/B?period=YTD", res.Navigate.Path())
	assert.False(t, res.FilterChanged)
}

func TestBridge_ClickDCSetsFilter(t *testing.T) {
	b, f := newBridge()
	f.SetDivision("Southern")

	res := b.Click(surface.LayerDCs, "ATL")
	assert.True(t, res.FilterChanged)
	assert.Nil(t, res.Navigate)
	assert.Equal(t, "ATL", f.State().DC)

	res = b.Click(surface.LayerDCs, "ATL")
	assert.False(t, res.FilterChanged)

	f.SetDivision("Southern")
	res = b.Click(surface.LayerDCs, "CHI")
	assert.False(t, res.FilterChanged, "DC outside the division degrades to ALL")
	assert.Equal(t, geodata.AllDCs, f.State().DC)
}
