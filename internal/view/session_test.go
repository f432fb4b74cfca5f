package view

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/storemap/internal/camera"
	"github.com/sells-group/storemap/internal/derive"
	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/interact"
	"github.com/sells-group/storemap/internal/lod"
	"github.com/sells-group/storemap/internal/metrics"
	"github.com/sells-group/storemap/internal/surface"
)

type engineCall struct {
	op  string
	arg any
}

type fakeEngine struct {
	mu      sync.Mutex
	sources map[string]*geojson.FeatureCollection
	layers  map[string]bool
	calls   []engineCall
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{sources: map[string]*geojson.FeatureCollection{}, layers: map[string]bool{}}
}

func (f *fakeEngine) add(op string, arg any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, engineCall{op, arg})
}

func (f *fakeEngine) HasSource(id string) bool { return f.sources[id] != nil }
func (f *fakeEngine) AddSource(id string, fc *geojson.FeatureCollection) error {
	f.sources[id] = fc
	f.add("addSource", id)
	return nil
}
func (f *fakeEngine) SetSourceData(id string, fc *geojson.FeatureCollection) error {
	f.sources[id] = fc
	f.add("setData", id)
	return nil
}
func (f *fakeEngine) HasLayer(id string) bool { return f.layers[id] }
func (f *fakeEngine) AddLayer(spec surface.LayerSpec) error {
	f.layers[spec.ID] = true
	f.add("addLayer", spec.ID)
	return nil
}
func (f *fakeEngine) SetLayoutProperty(layer, name string, value any) error {
	f.add("setLayout", fmt.Sprintf("%s=%v", layer, value))
	return nil
}
func (f *fakeEngine) FlyTo(cmd camera.Command) error     { f.add("flyTo", cmd); return nil }
func (f *fakeEngine) FitBounds(cmd camera.Command) error { f.add("fitBounds", cmd); return nil }
func (f *fakeEngine) Resize(w, h int) error              { f.add("resize", [2]int{w, h}); return nil }

func (f *fakeEngine) lastCamera() (camera.Command, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if cmd, ok := f.calls[i].arg.(camera.Command); ok {
			return cmd, true
		}
	}
	return camera.Command{}, false
}

func (f *fakeEngine) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (f *fakeEngine) storeIDs() []string {
	var ids []string
	for _, feat := range f.sources[surface.SourceStores].Features {
		ids = append(ids, feat.Properties.MustString("store_id"))
	}
	return ids
}

type fakeSink struct {
	mu        sync.Mutex
	states    []Snapshot
	tooltips  []*interact.Tooltip
	navigated []interact.Intent
}

func (f *fakeSink) State(s Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, s)
	return nil
}

func (f *fakeSink) Tooltip(t *interact.Tooltip) error {
	f.tooltips = append(f.tooltips, t)
	return nil
}

func (f *fakeSink) Navigate(i interact.Intent) error {
	f.navigated = append(f.navigated, i)
	return nil
}

func (f *fakeSink) last() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[len(f.states)-1]
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.states)
}

func abcDataset() *geodata.Dataset {
	return geodata.New([]geodata.Store{
		{ID: "A", Location: orb.Point{-84.4, 33.7}, Division: geodata.DivisionSouthern, DCID: "ATL", Health: 85, Assigned: true},
		{ID: "B", Location: orb.Point{-84.5, 33.8}, Division: geodata.DivisionSouthern, DCID: "ATL", Health: 55},
		{ID: "C", Location: orb.Point{-87.6, 41.9}, Division: geodata.DivisionMidwestern, DCID: "CHI", Health: 70},
	}, []geodata.DistributionCenter{
		{ID: "ATL", Name: "Atlanta", Division: geodata.DivisionSouthern, Centroid: orb.Point{-84.39, 33.75}},
		{ID: "CHI", Name: "Chicago", Division: geodata.DivisionMidwestern, Centroid: orb.Point{-87.63, 41.88}},
	}, nil)
}

func testOptions() Options {
	return Options{
		StoreZoomThreshold: 7,
		InitialZoom:        3.5,
		Camera:             camera.Options{DrillZoom: 9.5, DrillPitch: 55, DrillBearing: -17.6, RegionMaxZoom: 6, RegionPitch: 30},
		Period:             interact.MonthToDate,
	}
}

func newSession(t *testing.T) (*Session, *fakeEngine, *fakeSink) {
	t.Helper()
	ds := abcDataset()
	eng, sink := newFakeEngine(), &fakeSink{}
	s := NewSession("test", ds, derive.NewOptions(ds), eng, sink, testOptions())
	s.Start()
	return s, eng, sink
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func TestSession_ABCScenario(t *testing.T) {
	s, eng, sink := newSession(t)
	s.Handle(StyleLoaded{})

	s.Handle(FilterChange{Division: strp("Southern")})
	assert.Equal(t, []string{"A", "B"}, eng.storeIDs())
	snap := sink.last()
	assert.Equal(t, []string{"ALL", "ATL"}, snap.DCOptions)
	dcs := eng.sources[surface.SourceDCs].Features
	require.Len(t, dcs, 1)
	assert.InDelta(t, 70.0, dcs[0].Properties["rollup_health"], 1e-9)

	s.Handle(FilterChange{DC: strp("ATL")})
	cmd, ok := eng.lastCamera()
	require.True(t, ok)
	assert.Equal(t, camera.TargetDC, cmd.Target)
	assert.Equal(t, orb.Point{-84.39, 33.75}, cmd.Center)
	assert.InDelta(t, 9.5, cmd.Zoom, 1e-9)
	assert.Equal(t, []string{"A", "B"}, eng.storeIDs())
	assert.Equal(t, lod.LevelStores, sink.last().Level)

	s.Handle(FilterChange{Division: strp("All")})
	assert.Equal(t, "ALL", sink.last().Filter.DC)
	assert.Equal(t, []string{"A", "B", "C"}, eng.storeIDs())
	assert.Equal(t, lod.LevelDCs, sink.last().Level)
}

func TestSession_NothingReachesEngineBeforeReady(t *testing.T) {
	s, eng, sink := newSession(t)
	s.Handle(FilterChange{Division: strp("Southern")})
	s.Handle(FilterChange{DC: strp("ATL")})
	s.Handle(ZoomEnd{Zoom: 8})
	s.Handle(Resized{Width: 800, Height: 600})
	assert.Empty(t, eng.calls)
	assert.False(t, sink.last().Ready)

	s.Handle(StyleLoaded{})
	s.Handle(Loaded{})
	assert.True(t, sink.last().Ready)
	assert.Equal(t, 2, eng.count("addSource"))
	assert.Equal(t, 2, eng.count("setData"), "only the latest view is pushed")
	assert.Equal(t, 1, eng.count("flyTo")+eng.count("fitBounds"), "only the latest camera command runs")
	assert.Equal(t, 1, eng.count("resize"))
	assert.Equal(t, []string{"A", "B"}, eng.storeIDs())

	cmd, _ := eng.lastCamera()
	assert.Equal(t, s.Snapshot().CameraSeq, cmd.Seq)
}

func TestSession_OneCameraCommandPerChange(t *testing.T) {
	s, eng, _ := newSession(t)
	s.Handle(Loaded{})
	before := eng.count("flyTo") + eng.count("fitBounds")

	s.Handle(FilterChange{Division: strp("Southern"), DC: strp("ATL"), OnlyAssigned: boolp(true)})
	assert.Equal(t, before+1, eng.count("flyTo")+eng.count("fitBounds"))
	assert.Equal(t, []string{"A"}, eng.storeIDs())

	s.Handle(FilterChange{Division: strp("Southern"), DC: strp("ATL"), OnlyAssigned: boolp(true)})
	assert.Equal(t, before+1, eng.count("flyTo")+eng.count("fitBounds"), "no change, no command")
}

func TestSession_ZoomDrivesLOD(t *testing.T) {
	s, eng, sink := newSession(t)
	s.Handle(Loaded{})
	layouts := eng.count("setLayout")

	s.Handle(ZoomEnd{Zoom: 5})
	assert.Equal(t, layouts, eng.count("setLayout"))

	s.Handle(ZoomEnd{Zoom: 7.5})
	assert.Equal(t, lod.LevelStores, sink.last().Level)
	assert.Equal(t, layouts+3, eng.count("setLayout"))
}

func TestSession_HoverAndClick(t *testing.T) {
	s, _, sink := newSession(t)
	s.Handle(Loaded{})

	s.Handle(Hover{Layer: surface.LayerStores, ID: "B"})
	s.Handle(HoverEnd{})
	require.Len(t, sink.tooltips, 2)
	assert.Equal(t, "B", sink.tooltips[0].ID)
	assert.Nil(t, sink.tooltips[1])

	s.Handle(PeriodChange{Period: "qtd"})
	assert.Equal(t, interact.QuarterToDate, sink.last().Period)

	s.Handle(Click{Layer: surface.LayerStores, ID: "C"})
	require.Len(t, sink.navigated, 1)
	assert.Equal(t, "/stores/C?period=QTD", sink.navigated[0].Path())

	s.Handle(Click{Layer: surface.LayerDCs, ID: "CHI"})
	assert.Equal(t, "CHI", sink.last().Filter.DC)
	assert.Equal(t, 1, sink.last().VisibleStores)

	s.Handle(Reset{})
	assert.Equal(t, "ALL", sink.last().Filter.DC)
	assert.Equal(t, 3, sink.last().VisibleStores)
}

func TestSession_EngineErrorSetsBanner(t *testing.T) {
	s, _, sink := newSession(t)
	s.Handle(EngineError{Message: "style failed"})
	snap := sink.last()
	assert.Equal(t, 1, snap.EngineErrors)
	assert.Contains(t, snap.Banner, "style failed")

	s.Handle(Loaded{})
	assert.True(t, sink.last().Ready, "session stays usable after engine errors")
	assert.Empty(t, sink.last().Banner, "ready transition clears the banner")
}

func TestSession_BannerClearsOnFilterChange(t *testing.T) {
	s, _, sink := newSession(t)
	s.Handle(StyleLoaded{})
	s.Handle(EngineError{Message: "tile fetch failed"})
	require.Contains(t, sink.last().Banner, "tile fetch failed")

	s.Handle(FilterChange{Division: strp("Southern")})
	assert.Empty(t, sink.last().Banner)
	assert.Equal(t, 1, sink.last().EngineErrors)
}

func TestSession_BannerClearsOnReloadAfterReady(t *testing.T) {
	s, _, sink := newSession(t)
	s.Handle(StyleLoaded{})
	s.Handle(EngineError{Message: "style failed"})
	require.NotEmpty(t, sink.last().Banner)

	n := sink.count()
	s.Handle(StyleLoaded{})
	assert.Equal(t, n+1, sink.count())
	assert.Empty(t, sink.last().Banner)

	s.Handle(StyleLoaded{})
	assert.Equal(t, n+1, sink.count(), "repeat load with no banner emits nothing")
}

func TestSession_RunAndSend(t *testing.T) {
	ds := abcDataset()
	eng, sink := newFakeEngine(), &fakeSink{}
	s := NewSession("run", ds, derive.NewOptions(ds), eng, sink, testOptions())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.NoError(t, s.Send(ctx, Loaded{}))
	require.NoError(t, s.Send(ctx, FilterChange{Division: strp("Midwestern")}))
	assert.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		n := len(sink.states)
		return n > 0 && sink.states[n-1].Filter.Division == geodata.DivisionMidwestern
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.ErrorIs(t, s.Send(context.Background(), Reset{}), ErrClosed)
}

func TestSession_CountsEventsByWireName(t *testing.T) {
	s, _, _ := newSession(t)
	for _, tc := range []struct {
		ev   Event
		name string
	}{
		{StyleLoaded{}, "style.load"},
		{ZoomEnd{Zoom: 4}, "zoomend"},
		{HoverEnd{}, "hoverend"},
		{Reset{}, "reset"},
	} {
		before := testutil.ToFloat64(metrics.SessionEventsTotal.WithLabelValues(tc.name))
		s.Handle(tc.ev)
		assert.InDelta(t, before+1, testutil.ToFloat64(metrics.SessionEventsTotal.WithLabelValues(tc.name)), 1e-9, tc.name)
	}
}
