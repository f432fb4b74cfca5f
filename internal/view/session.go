// Package view runs a map session: one goroutine owns the filter, the
// derived view, the surface adapter, level of detail, camera and
// interaction bridge, and applies client events to them in arrival order.
package view

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/storemap/internal/camera"
	"github.com/sells-group/storemap/internal/derive"
	"github.com/sells-group/storemap/internal/filter"
	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/health"
	"github.com/sells-group/storemap/internal/interact"
	"github.com/sells-group/storemap/internal/lod"
	"github.com/sells-group/storemap/internal/metrics"
	"github.com/sells-group/storemap/internal/surface"
)

// ErrClosed is returned by Send after the session stopped.
var ErrClosed = eris.New("view: session closed")

// Sink receives the session's non-engine output.
type Sink interface {
	State(Snapshot) error
	Tooltip(*interact.Tooltip) error
	Navigate(interact.Intent) error
}

// Options configures a session.
type Options struct {
	StoreZoomThreshold float64
	InitialZoom        float64
	Camera             camera.Options
	Period             interact.Period
	QueueSize          int
}

// Snapshot is the session state sent to selector UIs.
type Snapshot struct {
	Session       string              `json:"session"`
	Filter        filter.State        `json:"filter"`
	DCOptions     []string            `json:"dc_options"`
	VisibleStores int                 `json:"visible_stores"`
	VisibleDCs    int                 `json:"visible_dcs"`
	Bands         map[health.Band]int `json:"bands"`
	Level         lod.Level           `json:"level"`
	Zoom          float64             `json:"zoom"`
	Period        interact.Period     `json:"period"`
	Ready         bool                `json:"ready"`
	CameraSeq     uint64              `json:"camera_seq"`
	EngineErrors  int                 `json:"engine_errors"`
	Banner        string              `json:"banner,omitempty"`
}

// Session is one connected map.
type Session struct {
	id      string
	ds      *geodata.Dataset
	sink    Sink
	log     *zap.Logger
	events  chan Event
	done    chan struct{}
	filter  *filter.Filter
	adapter *surface.Adapter
	lod     *lod.Controller
	camera  *camera.Director
	bridge  *interact.Bridge
	view    derive.View
	banner  string
}

// NewSession wires a session's components around engine and sink.
func NewSession(id string, ds *geodata.Dataset, options *derive.Options, engine surface.Engine, sink Sink, opts Options) *Session {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	log := zap.L().With(zap.String("component", "view"), zap.String("session", id))

	s := &Session{
		id:     id,
		ds:     ds,
		sink:   sink,
		log:    log,
		events: make(chan Event, opts.QueueSize),
		done:   make(chan struct{}),
	}
	s.filter = filter.New(options.For)
	s.adapter = surface.New(engine, surface.DefaultLayers(), log)
	s.lod = lod.New(s.adapter, opts.StoreZoomThreshold, opts.InitialZoom, surface.StoreLayers, surface.DCLayers)
	s.camera = camera.NewDirector(opts.Camera)
	s.bridge = interact.NewBridge(ds, s.filter, opts.Period)
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// View returns the current derived view.
func (s *Session) View() derive.View {
	return s.view
}

// Send queues ev for the loop, blocking while the queue is full.
func (s *Session) Send(ctx context.Context, ev Event) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the session and handles events until ctx is cancelled. The
// surface is disposed on return.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.adapter.Dispose()

	s.Start()
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("view: session stopped")
			return nil
		case ev := <-s.events:
			s.Handle(ev)
		}
	}
}

// Start derives the default view and queues the initial surface state.
// Run calls it; tests drive it directly.
func (s *Session) Start() {
	s.adapter.Init()
	s.lod.Sync()
	s.refresh()
}

// Handle applies one event. Only the loop goroutine may call it.
func (s *Session) Handle(ev Event) {
	metrics.SessionEventsTotal.WithLabelValues(ev.eventType()).Inc()

	switch e := ev.(type) {
	case StyleLoaded, Loaded:
		// A load after an error means the engine recovered.
		if s.adapter.MarkReady() || s.banner != "" {
			s.banner = ""
			s.emitState()
		}
	case EngineError:
		s.adapter.HandleEngineError(e.Message)
		metrics.EngineErrorsTotal.Inc()
		s.banner = "The map hit a problem and may be incomplete: " + e.Message
		s.emitState()
	case ZoomEnd:
		if s.lod.OnZoom(e.Zoom) {
			s.emitState()
		}
	case Resized:
		s.adapter.Resize(e.Width, e.Height)
	case Hover:
		if tip, ok := s.bridge.Hover(e.Layer, e.ID); ok {
			s.deliver("tooltip", s.sink.Tooltip(&tip))
		}
	case HoverEnd:
		s.deliver("tooltip", s.sink.Tooltip(nil))
	case Click:
		res := s.bridge.Click(e.Layer, e.ID)
		if res.Navigate != nil {
			s.log.Debug("view: navigate", zap.String("target", res.Navigate.Path()))
			s.deliver("navigate", s.sink.Navigate(*res.Navigate))
		}
		if res.FilterChanged {
			s.refresh()
		}
	case FilterChange:
		if s.applyFilter(e) {
			s.refresh()
		}
	case PeriodChange:
		if s.bridge.SetPeriod(e.Period) {
			s.emitState()
		}
	case Reset:
		if s.filter.Reset() {
			s.refresh()
		}
	default:
		s.log.Warn("view: unknown event", zap.String("type", ev.eventType()))
	}
}

func (s *Session) applyFilter(e FilterChange) bool {
	prev := s.filter.State()
	if e.Division != nil {
		s.filter.SetDivision(*e.Division)
	}
	if e.DC != nil {
		s.filter.SetDC(*e.DC)
	}
	if e.OnlyAssigned != nil {
		s.filter.SetOnlyAssigned(*e.OnlyAssigned)
	}
	return s.filter.State() != prev
}

// refresh re-derives the view and issues the one camera command for the
// new filter state.
func (s *Session) refresh() {
	start := time.Now()
	st := s.filter.State()
	s.view = derive.Derive(s.ds, st)
	metrics.DeriveDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	metrics.FilterChangesTotal.Inc()

	s.adapter.PushData(s.view)
	s.lod.OnFilter(st.DCSelected())

	cmd := s.camera.Frame(s.ds, s.view)
	metrics.CameraCommandsTotal.WithLabelValues(string(cmd.Target)).Inc()
	s.adapter.MoveCamera(cmd)

	s.log.Debug("view: filter applied",
		zap.String("division", string(st.Division)),
		zap.String("dc", st.DC),
		zap.Bool("only_assigned", st.OnlyAssigned),
		zap.Int("visible_stores", len(s.view.Stores)),
		zap.String("camera", string(cmd.Target)),
	)
	s.banner = ""
	s.emitState()
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Session:       s.id,
		Filter:        s.filter.State(),
		DCOptions:     s.view.DCOptions,
		VisibleStores: len(s.view.Stores),
		VisibleDCs:    len(s.view.DCs),
		Bands:         s.view.Bands,
		Level:         s.lod.Level(),
		Zoom:          s.lod.Zoom(),
		Period:        s.bridge.Period(),
		Ready:         s.adapter.Ready(),
		CameraSeq:     s.camera.Seq(),
		EngineErrors:  s.adapter.EngineErrors(),
		Banner:        s.banner,
	}
}

func (s *Session) emitState() {
	s.deliver("state", s.sink.State(s.Snapshot()))
}

func (s *Session) deliver(kind string, err error) {
	if err != nil {
		s.log.Debug("view: sink write failed", zap.String("frame", kind), zap.Error(err))
	}
}
