// Package surface owns the map engine for one session. Nothing reaches the
// engine until it reports ready; earlier operations are queued, later ones
// of the same kind superseding earlier ones, and the queue is drained once
// on the ready transition.
package surface

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/storemap/internal/camera"
	"github.com/sells-group/storemap/internal/derive"
)

// Engine is the map rendering engine the adapter drives.
type Engine interface {
	HasSource(id string) bool
	AddSource(id string, data *geojson.FeatureCollection) error
	SetSourceData(id string, data *geojson.FeatureCollection) error
	HasLayer(id string) bool
	AddLayer(spec LayerSpec) error
	SetLayoutProperty(layer, name string, value any) error
	FlyTo(cmd camera.Command) error
	FitBounds(cmd camera.Command) error
	Resize(width, height int) error
}

// State is the engine lifecycle.
type State int

// Lifecycle states. Ready is entered at most once.
const (
	Uninitialized State = iota
	Initializing
	Ready
	Disposed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Disposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type size struct{ w, h int }

// Adapter mediates every engine mutation. Not safe for concurrent use.
type Adapter struct {
	engine Engine
	layers []LayerSpec
	log    *zap.Logger
	state  State

	view       *derive.View
	layout     map[string]bool
	layoutSeq  []string
	cam        *camera.Command
	size       *size
	lastSize   size
	engineErrs int
}

// New creates an Adapter in the uninitialized state.
func New(engine Engine, layers []LayerSpec, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.L()
	}
	return &Adapter{
		engine: engine,
		layers: layers,
		log:    log.With(zap.String("component", "surface")),
		layout: make(map[string]bool),
	}
}

// State returns the lifecycle state.
func (a *Adapter) State() State {
	return a.state
}

// Ready reports whether operations reach the engine immediately.
func (a *Adapter) Ready() bool {
	return a.state == Ready
}

// EngineErrors returns how many engine errors have been observed.
func (a *Adapter) EngineErrors() int {
	return a.engineErrs
}

// Init marks the engine as being created.
func (a *Adapter) Init() {
	if a.state == Uninitialized {
		a.state = Initializing
	}
}

// MarkReady handles an engine readiness event. The first call ensures
// sources and layers, pushes the latest view and drains queued operations;
// later calls do nothing. It reports whether this call made the engine ready.
func (a *Adapter) MarkReady() bool {
	if a.state == Ready || a.state == Disposed {
		return false
	}
	a.state = Ready
	a.log.Debug("surface: ready")

	a.EnsureSourcesAndLayers()
	if a.view != nil {
		a.pushView(*a.view)
		a.view = nil
	}
	for _, id := range a.layoutSeq {
		a.applyVisible(id, a.layout[id])
	}
	a.layout = make(map[string]bool)
	a.layoutSeq = nil
	if a.size != nil {
		a.applyResize(*a.size)
		a.size = nil
	}
	if a.cam != nil {
		a.applyCamera(*a.cam)
		a.cam = nil
	}
	return true
}

// Dispose turns every later operation into a no-op.
func (a *Adapter) Dispose() {
	a.state = Disposed
	a.view = nil
	a.cam = nil
	a.size = nil
	a.layout = make(map[string]bool)
	a.layoutSeq = nil
}

// EnsureSourcesAndLayers creates any missing source or layer. It checks
// before each creation, so repeated calls are harmless.
func (a *Adapter) EnsureSourcesAndLayers() {
	if a.state != Ready {
		return
	}
	for _, id := range Sources {
		if a.engine.HasSource(id) {
			continue
		}
		a.check(a.engine.AddSource(id, geojson.NewFeatureCollection()), "add source", id)
	}
	for _, l := range a.layers {
		if a.engine.HasLayer(l.ID) {
			continue
		}
		a.check(a.engine.AddLayer(l), "add layer", l.ID)
	}
}

// PushData records v as the latest view and, when ready, pushes it to the
// stores and DCs sources.
func (a *Adapter) PushData(v derive.View) {
	switch a.state {
	case Disposed:
		return
	case Ready:
		a.pushView(v)
	default:
		a.view = &v
	}
}

// SetLayerVisible shows or hides a layer.
func (a *Adapter) SetLayerVisible(id string, visible bool) {
	switch a.state {
	case Disposed:
		return
	case Ready:
		a.applyVisible(id, visible)
	default:
		if _, ok := a.layout[id]; !ok {
			a.layoutSeq = append(a.layoutSeq, id)
		}
		a.layout[id] = visible
	}
}

// MoveCamera executes cmd, or holds it until ready, replacing any held
// command.
func (a *Adapter) MoveCamera(cmd camera.Command) {
	switch a.state {
	case Disposed:
		return
	case Ready:
		a.applyCamera(cmd)
	default:
		a.cam = &cmd
	}
}

// Resize tells the engine its container changed size. Unchanged or empty
// dimensions are ignored.
func (a *Adapter) Resize(width, height int) {
	if a.state == Disposed || width <= 0 || height <= 0 {
		return
	}
	s := size{width, height}
	if s == a.lastSize {
		return
	}
	a.lastSize = s
	if a.state == Ready {
		a.applyResize(s)
		return
	}
	a.size = &s
}

// HandleEngineError records an error reported by the engine. The session
// keeps running.
func (a *Adapter) HandleEngineError(message string) {
	a.engineErrs++
	a.log.Warn("surface: engine error",
		zap.String("error", message),
		zap.String("state", a.state.String()),
		zap.Int("count", a.engineErrs),
	)
}

func (a *Adapter) pushView(v derive.View) {
	a.check(a.engine.SetSourceData(SourceStores, v.StoresCollection()), "set data", SourceStores)
	a.check(a.engine.SetSourceData(SourceDCs, v.DCsCollection()), "set data", SourceDCs)
}

func (a *Adapter) applyVisible(id string, visible bool) {
	value := "none"
	if visible {
		value = "visible"
	}
	a.check(a.engine.SetLayoutProperty(id, "visibility", value), "set visibility", id)
}

func (a *Adapter) applyCamera(cmd camera.Command) {
	var err error
	if cmd.Kind == camera.FlyTo {
		err = a.engine.FlyTo(cmd)
	} else {
		err = a.engine.FitBounds(cmd)
	}
	a.check(err, "camera", string(cmd.Target))
}

func (a *Adapter) applyResize(s size) {
	a.check(a.engine.Resize(s.w, s.h), "resize", fmt.Sprintf("%dx%d", s.w, s.h))
}

func (a *Adapter) check(err error, op, target string) {
	if err == nil {
		return
	}
	a.engineErrs++
	a.log.Warn("surface: engine call failed",
		zap.String("op", op),
		zap.String("target", target),
		zap.Error(err),
	)
}
