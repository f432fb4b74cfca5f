package livemap

import (
	"encoding/json"

	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"

	"github.com/sells-group/storemap/internal/camera"
	"github.com/sells-group/storemap/internal/interact"
	"github.com/sells-group/storemap/internal/surface"
	"github.com/sells-group/storemap/internal/view"
)

// ErrConnClosed is returned when writing to a closed connection.
var ErrConnClosed = eris.New("livemap: connection closed")

// Conn is the server side of one browser map. It implements surface.Engine
// by sending command frames and view.Sink by sending state, tooltip and
// navigate frames. The browser cannot be queried synchronously, so source
// and layer existence is answered from a mirror of what was created.
//
// Engine and sink methods are called from the session loop only.
type Conn struct {
	out     chan []byte
	done    <-chan struct{}
	sources map[string]bool
	layers  map[string]bool
}

// NewConn creates a Conn whose frames are queued on out until done closes.
func NewConn(out chan []byte, done <-chan struct{}) *Conn {
	return &Conn{
		out:     out,
		done:    done,
		sources: make(map[string]bool),
		layers:  make(map[string]bool),
	}
}

var (
	_ surface.Engine = (*Conn)(nil)
	_ view.Sink      = (*Conn)(nil)
)

// Send marshals f and queues it, blocking while the writer is behind.
func (c *Conn) Send(f OutFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return eris.Wrapf(err, "livemap: encode %s frame", f.Type)
	}
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.out <- data:
		return nil
	case <-c.done:
		return ErrConnClosed
	}
}

func (c *Conn) command(op string, payload any) error {
	return c.Send(OutFrame{Type: FrameCommand, Op: op, Payload: payload})
}

// HasSource reports whether id was added on this connection.
func (c *Conn) HasSource(id string) bool { return c.sources[id] }

// AddSource creates a GeoJSON source.
func (c *Conn) AddSource(id string, data *geojson.FeatureCollection) error {
	if err := c.command(OpAddSource, map[string]any{"id": id, "data": data}); err != nil {
		return err
	}
	c.sources[id] = true
	return nil
}

// SetSourceData replaces a source's features.
func (c *Conn) SetSourceData(id string, data *geojson.FeatureCollection) error {
	if !c.sources[id] {
		return eris.Errorf("livemap: set data on missing source %q", id)
	}
	return c.command(OpSetData, map[string]any{"id": id, "data": data})
}

// HasLayer reports whether id was added on this connection.
func (c *Conn) HasLayer(id string) bool { return c.layers[id] }

// AddLayer creates a style layer.
func (c *Conn) AddLayer(spec surface.LayerSpec) error {
	if err := c.command(OpAddLayer, spec); err != nil {
		return err
	}
	c.layers[spec.ID] = true
	return nil
}

// SetLayoutProperty sets one layout property on a layer.
func (c *Conn) SetLayoutProperty(layer, name string, value any) error {
	return c.command(OpSetLayout, map[string]any{"layer": layer, "name": name, "value": value})
}

// FlyTo animates the camera to a point.
func (c *Conn) FlyTo(cmd camera.Command) error {
	return c.command(OpFlyTo, cameraPayload(cmd))
}

// FitBounds animates the camera to a bounding box.
func (c *Conn) FitBounds(cmd camera.Command) error {
	return c.command(OpFitBounds, cameraPayload(cmd))
}

// Resize asks the engine to re-measure its container.
func (c *Conn) Resize(width, height int) error {
	return c.command(OpResize, map[string]int{"width": width, "height": height})
}

// State sends a session snapshot.
func (c *Conn) State(s view.Snapshot) error {
	return c.Send(OutFrame{Type: FrameState, Payload: s})
}

// Tooltip shows t, or hides the tooltip when t is nil.
func (c *Conn) Tooltip(t *interact.Tooltip) error {
	return c.Send(OutFrame{Type: FrameTooltip, Payload: t})
}

// Navigate sends a navigation intent.
func (c *Conn) Navigate(i interact.Intent) error {
	return c.Send(OutFrame{Type: FrameNavigate, Payload: map[string]any{
		"store_id": i.StoreID,
		"period":   i.Period,
		"path":     i.Path(),
	}})
}
