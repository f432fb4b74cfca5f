package surface

import (
	"github.com/sells-group/storemap/internal/health"
)

// Source ids.
const (
	SourceStores = "stores"
	SourceDCs    = "dcs"
)

// Layer ids.
const (
	LayerStores   = "stores-circle"
	LayerDCs      = "dcs-circle"
	LayerDCLabels = "dcs-label"
)

// LayerSpec describes a map layer in the engine's style format.
type LayerSpec struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Source string         `json:"source"`
	Paint  map[string]any `json:"paint,omitempty"`
	Layout map[string]any `json:"layout,omitempty"`
}

// Sources lists the GeoJSON sources the map needs.
var Sources = []string{SourceStores, SourceDCs}

// StoreLayers are shown at store level of detail.
var StoreLayers = []string{LayerStores}

// DCLayers are shown at DC roll-up level of detail.
var DCLayers = []string{LayerDCs, LayerDCLabels}

// DefaultLayers returns the layer set, colored by the shared health bands.
// Every layer starts hidden; the level-of-detail controller reveals them.
func DefaultLayers() []LayerSpec {
	return []LayerSpec{
		{
			ID:     LayerDCs,
			Type:   "circle",
			Source: SourceDCs,
			Paint: map[string]any{
				"circle-color":        health.StepExpression("rollup_health"),
				"circle-radius":       []any{"interpolate", []any{"linear"}, []any{"get", "store_count"}, 1, 8, 200, 22},
				"circle-opacity":      0.85,
				"circle-stroke-color": "#ffffff",
				"circle-stroke-width": 2,
			},
			Layout: map[string]any{"visibility": "none"},
		},
		{
			ID:     LayerDCLabels,
			Type:   "symbol",
			Source: SourceDCs,
			Layout: map[string]any{
				"visibility":  "none",
				"text-field":  []any{"get", "dc_name"},
				"text-size":   12,
				"text-offset": []any{0, 1.6},
			},
			Paint: map[string]any{"text-color": "#1f2937", "text-halo-color": "#ffffff", "text-halo-width": 1},
		},
		{
			ID:     LayerStores,
			Type:   "circle",
			Source: SourceStores,
			Paint: map[string]any{
				"circle-color":        health.StepExpression("health"),
				"circle-radius":       []any{"interpolate", []any{"linear"}, []any{"zoom"}, 4, 2.5, 12, 7},
				"circle-stroke-color": "#ffffff",
				"circle-stroke-width": 0.5,
			},
			Layout: map[string]any{"visibility": "none"},
		},
	}
}
