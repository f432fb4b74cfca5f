// Package interact turns map gestures into tooltips, navigation intents
// and filter changes.
package interact

import (
	"github.com/sells-group/storemap/internal/filter"
	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/surface"
)

// ClickResult is the outcome of a click. At most one field is set.
type ClickResult struct {
	Navigate      *Intent
	FilterChanged bool
}

// Bridge resolves gestures against the dataset. A session's event loop
// owns it.
type Bridge struct {
	ds     *geodata.Dataset
	filter *filter.Filter
	period Period
}

// NewBridge creates a Bridge that routes DC clicks through f.
func NewBridge(ds *geodata.Dataset, f *filter.Filter, period Period) *Bridge {
	if period == "" {
		period = DefaultPeriod
	}
	return &Bridge{ds: ds, filter: f, period: period}
}

// Period returns the active reporting period.
func (b *Bridge) Period() Period {
	return b.period
}

// SetPeriod changes the reporting period. Unknown codes are ignored.
func (b *Bridge) SetPeriod(code string) bool {
	p, err := ParsePeriod(code)
	if err != nil || p == b.period {
		return false
	}
	b.period = p
	return true
}

// Hover returns the tooltip for the feature id on layer.
func (b *Bridge) Hover(layer, id string) (Tooltip, bool) {
	switch layerSource(layer) {
	case surface.SourceStores:
		if s, ok := b.ds.Store(id); ok {
			return StoreTooltip(s), true
		}
	case surface.SourceDCs:
		if dc, ok := b.ds.DC(id); ok {
			return DCTooltip(dc), true
		}
	}
	return Tooltip{}, false
}

// Click navigates to a clicked store, or drills into a clicked DC.
func (b *Bridge) Click(layer, id string) ClickResult {
	switch layerSource(layer) {
	case surface.SourceStores:
		if _, ok := b.ds.Store(id); ok {
			return ClickResult{Navigate: &Intent{StoreID: id, Period: b.period}}
		}
	case surface.SourceDCs:
		return ClickResult{FilterChanged: b.filter.SetDC(id)}
	}
	return ClickResult{}
}

// layerSource maps a layer id (or a bare source id) to its source.
func layerSource(layer string) string {
	switch layer {
	case surface.LayerStores, surface.SourceStores:
		return surface.SourceStores
	case surface.LayerDCs, surface.LayerDCLabels, surface.SourceDCs:
		return surface.SourceDCs
	default:
		return ""
	}
}
