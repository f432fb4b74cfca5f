// Package lod switches the map between DC roll-ups and individual stores.
package lod

import (
	"go.uber.org/zap"
)

// Level is the active level of detail.
type Level string

// Levels of detail.
const (
	LevelDCs    Level = "dcs"
	LevelStores Level = "stores"
)

// Layers toggles map layer visibility. The surface adapter implements it.
type Layers interface {
	SetLayerVisible(id string, visible bool)
}

// Controller shows the store layers when zoomed in past the threshold or
// when a specific DC is selected, and the DC roll-up layers otherwise.
// It only touches the layers when the level changes.
type Controller struct {
	threshold   float64
	storeLayers []string
	dcLayers    []string
	layers      Layers

	zoom       float64
	dcSelected bool
	level      Level
	applied    bool
}

// New creates a Controller. zoom is the map's initial zoom.
func New(layers Layers, threshold, zoom float64, storeLayers, dcLayers []string) *Controller {
	return &Controller{
		threshold:   threshold,
		storeLayers: storeLayers,
		dcLayers:    dcLayers,
		layers:      layers,
		zoom:        zoom,
	}
}

// Level returns the current level.
func (c *Controller) Level() Level {
	if !c.applied {
		return c.compute()
	}
	return c.level
}

// Zoom returns the last observed zoom.
func (c *Controller) Zoom() float64 {
	return c.zoom
}

// OnZoom records a zoom-end and reapplies the level. It reports whether
// the level changed.
func (c *Controller) OnZoom(zoom float64) bool {
	c.zoom = zoom
	return c.apply()
}

// OnFilter records whether a DC is selected and reapplies the level.
func (c *Controller) OnFilter(dcSelected bool) bool {
	c.dcSelected = dcSelected
	return c.apply()
}

// Sync applies the current level unconditionally the first time it is
// called, and like apply afterwards.
func (c *Controller) Sync() bool {
	return c.apply()
}

func (c *Controller) compute() Level {
	if c.zoom >= c.threshold || c.dcSelected {
		return LevelStores
	}
	return LevelDCs
}

func (c *Controller) apply() bool {
	next := c.compute()
	if c.applied && next == c.level {
		return false
	}
	c.level = next
	c.applied = true

	stores := next == LevelStores
	for _, id := range c.storeLayers {
		c.layers.SetLayerVisible(id, stores)
	}
	for _, id := range c.dcLayers {
		c.layers.SetLayerVisible(id, !stores)
	}
	zap.L().Debug("lod: level changed",
		zap.String("level", string(next)),
		zap.Float64("zoom", c.zoom),
		zap.Bool("dc_selected", c.dcSelected),
	)
	return true
}
