package view

// Event is a client event delivered to a session's loop.
type Event interface {
	eventType() string
}

// StyleLoaded reports the engine's style finished loading.
type StyleLoaded struct{}

// Loaded reports the engine finished its initial load.
type Loaded struct{}

// EngineError reports a non-fatal engine error.
type EngineError struct {
	Message string
}

// ZoomEnd reports the zoom level after a zoom gesture.
type ZoomEnd struct {
	Zoom float64
}

// Resized reports the map container's new size in CSS pixels.
type Resized struct {
	Width  int
	Height int
}

// Hover reports the pointer entering a feature.
type Hover struct {
	Layer string
	ID    string
}

// HoverEnd reports the pointer leaving all features.
type HoverEnd struct{}

// Click reports a click on a feature.
type Click struct {
	Layer string
	ID    string
}

// FilterChange carries selector changes. Nil fields are left alone; set
// fields apply in the order division, DC, assignment.
type FilterChange struct {
	Division     *string
	DC           *string
	OnlyAssigned *bool
}

// PeriodChange selects a reporting period.
type PeriodChange struct {
	Period string
}

// Reset restores the default filter.
type Reset struct{}

func (StyleLoaded) eventType() string  { return "style.load" }
func (Loaded) eventType() string       { return "load" }
func (EngineError) eventType() string  { return "error" }
func (ZoomEnd) eventType() string      { return "zoomend" }
func (Resized) eventType() string      { return "resize" }
func (Hover) eventType() string        { return "hover" }
func (HoverEnd) eventType() string     { return "hoverend" }
func (Click) eventType() string        { return "click" }
func (FilterChange) eventType() string { return "filter" }
func (PeriodChange) eventType() string { return "period" }
func (Reset) eventType() string        { return "reset" }
