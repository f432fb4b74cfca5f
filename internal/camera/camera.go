// Package camera decides where the map looks after each filter change.
package camera

import (
	"github.com/paulmach/orb"

	"github.com/sells-group/storemap/internal/derive"
	"github.com/sells-group/storemap/internal/geodata"
)

// NationalBounds frames the contiguous United States.
var NationalBounds = orb.Bound{Min: orb.Point{-125.0, 24.5}, Max: orb.Point{-66.9, 49.5}}

// Kind is the camera move type.
type Kind string

// Camera moves.
const (
	FlyTo     Kind = "flyTo"
	FitBounds Kind = "fitBounds"
)

// Target names which rule produced a command.
type Target string

// Framing targets, highest precedence first.
const (
	TargetDC       Target = "dc"
	TargetRegion   Target = "region"
	TargetVisible  Target = "visible"
	TargetNational Target = "national"
)

// Command is one camera move. Seq increases with every command a Director
// issues; later commands supersede earlier ones.
type Command struct {
	Seq      uint64    `json:"seq"`
	Kind     Kind      `json:"kind"`
	Target   Target    `json:"target"`
	Center   orb.Point `json:"center"`
	Zoom     float64   `json:"zoom,omitempty"`
	Bounds   orb.Bound `json:"bounds"`
	MaxZoom  float64   `json:"max_zoom,omitempty"`
	Pitch    float64   `json:"pitch"`
	Bearing  float64   `json:"bearing"`
	Padding  int       `json:"padding,omitempty"`
	Duration int       `json:"duration_ms"`
}

// Options are the framing presets.
type Options struct {
	DrillZoom        float64
	DrillPitch       float64
	DrillBearing     float64
	RegionMaxZoom    float64
	RegionPitch      float64
	Padding          int
	DurationMillis   int
	FitVisibleStores bool
	National         orb.Bound
}

// Director turns filter states into camera commands. Not safe for
// concurrent use.
type Director struct {
	opts Options
	seq  uint64
}

// NewDirector creates a Director. A zero National bound uses NationalBounds.
func NewDirector(opts Options) *Director {
	if opts.National.IsZero() {
		opts.National = NationalBounds
	}
	return &Director{opts: opts}
}

// Seq returns the sequence number of the last issued command.
func (d *Director) Seq() uint64 {
	return d.seq
}

// Frame returns the single camera command for view. The first matching
// rule wins: a selected DC, then the division's region, then national (or
// visible-store) bounds.
func (d *Director) Frame(ds *geodata.Dataset, view derive.View) Command {
	cmd := d.target(ds, view)
	d.seq++
	cmd.Seq = d.seq
	cmd.Duration = d.opts.DurationMillis
	return cmd
}

func (d *Director) target(ds *geodata.Dataset, view derive.View) Command {
	st := view.State

	if st.DCSelected() {
		if dc, ok := ds.DC(st.DC); ok {
			if len(dc.Area) > 0 {
				return Command{
					Kind:    FitBounds,
					Target:  TargetDC,
					Bounds:  dc.Area.Bound(),
					MaxZoom: d.opts.DrillZoom,
					Pitch:   d.opts.DrillPitch,
					Bearing: d.opts.DrillBearing,
					Padding: d.opts.Padding,
				}
			}
			return Command{
				Kind:    FlyTo,
				Target:  TargetDC,
				Center:  dc.Centroid,
				Zoom:    d.opts.DrillZoom,
				Pitch:   d.opts.DrillPitch,
				Bearing: d.opts.DrillBearing,
			}
		}
	}

	if !st.Division.IsAll() {
		if r, ok := ds.Region(st.Division); ok {
			return Command{
				Kind:    FitBounds,
				Target:  TargetRegion,
				Bounds:  r.Boundary.Bound(),
				MaxZoom: d.opts.RegionMaxZoom,
				Pitch:   d.opts.RegionPitch,
				Padding: d.opts.Padding,
			}
		}
	}

	if d.opts.FitVisibleStores {
		if b, ok := view.StoreBounds(); ok {
			return Command{
				Kind:    FitBounds,
				Target:  TargetVisible,
				Bounds:  b,
				MaxZoom: d.opts.RegionMaxZoom,
				Padding: d.opts.Padding,
			}
		}
	}

	return Command{
		Kind:    FitBounds,
		Target:  TargetNational,
		Bounds:  d.opts.National,
		Padding: d.opts.Padding,
	}
}
