// Package health defines the store health bands shared by map paint,
// legend, tooltips and exports.
package health

import "fmt"

// Band is a health classification.
type Band string

// Health bands.
const (
	Healthy Band = "healthy"
	Watch   Band = "watch"
	AtRisk  Band = "at-risk"
)

// Band thresholds. A score equal to a threshold belongs to the higher band.
const (
	HealthyMin = 80.0
	WatchMin   = 60.0
)

// BandOf classifies a health score.
func BandOf(h float64) Band {
	switch {
	case h >= HealthyMin:
		return Healthy
	case h >= WatchMin:
		return Watch
	default:
		return AtRisk
	}
}

// Color returns the band's paint color.
func (b Band) Color() string {
	switch b {
	case Healthy:
		return "#22c55e"
	case Watch:
		return "#f59e0b"
	default:
		return "#ef4444"
	}
}

// Label returns the human-readable band name.
func (b Band) Label() string {
	switch b {
	case Healthy:
		return "Healthy"
	case Watch:
		return "Watch"
	default:
		return "At risk"
	}
}

// LegendEntry is one row of the map legend.
type LegendEntry struct {
	Band  Band   `json:"band"`
	Label string `json:"label"`
	Range string `json:"range"`
	Color string `json:"color"`
}

// Legend returns the legend rows, best band first.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Band: Healthy, Label: Healthy.Label(), Range: fmt.Sprintf("≥ %g", HealthyMin), Color: Healthy.Color()},
		{Band: Watch, Label: Watch.Label(), Range: fmt.Sprintf("%g – %g", WatchMin, HealthyMin), Color: Watch.Color()},
		{Band: AtRisk, Label: AtRisk.Label(), Range: fmt.Sprintf("< %g", WatchMin), Color: AtRisk.Color()},
	}
}

// StepExpression returns a map-engine "step" paint expression over the
// numeric feature property prop. Step stops are inclusive on the lower
// edge, matching BandOf.
func StepExpression(prop string) []any {
	return []any{
		"step", []any{"get", prop},
		AtRisk.Color(),
		WatchMin, Watch.Color(),
		HealthyMin, Healthy.Color(),
	}
}
