package interact

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/health"
)

// Line is one label/value row in a tooltip.
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Tooltip is the hover card for a store or DC.
type Tooltip struct {
	Kind  string      `json:"kind"`
	ID    string      `json:"id"`
	Title string      `json:"title"`
	Band  health.Band `json:"band"`
	Color string      `json:"color"`
	Lines []Line      `json:"lines"`
}

// Tooltip kinds.
const (
	KindStore = "store"
	KindDC    = "dc"
)

func printer() *message.Printer {
	return message.NewPrinter(language.AmericanEnglish)
}

// StoreTooltip builds the hover card for a store.
func StoreTooltip(s geodata.Store) Tooltip {
	p := printer()
	band := health.BandOf(s.Health)
	lines := []Line{
		{Label: "Health", Value: p.Sprintf("%.1f (%s)", s.Health, band.Label())},
	}
	if s.Turnover != nil {
		lines = append(lines, Line{Label: "Turnover", Value: p.Sprintf("%.1fx", *s.Turnover)})
	}
	if s.ReturnPct != nil {
		lines = append(lines, Line{Label: "Returns", Value: p.Sprintf("%.1f%%", *s.ReturnPct*100)})
	}
	lines = append(lines,
		Line{Label: "Division", Value: string(s.Division)},
		Line{Label: "DC", Value: s.DCID},
	)
	title := s.DisplayName()
	if s.Name != "" {
		title = p.Sprintf("%s (%s)", s.Name, s.ID)
	}
	return Tooltip{
		Kind:  KindStore,
		ID:    s.ID,
		Title: title,
		Band:  band,
		Color: band.Color(),
		Lines: lines,
	}
}

// DCTooltip builds the hover card for a DC.
func DCTooltip(dc geodata.DistributionCenter) Tooltip {
	p := printer()
	t := Tooltip{
		Kind:  KindDC,
		ID:    dc.ID,
		Title: dc.DisplayName(),
	}
	if dc.HasRollup {
		t.Band = health.BandOf(dc.RollupHealth)
		t.Color = t.Band.Color()
		t.Lines = append(t.Lines, Line{Label: "Avg health", Value: p.Sprintf("%.1f (%s)", dc.RollupHealth, t.Band.Label())})
	} else {
		t.Lines = append(t.Lines, Line{Label: "Avg health", Value: "n/a"})
	}
	t.Lines = append(t.Lines,
		Line{Label: "Stores", Value: p.Sprintf("%d", dc.StoreCount)},
		Line{Label: "Division", Value: string(dc.Division)},
	)
	return t
}
