// Package filter holds the map's selection state: division, DC and the
// only-assigned toggle. Setters never fail; invalid input is corrected to
// the nearest valid state.
package filter

import (
	"slices"
	"strings"

	"github.com/sells-group/storemap/internal/geodata"
)

// State is a normalized filter selection.
type State struct {
	Division     geodata.Division `json:"division"`
	DC           string           `json:"dc"`
	OnlyAssigned bool             `json:"only_assigned"`
}

// Default is the state every session starts from.
func Default() State {
	return State{Division: geodata.DivisionAll, DC: geodata.AllDCs}
}

// DCSelected reports whether a specific DC is selected.
func (s State) DCSelected() bool {
	return s.DC != "" && s.DC != geodata.AllDCs
}

// Key is a stable string form of the state, suitable for cache keys.
func (s State) Key() string {
	assigned := "0"
	if s.OnlyAssigned {
		assigned = "1"
	}
	return string(s.Division) + "|" + s.DC + "|" + assigned
}

// OptionsFunc lists the selectable DC ids for a division, "ALL" first.
type OptionsFunc func(geodata.Division) []string

// Filter owns a State and enforces its invariants. It is not safe for
// concurrent use; a session's event loop owns it.
type Filter struct {
	state   State
	options OptionsFunc
}

// New creates a Filter in the default state.
func New(options OptionsFunc) *Filter {
	return &Filter{state: Default(), options: options}
}

// State returns the current selection.
func (f *Filter) State() State {
	return f.state
}

// DCOptions returns the DC choices for the current division.
func (f *Filter) DCOptions() []string {
	return f.options(f.state.Division)
}

// SetDivision selects a division and resets the DC to ALL. Unknown names
// select All.
func (f *Filter) SetDivision(name string) bool {
	div, ok := geodata.ParseDivision(name)
	if !ok {
		div = geodata.DivisionAll
	}
	return f.set(State{Division: div, DC: geodata.AllDCs, OnlyAssigned: f.state.OnlyAssigned})
}

// SetDC selects a DC. Ids not offered for the current division select ALL.
func (f *Filter) SetDC(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || strings.EqualFold(id, geodata.AllDCs) || !slices.Contains(f.DCOptions(), id) {
		id = geodata.AllDCs
	}
	next := f.state
	next.DC = id
	return f.set(next)
}

// SetOnlyAssigned toggles the assignment filter.
func (f *Filter) SetOnlyAssigned(only bool) bool {
	next := f.state
	next.OnlyAssigned = only
	return f.set(next)
}

// Reset restores the default state.
func (f *Filter) Reset() bool {
	return f.set(Default())
}

func (f *Filter) set(next State) bool {
	if next == f.state {
		return false
	}
	f.state = next
	return true
}

// Normalize builds a valid State from raw selector values, applying the
// setters in selector order.
func Normalize(options OptionsFunc, division, dc string, onlyAssigned bool) State {
	f := New(options)
	f.SetDivision(division)
	f.SetDC(dc)
	f.SetOnlyAssigned(onlyAssigned)
	return f.State()
}
