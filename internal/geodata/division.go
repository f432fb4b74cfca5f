package geodata

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Division is one of the four operating divisions or the "All" sentinel.
type Division string

// Known divisions.
const (
	DivisionAll        Division = "All"
	DivisionNorthern   Division = "Northern"
	DivisionSouthern   Division = "Southern"
	DivisionEastern    Division = "Eastern"
	DivisionMidwestern Division = "Midwestern"
)

// Divisions lists the concrete divisions in selector order.
var Divisions = []Division{DivisionNorthern, DivisionSouthern, DivisionEastern, DivisionMidwestern}

var divisionAliases = map[string]Division{
	"All":        DivisionAll,
	"Northern":   DivisionNorthern,
	"North":      DivisionNorthern,
	"Southern":   DivisionSouthern,
	"South":      DivisionSouthern,
	"Eastern":    DivisionEastern,
	"East":       DivisionEastern,
	"Midwestern": DivisionMidwestern,
	"Midwest":    DivisionMidwestern,
}

// ParseDivision normalizes s ("southern", " SOUTH ", "Southern") to a
// Division. The second result is false when s names no known division.
func ParseDivision(s string) (Division, bool) {
	// Casers carry state, so each call gets its own.
	key := cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(s)))
	d, ok := divisionAliases[key]
	return d, ok
}

// IsAll reports whether d is the "All" sentinel (or empty).
func (d Division) IsAll() bool {
	return d == DivisionAll || d == ""
}
