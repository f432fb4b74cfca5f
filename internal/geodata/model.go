// Package geodata holds the static store/DC/region dataset behind the map
// view and the loaders that read it from GeoJSON, shapefiles, Postgres and
// SQLite.
package geodata

import (
	"github.com/paulmach/orb"
)

// AllDCs is the DC selector value meaning "no specific DC".
const AllDCs = "ALL"

// Store is a single retail location. Stores are loaded once and never
// mutated at runtime.
type Store struct {
	ID        string    `json:"store_id"`
	Name      string    `json:"store_name,omitempty"`
	Location  orb.Point `json:"-"`
	Division  Division  `json:"division"`
	DCID      string    `json:"dc_id"`
	Health    float64   `json:"health"`
	Turnover  *float64  `json:"turnover,omitempty"`
	ReturnPct *float64  `json:"return_pct,omitempty"`
	Assigned  bool      `json:"assigned"`
	Country   string    `json:"country,omitempty"`
}

// DisplayName returns the store name, falling back to its id.
func (s Store) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// DistributionCenter is a DC with its health roll-up over member stores.
type DistributionCenter struct {
	ID       string    `json:"dc_id"`
	Name     string    `json:"dc_name"`
	Division Division  `json:"division"`
	Centroid orb.Point `json:"-"`
	// Area is the optional service-area polygon; nil when the DC is a point.
	Area orb.MultiPolygon `json:"-"`

	RollupHealth float64 `json:"rollup_health"`
	HasRollup    bool    `json:"has_rollup"`
	StoreCount   int     `json:"store_count"`
}

// DisplayName returns the DC name, falling back to its id.
func (dc DistributionCenter) DisplayName() string {
	if dc.Name != "" {
		return dc.Name
	}
	return dc.ID
}

// Region is a division boundary used for camera framing and highlighting.
type Region struct {
	Division Division         `json:"division"`
	Boundary orb.MultiPolygon `json:"-"`
}

// Summary describes a loaded dataset.
type Summary struct {
	Stores      int            `json:"stores"`
	DCs         int            `json:"dcs"`
	Regions     int            `json:"regions"`
	ByDivision  map[string]int `json:"by_division"`
	Assigned    int            `json:"assigned"`
	Fingerprint string         `json:"fingerprint"`
}
