// Package derive computes the map's visible feature sets from the dataset
// and a filter state. Everything here is a pure function of its inputs.
package derive

import (
	"slices"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/sells-group/storemap/internal/filter"
	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/health"
)

// View is the derived data for one filter state.
type View struct {
	State     filter.State
	Stores    []geodata.Store
	DCs       []geodata.DistributionCenter
	DCOptions []string
	Bands     map[health.Band]int
}

// Derive filters the dataset in a single pass over stores. Stores pass when
// they match the division, then the DC, then the assignment flag. A DC is
// visible when any of its stores passes the division and assignment
// predicates; the DC selection never hides other DCs.
func Derive(ds *geodata.Dataset, st filter.State) View {
	v := View{
		State:     st,
		DCOptions: DCOptions(ds, st.Division),
		Bands:     make(map[health.Band]int, 3),
	}

	dcSeen := make(map[string]bool)
	for _, s := range ds.Stores() {
		if !st.Division.IsAll() && s.Division != st.Division {
			continue
		}
		dcMatch := !st.DCSelected() || s.DCID == st.DC
		if st.OnlyAssigned && !s.Assigned {
			continue
		}
		if s.DCID != "" && !dcSeen[s.DCID] {
			dcSeen[s.DCID] = true
			if dc, ok := ds.DC(s.DCID); ok {
				v.DCs = append(v.DCs, dc)
			}
		}
		if dcMatch {
			v.Stores = append(v.Stores, s)
			v.Bands[health.BandOf(s.Health)]++
		}
	}

	sort.Slice(v.DCs, func(i, j int) bool { return v.DCs[i].ID < v.DCs[j].ID })
	return v
}

// DCOptions returns "ALL" followed by the sorted unique DC ids of stores in
// division (every store for All). The assignment flag does not narrow it.
func DCOptions(ds *geodata.Dataset, division geodata.Division) []string {
	seen := make(map[string]bool)
	for _, s := range ds.Stores() {
		if s.DCID == "" {
			continue
		}
		if division.IsAll() || s.Division == division {
			seen[s.DCID] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return append([]string{geodata.AllDCs}, ids...)
}

// Options caches DCOptions per division for a dataset.
type Options struct {
	byDivision map[geodata.Division][]string
}

// NewOptions precomputes the DC options for All and every division.
func NewOptions(ds *geodata.Dataset) *Options {
	o := &Options{byDivision: make(map[geodata.Division][]string, len(geodata.Divisions)+1)}
	o.byDivision[geodata.DivisionAll] = DCOptions(ds, geodata.DivisionAll)
	for _, d := range geodata.Divisions {
		o.byDivision[d] = DCOptions(ds, d)
	}
	return o
}

// For returns the options for division. It satisfies filter.OptionsFunc.
func (o *Options) For(division geodata.Division) []string {
	if division.IsAll() {
		division = geodata.DivisionAll
	}
	opts, ok := o.byDivision[division]
	if !ok {
		return []string{geodata.AllDCs}
	}
	return slices.Clone(opts)
}

// StoreBounds returns the bounding box of the visible stores.
func (v View) StoreBounds() (orb.Bound, bool) {
	if len(v.Stores) == 0 {
		return orb.Bound{}, false
	}
	b := v.Stores[0].Location.Bound()
	for _, s := range v.Stores[1:] {
		b = b.Extend(s.Location)
	}
	return b, true
}

// StoresCollection encodes the visible stores for the map's stores source.
func (v View) StoresCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(v.Stores))
	for _, s := range v.Stores {
		f := geodata.StoreFeature(s)
		f.Properties["band"] = string(health.BandOf(s.Health))
		fc.Append(f)
	}
	return fc
}

// DCsCollection encodes the visible DCs with their roll-up health.
func (v View) DCsCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(v.DCs))
	for _, dc := range v.DCs {
		f := geodata.DCFeature(dc)
		f.Properties["store_count"] = dc.StoreCount
		if dc.HasRollup {
			f.Properties["rollup_health"] = dc.RollupHealth
			f.Properties["band"] = string(health.BandOf(dc.RollupHealth))
		}
		fc.Append(f)
	}
	return fc
}
