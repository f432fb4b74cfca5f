package geodata

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// Dataset is the immutable store/DC/region collection for a session. All
// accessors return shared data that callers must treat as read-only.
type Dataset struct {
	stores      []Store
	storeIdx    map[string]int
	dcs         map[string]*DistributionCenter
	dcIDs       []string
	regions     map[Division]Region
	synthesized map[string]bool
	fingerprint string
}

// New builds a Dataset, computing each DC's health roll-up once. DCs that
// stores reference but that are missing from dcs are synthesized at the
// mean location of their stores. Duplicate store ids keep the first record.
func New(stores []Store, dcs []DistributionCenter, regions []Region) *Dataset {
	ds := &Dataset{
		stores:   make([]Store, 0, len(stores)),
		storeIdx: make(map[string]int, len(stores)),
		dcs:      make(map[string]*DistributionCenter, len(dcs)),
		regions:  make(map[Division]Region, len(regions)),

		synthesized: make(map[string]bool),
	}

	var dupes int
	for _, s := range stores {
		if _, ok := ds.storeIdx[s.ID]; ok {
			dupes++
			continue
		}
		ds.storeIdx[s.ID] = len(ds.stores)
		ds.stores = append(ds.stores, s)
	}
	if dupes > 0 {
		zap.L().Warn("geodata: dropped duplicate store ids", zap.Int("count", dupes))
	}

	for _, dc := range dcs {
		dc.RollupHealth, dc.HasRollup, dc.StoreCount = 0, false, 0
		ds.dcs[dc.ID] = &dc
	}

	ds.rollup()

	for id := range ds.dcs {
		ds.dcIDs = append(ds.dcIDs, id)
	}
	sort.Strings(ds.dcIDs)

	for _, r := range regions {
		if r.Division.IsAll() {
			continue
		}
		ds.regions[r.Division] = r
	}

	ds.fingerprint = ds.computeFingerprint()
	return ds
}

// rollup computes the grouped mean of store health per DC.
func (ds *Dataset) rollup() {
	type acc struct {
		sum      float64
		lon, lat float64
		n        int
		division Division
	}
	groups := make(map[string]*acc)
	for _, s := range ds.stores {
		g, ok := groups[s.DCID]
		if !ok {
			g = &acc{division: s.Division}
			groups[s.DCID] = g
		}
		g.sum += s.Health
		g.lon += s.Location.Lon()
		g.lat += s.Location.Lat()
		g.n++
	}

	var synthesized int
	for id, g := range groups {
		if id == "" {
			continue
		}
		dc, ok := ds.dcs[id]
		if !ok {
			dc = &DistributionCenter{
				ID:       id,
				Division: g.division,
				Centroid: orb.Point{g.lon / float64(g.n), g.lat / float64(g.n)},
			}
			ds.dcs[id] = dc
			ds.synthesized[id] = true
			synthesized++
		}
		dc.RollupHealth = g.sum / float64(g.n)
		dc.HasRollup = true
		dc.StoreCount = g.n
	}
	if synthesized > 0 {
		zap.L().Debug("geodata: synthesized distribution centers from stores", zap.Int("count", synthesized))
	}
}

func (ds *Dataset) computeFingerprint() string {
	h := sha256.New()
	for _, s := range ds.stores {
		fmt.Fprintf(h, "s|%s|%s|%s|%g|%t|%g|%g\n", s.ID, s.Division, s.DCID, s.Health, s.Assigned, s.Location.Lon(), s.Location.Lat())
	}
	for _, id := range ds.dcIDs {
		dc := ds.dcs[id]
		fmt.Fprintf(h, "d|%s|%s|%s|%g|%g\n", dc.ID, dc.Name, dc.Division, dc.Centroid.Lon(), dc.Centroid.Lat())
	}
	for _, d := range Divisions {
		if r, ok := ds.regions[d]; ok {
			fmt.Fprintf(h, "r|%s|%v\n", d, r.Boundary.Bound())
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Stores returns every store in load order.
func (ds *Dataset) Stores() []Store {
	return ds.stores
}

// Store looks up a store by id.
func (ds *Dataset) Store(id string) (Store, bool) {
	i, ok := ds.storeIdx[id]
	if !ok {
		return Store{}, false
	}
	return ds.stores[i], true
}

// DC looks up a distribution center by id.
func (ds *Dataset) DC(id string) (DistributionCenter, bool) {
	dc, ok := ds.dcs[id]
	if !ok {
		return DistributionCenter{}, false
	}
	return *dc, true
}

// DCs returns all distribution centers sorted by id.
func (ds *Dataset) DCs() []DistributionCenter {
	out := make([]DistributionCenter, 0, len(ds.dcIDs))
	for _, id := range ds.dcIDs {
		out = append(out, *ds.dcs[id])
	}
	return out
}

// Synthesized reports whether DC id was missing from the DC source and
// created from its stores.
func (ds *Dataset) Synthesized(id string) bool {
	return ds.synthesized[id]
}

// Region returns the boundary for a concrete division.
func (ds *Dataset) Region(d Division) (Region, bool) {
	r, ok := ds.regions[d]
	return r, ok && len(r.Boundary) > 0
}

// Regions returns the loaded regions in division order.
func (ds *Dataset) Regions() []Region {
	out := make([]Region, 0, len(ds.regions))
	for _, d := range Divisions {
		if r, ok := ds.regions[d]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Fingerprint identifies the dataset contents; it changes whenever any
// record that affects derived views changes.
func (ds *Dataset) Fingerprint() string {
	return ds.fingerprint
}

// Summary returns record counts for logging and the API.
func (ds *Dataset) Summary() Summary {
	sum := Summary{
		Stores:      len(ds.stores),
		DCs:         len(ds.dcs),
		Regions:     len(ds.regions),
		ByDivision:  make(map[string]int),
		Fingerprint: ds.fingerprint,
	}
	for _, s := range ds.stores {
		sum.ByDivision[string(s.Division)]++
		if s.Assigned {
			sum.Assigned++
		}
	}
	return sum
}
