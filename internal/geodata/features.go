package geodata

import (
	"github.com/paulmach/orb/geojson"
)

// StoreFeature encodes a store as a GeoJSON point feature using the
// dataset property names.
func StoreFeature(s Store) *geojson.Feature {
	f := geojson.NewFeature(s.Location)
	f.ID = s.ID
	f.Properties["store_id"] = s.ID
	if s.Name != "" {
		f.Properties["store_name"] = s.Name
	}
	f.Properties["division"] = string(s.Division)
	f.Properties["dc_id"] = s.DCID
	f.Properties["health"] = s.Health
	if s.Turnover != nil {
		f.Properties["turnover"] = *s.Turnover
	}
	if s.ReturnPct != nil {
		f.Properties["return_pct"] = *s.ReturnPct
	}
	f.Properties["assigned"] = s.Assigned
	if s.Country != "" {
		f.Properties["country"] = s.Country
	}
	return f
}

// DCFeature encodes a DC as a point feature at its centroid.
func DCFeature(dc DistributionCenter) *geojson.Feature {
	f := geojson.NewFeature(dc.Centroid)
	f.ID = dc.ID
	f.Properties["dc_id"] = dc.ID
	f.Properties["dc_name"] = dc.DisplayName()
	f.Properties["division"] = string(dc.Division)
	return f
}

// RegionFeature encodes a region boundary as a multipolygon feature.
func RegionFeature(r Region) *geojson.Feature {
	f := geojson.NewFeature(r.Boundary)
	f.Properties["division"] = string(r.Division)
	return f
}

// FeatureCollections encodes the whole dataset in the on-disk format.
func (ds *Dataset) FeatureCollections() (stores, dcs, regions *geojson.FeatureCollection) {
	stores = geojson.NewFeatureCollection()
	for _, s := range ds.Stores() {
		stores.Append(StoreFeature(s))
	}
	dcs = geojson.NewFeatureCollection()
	for _, dc := range ds.DCs() {
		dcs.Append(DCFeature(dc))
	}
	regions = geojson.NewFeatureCollection()
	for _, r := range ds.Regions() {
		regions.Append(RegionFeature(r))
	}
	return stores, dcs, regions
}
