package geodata

import (
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ReadFeatureCollection reads a GeoJSON FeatureCollection from disk.
func ReadFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geodata: read %s", path)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, eris.Wrapf(err, "geodata: parse %s", path)
	}
	return fc, nil
}

// WriteFeatureCollection writes fc to path as GeoJSON.
func WriteFeatureCollection(path string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "geodata: marshal feature collection")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "geodata: write %s", path)
	}
	return nil
}

// StoresFromFeatures converts point features into stores. Features without
// a store_id, a point geometry or a known division are skipped. When country
// is set, stores tagged with a different country are dropped.
func StoresFromFeatures(fc *geojson.FeatureCollection, country string) []Store {
	stores := make([]Store, 0, len(fc.Features))
	var skipped, outOfScope int
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			skipped++
			continue
		}
		props := f.Properties
		id := propString(props, "store_id")
		div, divOK := ParseDivision(props.MustString("division", ""))
		if id == "" || !divOK || div.IsAll() {
			skipped++
			continue
		}
		s := Store{
			ID:        id,
			Name:      props.MustString("store_name", ""),
			Location:  pt,
			Division:  div,
			DCID:      propString(props, "dc_id"),
			Health:    props.MustFloat64("health", 0),
			Turnover:  optFloat(props, "turnover"),
			ReturnPct: optFloat(props, "return_pct"),
			Assigned:  props.MustBool("assigned", false),
			Country:   props.MustString("country", ""),
		}
		if country != "" && s.Country != "" && !strings.EqualFold(s.Country, country) {
			outOfScope++
			continue
		}
		stores = append(stores, s)
	}
	if skipped > 0 || outOfScope > 0 {
		zap.L().Debug("geodata: skipped store features",
			zap.Int("invalid", skipped),
			zap.Int("out_of_scope", outOfScope),
		)
	}
	return stores
}

// DCsFromFeatures converts DC features. A point geometry is the centroid;
// a polygon geometry is the service area, with the centroid taken from
// lon/lat properties when present and the polygon centroid otherwise.
func DCsFromFeatures(fc *geojson.FeatureCollection) []DistributionCenter {
	dcs := make([]DistributionCenter, 0, len(fc.Features))
	for _, f := range fc.Features {
		props := f.Properties
		id := propString(props, "dc_id")
		if id == "" {
			continue
		}
		div, _ := ParseDivision(props.MustString("division", ""))
		dc := DistributionCenter{
			ID:       id,
			Name:     props.MustString("dc_name", ""),
			Division: div,
		}
		switch g := f.Geometry.(type) {
		case orb.Point:
			dc.Centroid = g
		case orb.Polygon:
			dc.Area = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			dc.Area = g
		default:
			continue
		}
		if dc.Area != nil {
			lon, lonOK := props["lon"].(float64)
			lat, latOK := props["lat"].(float64)
			if lonOK && latOK {
				dc.Centroid = orb.Point{lon, lat}
			} else {
				dc.Centroid, _ = planar.CentroidArea(dc.Area)
			}
		}
		dcs = append(dcs, dc)
	}
	return dcs
}

// RegionsFromFeatures converts division polygons into regions, merging
// multiple features of the same division.
func RegionsFromFeatures(fc *geojson.FeatureCollection) []Region {
	merged := make(map[Division]orb.MultiPolygon)
	for _, f := range fc.Features {
		div, ok := ParseDivision(f.Properties.MustString("division", ""))
		if !ok || div.IsAll() {
			continue
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			merged[div] = append(merged[div], g)
		case orb.MultiPolygon:
			merged[div] = append(merged[div], g...)
		}
	}
	regions := make([]Region, 0, len(merged))
	for _, d := range Divisions {
		if mp, ok := merged[d]; ok {
			regions = append(regions, Region{Division: d, Boundary: mp})
		}
	}
	return regions
}

// propString reads a string property, accepting numeric ids as well.
func propString(props geojson.Properties, key string) string {
	switch v := props[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func optFloat(props geojson.Properties, key string) *float64 {
	v, ok := props[key].(float64)
	if !ok {
		return nil
	}
	return &v
}
