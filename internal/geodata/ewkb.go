package geodata

import (
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

const srid = 4326

// EncodeEWKB converts an orb geometry to EWKB bytes with SRID 4326.
// Returns nil, nil for a nil geometry.
func EncodeEWKB(g orb.Geometry) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	gg, err := toGeom(g)
	if err != nil {
		return nil, err
	}
	data, err := ewkb.Marshal(gg, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geodata: encode EWKB")
	}
	return data, nil
}

// DecodeEWKB parses EWKB (or plain WKB) bytes into an orb geometry.
// Returns nil, nil for empty input.
func DecodeEWKB(data []byte) (orb.Geometry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "geodata: decode EWKB")
	}
	return fromGeom(g)
}

// toGeom converts the orb geometry kinds the dataset uses into go-geom.
func toGeom(g orb.Geometry) (geom.T, error) {
	switch v := g.(type) {
	case orb.Point:
		return geom.NewPointFlat(geom.XY, []float64{v.Lon(), v.Lat()}).SetSRID(srid), nil
	case orb.Polygon:
		return toGeom(orb.MultiPolygon{v})
	case orb.MultiPolygon:
		mp := geom.NewMultiPolygon(geom.XY).SetSRID(srid)
		for _, p := range v {
			poly := geom.NewPolygon(geom.XY)
			for _, ring := range p {
				if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flatRing(ring))); err != nil {
					return nil, eris.Wrap(err, "geodata: push ring")
				}
			}
			if err := mp.Push(poly); err != nil {
				return nil, eris.Wrap(err, "geodata: push polygon")
			}
		}
		return mp, nil
	default:
		return nil, eris.Errorf("geodata: unsupported geometry %s", g.GeoJSONType())
	}
}

// fromGeom converts go-geom points and (multi)polygons into orb.
func fromGeom(g geom.T) (orb.Geometry, error) {
	switch v := g.(type) {
	case *geom.Point:
		return orb.Point{v.X(), v.Y()}, nil
	case *geom.Polygon:
		return orb.MultiPolygon{polygonFromGeom(v)}, nil
	case *geom.MultiPolygon:
		mp := make(orb.MultiPolygon, 0, v.NumPolygons())
		for i := 0; i < v.NumPolygons(); i++ {
			mp = append(mp, polygonFromGeom(v.Polygon(i)))
		}
		return mp, nil
	default:
		return nil, eris.Errorf("geodata: unsupported geometry %T", g)
	}
}

func polygonFromGeom(p *geom.Polygon) orb.Polygon {
	poly := make(orb.Polygon, 0, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		coords := p.LinearRing(i).Coords()
		ring := make(orb.Ring, 0, len(coords))
		for _, c := range coords {
			ring = append(ring, orb.Point{c[0], c[1]})
		}
		poly = append(poly, ring)
	}
	return poly
}

// flatRing converts a ring to flat coordinate pairs for go-geom.
func flatRing(r orb.Ring) []float64 {
	flat := make([]float64, 0, len(r)*2)
	for _, p := range r {
		flat = append(flat, p.Lon(), p.Lat())
	}
	return flat
}
