package geodata

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// divisionFields are the attribute names searched for the division label.
var divisionFields = []string{"division", "div_name", "name"}

// ReadRegionShapefile reads division boundaries from an ESRI shapefile.
// Records whose division attribute is unknown or whose shape is not a
// polygon are skipped.
func ReadRegionShapefile(shpPath string) ([]Region, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "geodata: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fieldIdx := make(map[string]int)
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	divIdx := -1
	for _, name := range divisionFields {
		if idx, ok := fieldIdx[name]; ok {
			divIdx = idx
			break
		}
	}
	if divIdx < 0 {
		return nil, eris.Errorf("geodata: shapefile %s has no division attribute", shpPath)
	}

	merged := make(map[Division]orb.MultiPolygon)
	var skipped int
	for reader.Next() {
		n, shape := reader.Shape()
		label := strings.TrimSpace(strings.TrimRight(reader.ReadAttribute(n, divIdx), "\x00"))
		div, ok := ParseDivision(label)
		if !ok || div.IsAll() {
			skipped++
			continue
		}

		poly, isPoly := shape.(*shp.Polygon)
		if !isPoly {
			skipped++
			continue
		}
		mp := shapePolygon(poly)
		if mp == nil {
			skipped++
			continue
		}
		g, err := fromGeom(mp)
		if err != nil {
			skipped++
			continue
		}
		merged[div] = append(merged[div], g.(orb.MultiPolygon)...)
	}

	if skipped > 0 {
		zap.L().Debug("geodata: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	regions := make([]Region, 0, len(merged))
	for _, d := range Divisions {
		if mp, ok := merged[d]; ok {
			regions = append(regions, Region{Division: d, Boundary: mp})
		}
	}
	return regions, nil
}

// shapePolygon converts a shapefile Polygon to a geom.MultiPolygon, one
// polygon per part.
func shapePolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(srid)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("geodata: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geodata: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
