package geodata

import (
	"os"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// CatalogEntry describes a DC in the YAML catalog file.
type CatalogEntry struct {
	ID       string   `yaml:"dc_id"`
	Name     string   `yaml:"name"`
	Division string   `yaml:"division"`
	Lon      *float64 `yaml:"lon"`
	Lat      *float64 `yaml:"lat"`
}

// Catalog is the optional DC catalog: display names and locations for DCs
// the geometry files omit or name poorly.
type Catalog struct {
	DistributionCenters []CatalogEntry `yaml:"distribution_centers"`
}

// ReadCatalog parses a YAML DC catalog.
func ReadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geodata: read catalog %s", path)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrapf(err, "geodata: parse catalog %s", path)
	}
	return &c, nil
}

// Apply overlays the catalog on dcs: names and divisions override existing
// entries, and entries with coordinates add DCs that are missing.
func (c *Catalog) Apply(dcs []DistributionCenter) []DistributionCenter {
	if c == nil {
		return dcs
	}
	idx := make(map[string]int, len(dcs))
	for i, dc := range dcs {
		idx[dc.ID] = i
	}
	for _, e := range c.DistributionCenters {
		if e.ID == "" {
			continue
		}
		div, divOK := ParseDivision(e.Division)
		if i, ok := idx[e.ID]; ok {
			if e.Name != "" {
				dcs[i].Name = e.Name
			}
			if divOK && !div.IsAll() {
				dcs[i].Division = div
			}
			continue
		}
		if e.Lon == nil || e.Lat == nil {
			continue
		}
		dcs = append(dcs, DistributionCenter{
			ID:       e.ID,
			Name:     e.Name,
			Division: div,
			Centroid: orb.Point{*e.Lon, *e.Lat},
		})
		idx[e.ID] = len(dcs) - 1
	}
	return dcs
}
