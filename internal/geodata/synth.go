package geodata

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/paulmach/orb"
)

// DegreesPerKM approximates latitude degrees per kilometer.
const DegreesPerKM = 1.0 / 111.0

// GenerateOptions controls the mock dataset generator.
type GenerateOptions struct {
	Seed             uint64
	StoresPerDC      int
	SpreadKM         float64
	AssignedFraction float64
	Country          string
}

// DefaultGenerateOptions produces roughly 2,400 stores across 16 DCs.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Seed:             42,
		StoresPerDC:      150,
		SpreadKM:         180,
		AssignedFraction: 0.15,
		Country:          "US",
	}
}

type seedDC struct {
	id, name string
	division Division
	lon, lat float64
}

var seedDCs = []seedDC{
	{"SEA", "Seattle DC", DivisionNorthern, -122.33, 47.61},
	{"PDX", "Portland DC", DivisionNorthern, -122.68, 45.52},
	{"BOI", "Boise DC", DivisionNorthern, -116.20, 43.62},
	{"MSP", "Minneapolis DC", DivisionNorthern, -93.27, 44.98},
	{"ATL", "Atlanta DC", DivisionSouthern, -84.39, 33.75},
	{"DAL", "Dallas DC", DivisionSouthern, -96.80, 32.78},
	{"HOU", "Houston DC", DivisionSouthern, -95.37, 29.76},
	{"PHX", "Phoenix DC", DivisionSouthern, -112.07, 33.45},
	{"BOS", "Boston DC", DivisionEastern, -71.06, 42.36},
	{"NYC", "Newark DC", DivisionEastern, -74.17, 40.74},
	{"PHL", "Philadelphia DC", DivisionEastern, -75.17, 39.95},
	{"CLT", "Charlotte DC", DivisionEastern, -80.84, 35.23},
	{"CHI", "Chicago DC", DivisionMidwestern, -87.63, 41.88},
	{"STL", "St. Louis DC", DivisionMidwestern, -90.20, 38.63},
	{"KCY", "Kansas City DC", DivisionMidwestern, -94.58, 39.10},
	{"COL", "Columbus DC", DivisionMidwestern, -82.99, 39.96},
}

// Rough rectangles; good enough to frame a division.
var seedRegions = map[Division]orb.Bound{
	DivisionNorthern:   {Min: orb.Point{-125.0, 42.0}, Max: orb.Point{-89.0, 49.0}},
	DivisionSouthern:   {Min: orb.Point{-117.0, 25.0}, Max: orb.Point{-81.0, 36.0}},
	DivisionEastern:    {Min: orb.Point{-84.0, 34.0}, Max: orb.Point{-67.0, 47.5}},
	DivisionMidwestern: {Min: orb.Point{-100.0, 36.0}, Max: orb.Point{-81.0, 42.0}},
}

// Generate synthesizes a deterministic mock dataset: stores scattered around
// the built-in DC sites with health drawn around a per-DC baseline.
func Generate(opts GenerateOptions) *Dataset {
	if opts.StoresPerDC <= 0 {
		opts.StoresPerDC = DefaultGenerateOptions().StoresPerDC
	}
	if opts.SpreadKM <= 0 {
		opts.SpreadKM = DefaultGenerateOptions().SpreadKM
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	dcs := make([]DistributionCenter, 0, len(seedDCs))
	var stores []Store
	n := 0
	for _, sd := range seedDCs {
		dcs = append(dcs, DistributionCenter{
			ID:       sd.id,
			Name:     sd.name,
			Division: sd.division,
			Centroid: orb.Point{sd.lon, sd.lat},
		})

		baseline := 55 + rng.Float64()*35
		count := opts.StoresPerDC/2 + rng.IntN(opts.StoresPerDC+1)
		spread := opts.SpreadKM * DegreesPerKM
		for range count {
			n++
			lat := sd.lat + rng.NormFloat64()*spread/2
			lon := sd.lon + rng.NormFloat64()*spread/2/math.Cos(sd.lat*math.Pi/180)

			turnover := round1(2 + rng.Float64()*10)
			returns := math.Round(rng.Float64()*0.12*1000) / 1000
			stores = append(stores, Store{
				ID:        fmt.Sprintf("S%05d", n),
				Name:      fmt.Sprintf("Store #%d", n),
				Location:  orb.Point{round5(lon), round5(lat)},
				Division:  sd.division,
				DCID:      sd.id,
				Health:    round1(clamp(baseline+rng.NormFloat64()*12, 0, 100)),
				Turnover:  &turnover,
				ReturnPct: &returns,
				Assigned:  rng.Float64() < opts.AssignedFraction,
				Country:   opts.Country,
			})
		}
	}

	regions := make([]Region, 0, len(seedRegions))
	for _, d := range Divisions {
		regions = append(regions, Region{
			Division: d,
			Boundary: orb.MultiPolygon{seedRegions[d].ToPolygon()},
		})
	}

	return New(stores, dcs, regions)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round5(v float64) float64 { return math.Round(v*1e5) / 1e5 }
