package geodata

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/storemap/internal/db"
	"github.com/sells-group/storemap/internal/resilience"
)

// Options selects and locates the dataset source.
type Options struct {
	Driver      string
	StoresPath  string
	DCsPath     string
	RegionsPath string
	CatalogPath string
	Country     string

	DatabaseURL string
	Schema      string
	MaxConns    int32
	SQLitePath  string
	LoadRetries int
}

// Load reads the dataset once from the configured source.
func Load(ctx context.Context, opts Options) (*Dataset, error) {
	var (
		ds  *Dataset
		err error
	)
	switch opts.Driver {
	case "", "geojson":
		ds, err = LoadFiles(ctx, opts)
	case "postgres":
		ds, err = loadPostgres(ctx, opts)
	case "sqlite":
		ds, err = loadSQLite(ctx, opts)
	default:
		return nil, eris.Errorf("geodata: unknown driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}

	sum := ds.Summary()
	zap.L().Info("geodata: dataset loaded",
		zap.String("driver", opts.Driver),
		zap.Int("stores", sum.Stores),
		zap.Int("dcs", sum.DCs),
		zap.Int("regions", sum.Regions),
		zap.String("fingerprint", sum.Fingerprint),
	)
	return ds, nil
}

// LoadFiles reads stores, DCs and regions from GeoJSON (regions may also be
// a shapefile) concurrently, then applies the optional DC catalog.
func LoadFiles(ctx context.Context, opts Options) (*Dataset, error) {
	var (
		stores  []Store
		dcs     []DistributionCenter
		regions []Region
		catalog *Catalog
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		fc, err := ReadFeatureCollection(opts.StoresPath)
		if err != nil {
			return err
		}
		stores = StoresFromFeatures(fc, opts.Country)
		return nil
	})
	if opts.DCsPath != "" {
		g.Go(func() error {
			fc, err := ReadFeatureCollection(opts.DCsPath)
			if err != nil {
				return err
			}
			dcs = DCsFromFeatures(fc)
			return nil
		})
	}
	if opts.RegionsPath != "" {
		g.Go(func() error {
			if strings.EqualFold(filepath.Ext(opts.RegionsPath), ".shp") {
				var err error
				regions, err = ReadRegionShapefile(opts.RegionsPath)
				return err
			}
			fc, err := ReadFeatureCollection(opts.RegionsPath)
			if err != nil {
				return err
			}
			regions = RegionsFromFeatures(fc)
			return nil
		})
	}
	if opts.CatalogPath != "" {
		g.Go(func() error {
			var err error
			catalog, err = ReadCatalog(opts.CatalogPath)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(stores, catalog.Apply(dcs), regions), nil
}

func loadPostgres(ctx context.Context, opts Options) (*Dataset, error) {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = opts.LoadRetries
	retry.OnRetry = resilience.RetryLogger("geodata: load postgres")

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (*Dataset, error) {
		pool, err := db.Open(ctx, opts.DatabaseURL, opts.MaxConns)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		return NewPostgresSource(pool, opts.Schema).Load(ctx, opts.Country)
	})
}

func loadSQLite(ctx context.Context, opts Options) (*Dataset, error) {
	src, err := OpenSQLite(opts.SQLitePath)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.Load(ctx, opts.Country)
}
