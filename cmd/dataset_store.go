package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/storemap/internal/config"
	"github.com/sells-group/storemap/internal/db"
	"github.com/sells-group/storemap/internal/geodata"
)

// datasetStore is a database the dataset can be migrated into and imported to.
type datasetStore interface {
	Migrate(ctx context.Context) error
	Import(ctx context.Context, ds *geodata.Dataset) (geodata.ImportCounts, error)
}

// openDatasetStore opens the postgres or sqlite store. The returned func
// releases it.
func openDatasetStore(ctx context.Context, c *config.Config, driver string) (datasetStore, func(), error) {
	switch driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return nil, nil, eris.New("store.database_url is required for postgres")
		}
		pool, err := db.Open(ctx, c.Store.DatabaseURL, c.Store.MaxConns)
		if err != nil {
			return nil, nil, err
		}
		return geodata.NewPostgresSource(pool, c.Store.Schema), pool.Close, nil
	case "sqlite":
		src, err := geodata.OpenSQLite(c.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil //nolint:errcheck
	default:
		return nil, nil, eris.Errorf("unknown dataset store %q (want postgres or sqlite)", driver)
	}
}

// storeDriver picks the import/migrate target: the flag, else the configured
// dataset driver when it is a database, else sqlite.
func storeDriver(flag string, c *config.Config) string {
	if flag != "" {
		return flag
	}
	if c.Dataset.Driver == "postgres" || c.Dataset.Driver == "sqlite" {
		return c.Dataset.Driver
	}
	return "sqlite"
}
