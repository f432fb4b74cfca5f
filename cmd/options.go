package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/storemap/internal/cache"
	"github.com/sells-group/storemap/internal/camera"
	"github.com/sells-group/storemap/internal/config"
	"github.com/sells-group/storemap/internal/geodata"
	"github.com/sells-group/storemap/internal/interact"
	"github.com/sells-group/storemap/internal/livemap"
	"github.com/sells-group/storemap/internal/view"
)

func datasetOptions(c *config.Config) geodata.Options {
	return geodata.Options{
		Driver:      c.Dataset.Driver,
		StoresPath:  c.Dataset.StoresPath,
		DCsPath:     c.Dataset.DCsPath,
		RegionsPath: c.Dataset.RegionsPath,
		CatalogPath: c.Dataset.CatalogPath,
		Country:     c.Dataset.Country,
		DatabaseURL: c.Store.DatabaseURL,
		Schema:      c.Store.Schema,
		MaxConns:    c.Store.MaxConns,
		SQLitePath:  c.Store.SQLitePath,
		LoadRetries: c.Store.LoadRetries,
	}
}

func cameraOptions(c *config.Config) camera.Options {
	return camera.Options{
		DrillZoom:        c.Camera.DrillZoom,
		DrillPitch:       c.Camera.DrillPitch,
		DrillBearing:     c.Camera.DrillBearing,
		RegionMaxZoom:    c.Camera.RegionMaxZoom,
		RegionPitch:      c.Camera.RegionPitch,
		Padding:          c.Camera.Padding,
		DurationMillis:   c.Camera.DurationMillis,
		FitVisibleStores: c.Camera.FitVisibleStores,
	}
}

// defaultPeriod falls back to MTD when the configured code is unknown.
func defaultPeriod(c *config.Config) interact.Period {
	p, err := interact.ParsePeriod(c.Session.DefaultPeriod)
	if err != nil {
		zap.L().Warn("unknown session.default_period, using default",
			zap.String("period", c.Session.DefaultPeriod),
			zap.String("default", string(interact.DefaultPeriod)),
		)
		return interact.DefaultPeriod
	}
	return p
}

func liveSettings(c *config.Config) livemap.Settings {
	return livemap.Settings{
		AccessToken: c.Map.AccessToken,
		StyleURL:    c.Map.StyleURL,
		Session: view.Options{
			StoreZoomThreshold: c.LOD.StoreZoomThreshold,
			InitialZoom:        c.Map.InitialZoom,
			Camera:             cameraOptions(c),
			Period:             defaultPeriod(c),
			QueueSize:          c.Session.QueueSize,
		},
		EventsPerSecond: c.Session.EventsPerSecond,
		EventBurst:      c.Session.EventBurst,
		AllowedOrigins:  c.Server.AllowedOrigins,
	}
}

func cacheOptions(c *config.Config) cache.Options {
	return cache.Options{
		Driver:     c.Cache.Driver,
		MaxEntries: c.Cache.MaxEntries,
		TTL:        time.Duration(c.Cache.TTLSecs) * time.Second,
		RedisAddr:  c.Cache.RedisAddr,
		RedisDB:    c.Cache.RedisDB,
		KeyPrefix:  c.Cache.KeyPrefix,
	}
}

// openCache opens the configured view cache. An unreachable Redis
// degrades to the in-memory cache rather than failing startup.
func openCache(ctx context.Context, c *config.Config) cache.Store {
	opts := cacheOptions(c)
	store, err := cache.Open(ctx, opts)
	if err == nil {
		return store
	}
	zap.L().Warn("view cache unavailable, falling back to memory",
		zap.String("driver", opts.Driver),
		zap.Error(err),
	)
	return cache.NewMemory(opts.MaxEntries, opts.TTL)
}
