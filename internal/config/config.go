package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Map     MapConfig     `yaml:"map" mapstructure:"map"`
	LOD     LODConfig     `yaml:"lod" mapstructure:"lod"`
	Camera  CameraConfig  `yaml:"camera" mapstructure:"camera"`
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// DatasetConfig selects where the static store dataset is read from.
type DatasetConfig struct {
	// Driver is one of "geojson", "postgres" or "sqlite".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	StoresPath  string `yaml:"stores_path" mapstructure:"stores_path"`
	DCsPath     string `yaml:"dcs_path" mapstructure:"dcs_path"`
	RegionsPath string `yaml:"regions_path" mapstructure:"regions_path"`
	CatalogPath string `yaml:"catalog_path" mapstructure:"catalog_path"`
	// Country scopes the dataset; stores from other countries are dropped at load.
	Country string `yaml:"country" mapstructure:"country"`
}

// StoreConfig configures the database backend for the postgres and sqlite drivers.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Schema      string `yaml:"schema" mapstructure:"schema"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	LoadRetries int    `yaml:"load_retries" mapstructure:"load_retries"`
}

// MapConfig holds browser map engine settings.
type MapConfig struct {
	AccessToken string `yaml:"access_token" mapstructure:"access_token"`
	StyleURL    string `yaml:"style_url" mapstructure:"style_url"`
	// InitialZoom is the zoom sessions start at, before any camera move.
	InitialZoom float64 `yaml:"initial_zoom" mapstructure:"initial_zoom"`
}

// LODConfig configures level-of-detail switching.
type LODConfig struct {
	StoreZoomThreshold float64 `yaml:"store_zoom_threshold" mapstructure:"store_zoom_threshold"`
}

// CameraConfig configures the camera framing presets.
type CameraConfig struct {
	DrillZoom        float64 `yaml:"drill_zoom" mapstructure:"drill_zoom"`
	DrillPitch       float64 `yaml:"drill_pitch" mapstructure:"drill_pitch"`
	DrillBearing     float64 `yaml:"drill_bearing" mapstructure:"drill_bearing"`
	RegionMaxZoom    float64 `yaml:"region_max_zoom" mapstructure:"region_max_zoom"`
	RegionPitch      float64 `yaml:"region_pitch" mapstructure:"region_pitch"`
	Padding          int     `yaml:"padding" mapstructure:"padding"`
	DurationMillis   int     `yaml:"duration_ms" mapstructure:"duration_ms"`
	FitVisibleStores bool    `yaml:"fit_visible_stores" mapstructure:"fit_visible_stores"`
}

// SessionConfig configures live map sessions.
type SessionConfig struct {
	EventsPerSecond float64 `yaml:"events_per_second" mapstructure:"events_per_second"`
	EventBurst      int     `yaml:"event_burst" mapstructure:"event_burst"`
	QueueSize       int     `yaml:"queue_size" mapstructure:"queue_size"`
	DefaultPeriod   string  `yaml:"default_period" mapstructure:"default_period"`
}

// CacheConfig configures the derived view response cache.
type CacheConfig struct {
	// Driver is one of "memory", "redis" or "none".
	Driver     string `yaml:"driver" mapstructure:"driver"`
	MaxEntries int    `yaml:"max_entries" mapstructure:"max_entries"`
	TTLSecs    int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	RedisAddr  string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisDB    int    `yaml:"redis_db" mapstructure:"redis_db"`
	KeyPrefix  string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STOREMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("dataset.driver", "geojson")
	v.SetDefault("dataset.stores_path", "data/stores.geojson")
	v.SetDefault("dataset.dcs_path", "data/dcs.geojson")
	v.SetDefault("dataset.regions_path", "data/regions.geojson")
	v.SetDefault("dataset.catalog_path", "")
	v.SetDefault("dataset.country", "US")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.schema", "storemap")
	v.SetDefault("store.sqlite_path", "storemap.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.load_retries", 5)
	v.SetDefault("map.access_token", "")
	v.SetDefault("map.style_url", "mapbox://styles/mapbox/light-v11")
	v.SetDefault("map.initial_zoom", 3.5)
	v.SetDefault("lod.store_zoom_threshold", 7.0)
	v.SetDefault("camera.drill_zoom", 9.5)
	v.SetDefault("camera.drill_pitch", 55.0)
	v.SetDefault("camera.drill_bearing", -17.6)
	v.SetDefault("camera.region_max_zoom", 6.0)
	v.SetDefault("camera.region_pitch", 30.0)
	v.SetDefault("camera.padding", 48)
	v.SetDefault("camera.duration_ms", 1200)
	v.SetDefault("camera.fit_visible_stores", false)
	v.SetDefault("session.events_per_second", 60.0)
	v.SetDefault("session.event_burst", 120)
	v.SetDefault("session.queue_size", 256)
	v.SetDefault("session.default_period", "MTD")
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.max_entries", 512)
	v.SetDefault("cache.ttl_secs", 600)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.key_prefix", "storemap:view:")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate reports configuration errors that leave nothing to serve. A
// missing map access token is not one of them: the map renders empty and
// the filter controls keep working.
func (c *Config) Validate() error {
	switch c.Dataset.Driver {
	case "geojson":
		if c.Dataset.StoresPath == "" {
			return eris.New("config: dataset.stores_path is required for the geojson driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required for the postgres driver")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return eris.New("config: store.sqlite_path is required for the sqlite driver")
		}
	default:
		return eris.Errorf("config: unknown dataset driver %q", c.Dataset.Driver)
	}

	switch c.Cache.Driver {
	case "memory", "redis", "none":
	default:
		return eris.Errorf("config: unknown cache driver %q", c.Cache.Driver)
	}

	if c.Server.Port <= 0 {
		return eris.New("config: server.port must be > 0")
	}

	if c.LOD.StoreZoomThreshold < 0 || c.LOD.StoreZoomThreshold > 24 {
		return eris.Errorf("config: lod.store_zoom_threshold %.2f out of range [0,24]", c.LOD.StoreZoomThreshold)
	}

	if c.Map.AccessToken == "" {
		zap.L().Warn("config: map.access_token is empty, map tiles will not load")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
