// Package config loads dexcheck settings from an optional YAML file overlaid
// by environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/dshills/dexcheck/internal/profile"
)

// DefaultPath is read when no path is given and DEXCHECK_CONFIG is unset.
const DefaultPath = "./dexcheck.yaml"

// Config is the root configuration.
type Config struct {
	Profile string      `yaml:"profile" env:"DEXCHECK_PROFILE" env-default:"bulbapedia"`
	Data    DataConfig  `yaml:"data"`
	Cache   CacheConfig `yaml:"cache"`
	Batch   BatchConfig `yaml:"batch"`
	Log     LogConfig   `yaml:"log"`
}

// DataConfig locates the entity dataset and per-wiki state.
type DataConfig struct {
	Dex string `yaml:"dex" env:"DEXCHECK_DEX_PATH" env-default:"./data/dex.yaml"`
	Dir string `yaml:"dir" env:"DEXCHECK_DATA_DIR" env-default:"./data"`
}

// CacheConfig holds article cache and API client settings. Empty or zero
// values fall back to the profile.
type CacheConfig struct {
	APIURL          string        `yaml:"api_url"          env:"DEXCHECK_API_URL"`
	Path            string        `yaml:"path"             env:"DEXCHECK_CACHE_PATH"`
	RequestInterval time.Duration `yaml:"request_interval" env:"DEXCHECK_REQUEST_INTERVAL" env-default:"0s"`
	MaxRetries      int           `yaml:"max_retries"      env:"DEXCHECK_MAX_RETRIES"      env-default:"3"`
	Timeout         time.Duration `yaml:"timeout"          env:"DEXCHECK_HTTP_TIMEOUT"     env-default:"30s"`
	SyncAge         time.Duration `yaml:"sync_age"         env:"DEXCHECK_SYNC_AGE"         env-default:"1h"`
	Offline         bool          `yaml:"offline"          env:"DEXCHECK_OFFLINE"          env-default:"false"`
}

// BatchConfig holds the runner's prefetch thresholds.
type BatchConfig struct {
	MaxArticles int `yaml:"max_articles" env:"DEXCHECK_BATCH_ARTICLES" env-default:"20"`
	MaxChecks   int `yaml:"max_checks"   env:"DEXCHECK_BATCH_CHECKS"   env-default:"50"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

// Load reads configuration from path, or from DEXCHECK_CONFIG, or from
// DefaultPath if that file exists. Environment variables override the file;
// env-default tags fill the rest. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = os.Getenv("DEXCHECK_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks values the loader cannot.
func (c *Config) Validate() error {
	if _, err := profile.Load(c.Profile); err != nil {
		return err
	}
	if c.Batch.MaxArticles <= 0 {
		return fmt.Errorf("batch.max_articles must be > 0 (got %d)", c.Batch.MaxArticles)
	}
	if c.Batch.MaxChecks <= 0 {
		return fmt.Errorf("batch.max_checks must be > 0 (got %d)", c.Batch.MaxChecks)
	}
	if c.Cache.MaxRetries < 0 {
		return fmt.Errorf("cache.max_retries must be >= 0 (got %d)", c.Cache.MaxRetries)
	}
	if c.Cache.RequestInterval < 0 || c.Cache.Timeout < 0 || c.Cache.SyncAge < 0 {
		return errors.New("cache durations must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json (got %q)", c.Log.Format)
	}
	return nil
}

// APIURL returns the configured API endpoint, or the profile's.
func (c *Config) APIURL(p profile.Profile) string {
	if c.Cache.APIURL != "" {
		return c.Cache.APIURL
	}
	return p.APIURL
}

// RequestInterval returns the configured request interval, or the profile's.
func (c *Config) RequestInterval(p profile.Profile) time.Duration {
	if c.Cache.RequestInterval > 0 {
		return c.Cache.RequestInterval
	}
	return p.RequestInterval
}

// CachePath returns the configured cache file, or one under the data
// directory named after the profile.
func (c *Config) CachePath(p profile.Profile) string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(c.Data.Dir, p.Name, "cache.db")
}
