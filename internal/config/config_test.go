package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/dexcheck/internal/profile"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dexcheck.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

// inTempDir runs the test from an empty directory so DefaultPath is absent.
func inTempDir(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("DEXCHECK_CONFIG", "")
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Profile != "bulbapedia" {
		t.Errorf("Profile = %q, want %q", cfg.Profile, "bulbapedia")
	}
	if cfg.Data.Dex != "./data/dex.yaml" {
		t.Errorf("Data.Dex = %q, want %q", cfg.Data.Dex, "./data/dex.yaml")
	}
	if cfg.Batch.MaxArticles != 20 || cfg.Batch.MaxChecks != 50 {
		t.Errorf("Batch = %+v, want 20/50", cfg.Batch)
	}
	if cfg.Cache.MaxRetries != 3 || cfg.Cache.Timeout != 30*time.Second || cfg.Cache.SyncAge != time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	inTempDir(t)
	path := writeYAML(t, `
profile: powiki
data:
  dir: /var/lib/dexcheck
cache:
  request_interval: 2s
  offline: true
batch:
  max_articles: 5
log:
  format: json
`)
	t.Setenv("DEXCHECK_BATCH_CHECKS", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Profile != "powiki" {
		t.Errorf("Profile = %q, want %q", cfg.Profile, "powiki")
	}
	if cfg.Batch.MaxArticles != 5 || cfg.Batch.MaxChecks != 7 {
		t.Errorf("Batch = %+v, want 5/7", cfg.Batch)
	}
	if !cfg.Cache.Offline || cfg.Cache.RequestInterval != 2*time.Second {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}

	p, _ := profile.Load("powiki")
	if got, want := cfg.CachePath(p), filepath.Join("/var/lib/dexcheck", "powiki", "cache.db"); got != want {
		t.Errorf("CachePath() = %q, want %q", got, want)
	}
	if got := cfg.RequestInterval(p); got != 2*time.Second {
		t.Errorf("RequestInterval() = %v, want 2s", got)
	}
	if got := cfg.APIURL(p); got != p.APIURL {
		t.Errorf("APIURL() = %q, want %q", got, p.APIURL)
	}
}

func TestLoad_ConfigEnvPath(t *testing.T) {
	inTempDir(t)
	t.Setenv("DEXCHECK_CONFIG", writeYAML(t, "profile: pokemoncentral\n"))

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Profile != "pokemoncentral" {
		t.Errorf("Profile = %q, want %q", cfg.Profile, "pokemoncentral")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	inTempDir(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() of a missing explicit file succeeded")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Profile: "bulbapedia",
			Batch:   BatchConfig{MaxArticles: 20, MaxChecks: 50},
			Cache:   CacheConfig{MaxRetries: 3},
			Log:     LogConfig{Level: "info", Format: "console"},
		}
	}
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"unknown profile", func(c *Config) { c.Profile = "serebii" }, false},
		{"zero articles", func(c *Config) { c.Batch.MaxArticles = 0 }, false},
		{"negative checks", func(c *Config) { c.Batch.MaxChecks = -1 }, false},
		{"negative retries", func(c *Config) { c.Cache.MaxRetries = -1 }, false},
		{"negative timeout", func(c *Config) { c.Cache.Timeout = -time.Second }, false},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}

	cfg := valid()
	cfg.Profile = "serebii"
	if err := cfg.Validate(); !errors.Is(err, profile.ErrUnknownProfile) {
		t.Errorf("Validate() = %v, want ErrUnknownProfile", err)
	}
}

func TestOverrides(t *testing.T) {
	p, _ := profile.Load("bulbapedia")
	cfg := Config{Cache: CacheConfig{APIURL: "http://localhost/api.php", Path: "/tmp/c.db", RequestInterval: time.Second}}
	if got := cfg.APIURL(p); got != "http://localhost/api.php" {
		t.Errorf("APIURL() = %q", got)
	}
	if got := cfg.CachePath(p); got != "/tmp/c.db" {
		t.Errorf("CachePath() = %q", got)
	}
	if got := cfg.RequestInterval(p); got != time.Second {
		t.Errorf("RequestInterval() = %v", got)
	}
	if got := (&Config{}).RequestInterval(p); got != p.RequestInterval {
		t.Errorf("default RequestInterval() = %v, want %v", got, p.RequestInterval)
	}
}
