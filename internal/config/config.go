// Package config loads semcache settings from defaults, an optional YAML
// file and SEMCACHE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWikiPath = "~/wiki"
	DefaultHTTPAddr = "127.0.0.1:8089"

	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Config is the complete runtime configuration
type Config struct {
	Wiki  WikiConfig  `yaml:"wiki"`
	Cache CacheConfig `yaml:"cache"`
	HTTP  HTTPConfig  `yaml:"http"`
	Log   LogConfig   `yaml:"log"`

	// Editor opens pages from the TUI; empty falls back to $EDITOR
	Editor   string         `yaml:"editor"`
	Obsidian ObsidianConfig `yaml:"obsidian"`

	// LoadedFrom lists the sources applied, lowest priority first
	LoadedFrom []string `yaml:"-"`
}

// WikiConfig locates the page directory and its index
type WikiConfig struct {
	Path   string `yaml:"path" validate:"required"`
	DBPath string `yaml:"db"`
}

// CacheConfig configures the query result cache and its durable store
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Backend        string        `yaml:"backend" validate:"oneof=memory badger"`
	BadgerPath     string        `yaml:"badger_path" validate:"required_if=Backend badger"`
	MaxItems       int           `yaml:"max_items" validate:"min=1"`
	NonEmbeddedTTL time.Duration `yaml:"non_embedded_ttl" validate:"gte=0"`
	Modifier       string        `yaml:"modifier"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

// BreakerConfig tunes the circuit breaker guarding the durable store
type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests" validate:"min=1"`
	Interval         time.Duration `yaml:"interval" validate:"gte=0"`
	Timeout          time.Duration `yaml:"timeout" validate:"gt=0"`
	FailureThreshold float64       `yaml:"failure_threshold" validate:"gt=0,lte=1"`
	MinRequests      uint32        `yaml:"min_requests" validate:"min=1"`
}

// HTTPConfig configures `semcache serve`
type HTTPConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// ObsidianConfig lets the TUI show pages in Obsidian when the wiki is a
// vault
type ObsidianConfig struct {
	Enabled bool   `yaml:"enabled"`
	Vault   string `yaml:"vault"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Wiki: WikiConfig{Path: DefaultWikiPath},
		Cache: CacheConfig{
			Enabled:        true,
			Backend:        BackendMemory,
			MaxItems:       10000,
			NonEmbeddedTTL: 10 * time.Minute,
			Breaker: BreakerConfig{
				MaxRequests:      3,
				Interval:         30 * time.Second,
				Timeout:          15 * time.Second,
				FailureThreshold: 0.6,
				MinRequests:      5,
			},
		},
		HTTP: HTTPConfig{Addr: DefaultHTTPAddr},
		Log:  LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// SEMCACHE_CONFIG is consulted, and no file is read if both are empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.LoadedFrom = []string{"defaults"}

	if path == "" {
		path = os.Getenv("SEMCACHE_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		cfg.LoadedFrom = append(cfg.LoadedFrom, path)
	}

	if err := cfg.loadEnvironmentVariables(); err != nil {
		return nil, err
	}
	cfg.LoadedFrom = append(cfg.LoadedFrom, "environment")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// loadEnvironmentVariables overlays SEMCACHE_* variables
func (c *Config) loadEnvironmentVariables() error {
	var errs []error

	if val := os.Getenv("SEMCACHE_WIKI"); val != "" {
		c.Wiki.Path = val
	}
	if val := os.Getenv("SEMCACHE_DB"); val != "" {
		c.Wiki.DBPath = val
	}
	if val := os.Getenv("SEMCACHE_CACHE_ENABLED"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("SEMCACHE_CACHE_ENABLED: %w", err))
		}
		c.Cache.Enabled = b
	}
	if val := os.Getenv("SEMCACHE_CACHE_BACKEND"); val != "" {
		c.Cache.Backend = strings.ToLower(val)
	}
	if val := os.Getenv("SEMCACHE_BADGER_PATH"); val != "" {
		c.Cache.BadgerPath = val
	}
	if val := os.Getenv("SEMCACHE_NON_EMBEDDED_TTL"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("SEMCACHE_NON_EMBEDDED_TTL: %w", err))
		}
		c.Cache.NonEmbeddedTTL = d
	}
	if val, ok := os.LookupEnv("SEMCACHE_CACHE_MODIFIER"); ok {
		c.Cache.Modifier = val
	}
	if val := os.Getenv("SEMCACHE_HTTP_ADDR"); val != "" {
		c.HTTP.Addr = val
	}
	if val := os.Getenv("SEMCACHE_EDITOR"); val != "" {
		c.Editor = val
	}
	if val := os.Getenv("SEMCACHE_OBSIDIAN_VAULT"); val != "" {
		c.Obsidian.Enabled = true
		c.Obsidian.Vault = val
	}
	if val := os.Getenv("SEMCACHE_LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("SEMCACHE_LOG_FILE"); val != "" {
		c.Log.File = val
	}

	return errors.Join(errs...)
}

var validate = validator.New()

// Validate checks the configuration
func (c *Config) Validate() error {
	return validate.Struct(c)
}
