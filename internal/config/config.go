// Package config loads the concord.yaml configuration shared by the CLI commands.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is looked up in the working directory when no path is given.
	DefaultFile = "concord.yaml"

	// EnvEncryptionKey overrides store.encryption_key.
	EnvEncryptionKey = "CONCORD_ENCRYPTION_KEY"
)

// CatalogConfig selects where templates come from.
type CatalogConfig struct {
	// Source is "file" (a YAML/JSON catalog) or "loam" (a directory of Markdown clause groups).
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
}

// RedisConfig configures the Redis preference store.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password,omitempty"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// StoreConfig selects the preference store and its middleware.
type StoreConfig struct {
	Driver         string      `yaml:"driver"`
	Redis          RedisConfig `yaml:"redis"`
	EncryptionKey  string      `yaml:"encryption_key,omitempty"`
	RedactMetadata []string    `yaml:"redact_metadata,omitempty"`
	// ResultsDir, when set with the memory driver, publishes results as JSON files there.
	ResultsDir string `yaml:"results_dir,omitempty"`
}

// EngineConfig tunes reconciliation.
type EngineConfig struct {
	TieBreak string `yaml:"tie_break"`
	Seed     string `yaml:"seed,omitempty"`
	Workers  int    `yaml:"workers"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config models concord.yaml.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Store   StoreConfig   `yaml:"store"`
	Engine  EngineConfig  `yaml:"engine"`
	HTTP    HTTPConfig    `yaml:"http"`
	Log     LogConfig     `yaml:"log"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{Source: "file", Path: "catalog.yaml"},
		Store: StoreConfig{
			Driver: "memory",
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "concord:"},
		},
		Engine: EngineConfig{TieBreak: "lowest-id"},
		HTTP:   HTTPConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the configuration at path. An empty path tries DefaultFile; a
// missing default file is not an error, a missing explicit file is.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv(EnvEncryptionKey); key != "" {
		c.Store.EncryptionKey = key
	}
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Catalog.Source == "" {
		c.Catalog.Source = def.Catalog.Source
	}
	if c.Store.Driver == "" {
		c.Store.Driver = def.Store.Driver
	}
	if c.Store.Redis.Addr == "" {
		c.Store.Redis.Addr = def.Store.Redis.Addr
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = def.Store.Redis.Prefix
	}
	if c.Engine.TieBreak == "" {
		c.Engine.TieBreak = def.Engine.TieBreak
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}
	c.Catalog.Source = strings.ToLower(c.Catalog.Source)
	c.Store.Driver = strings.ToLower(c.Store.Driver)
}

// Validate reports the first structural problem in the configuration.
// Strategy names are resolved by the engine, not here.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case "file", "loam":
	default:
		return fmt.Errorf("catalog.source must be file or loam, got %q", c.Catalog.Source)
	}
	switch c.Store.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("store.driver must be memory or redis, got %q", c.Store.Driver)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must not be negative")
	}
	if c.Store.Redis.TTL < 0 {
		return fmt.Errorf("store.redis.ttl must not be negative")
	}
	for _, expr := range c.Store.RedactMetadata {
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("store.redact_metadata: %w", err)
		}
	}
	return nil
}
