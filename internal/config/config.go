// Package config loads service configuration from YAML or JSON files,
// .env files and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot backends.
const (
	SnapshotBackendPostgres   = "postgres"
	SnapshotBackendClickhouse = "clickhouse"
)

// Config is the complete service configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http" json:"http"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
	Feed    FeedConfig    `yaml:"feed" json:"feed"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

type StorageConfig struct {
	UseMemory       bool   `yaml:"use_memory" json:"use_memory"`
	LoadFixtures    bool   `yaml:"load_fixtures" json:"load_fixtures"` // memory mode only
	PostgresDSN     string `yaml:"postgres_dsn" json:"postgres_dsn"`
	ClickhouseDSN   string `yaml:"clickhouse_dsn" json:"clickhouse_dsn"`
	SnapshotBackend string `yaml:"snapshot_backend" json:"snapshot_backend"` // postgres | clickhouse
	Migrate         bool   `yaml:"migrate" json:"migrate"`
}

type RedisConfig struct {
	Addr       string        `yaml:"addr" json:"addr"` // empty disables the summary cache
	Password   string        `yaml:"password" json:"password"`
	DB         int           `yaml:"db" json:"db"`
	SummaryTTL time.Duration `yaml:"summary_ttl" json:"summary_ttl"`
}

type FeedConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug | info | warn | error
	Format string `yaml:"format" json:"format"` // json | console
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			SnapshotBackend: SnapshotBackendPostgres,
		},
		Redis: RedisConfig{
			SummaryTTL: 24 * time.Hour,
		},
		Feed: FeedConfig{
			Enabled:      true,
			PollInterval: 2 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFromFile reads a config file over the defaults.
// YAML is tried first, then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	return cfg, nil
}

// Load returns the file config (or defaults when path is empty) with
// environment overrides applied. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("HTTP_ADDR", &c.HTTP.Addr)
	str("POSTGRES_DSN", &c.Storage.PostgresDSN)
	str("CLICKHOUSE_DSN", &c.Storage.ClickhouseDSN)
	str("SNAPSHOT_BACKEND", &c.Storage.SnapshotBackend)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse REDIS_DB: %w", err)
		}
		c.Redis.DB = db
	}
	if v, ok := lookup("USE_MEMORY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse USE_MEMORY: %w", err)
		}
		c.Storage.UseMemory = b
	}
	return nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if !c.Storage.UseMemory {
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required (use storage.use_memory for in-memory storage)")
		}
		switch c.Storage.SnapshotBackend {
		case SnapshotBackendPostgres:
		case SnapshotBackendClickhouse:
			if c.Storage.ClickhouseDSN == "" {
				return errors.New("storage.clickhouse_dsn is required for the clickhouse snapshot backend")
			}
		default:
			return fmt.Errorf("storage.snapshot_backend must be postgres or clickhouse, got %q", c.Storage.SnapshotBackend)
		}
	}
	if c.Storage.LoadFixtures && !c.Storage.UseMemory {
		return errors.New("storage.load_fixtures requires storage.use_memory")
	}
	if c.Redis.DB < 0 {
		return errors.New("redis.db must be >= 0")
	}
	if c.Feed.Enabled && c.Feed.PollInterval <= 0 {
		return errors.New("feed.poll_interval must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// LoadEnvFile sets variables from a .env file without overriding the
// existing environment. A missing file is not an error.
func LoadEnvFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
