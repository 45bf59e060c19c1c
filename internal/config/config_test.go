package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	cfg.Storage.UseMemory = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default memory config invalid: %v", err)
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := writeFile(t, "cfg.yaml", `
http:
  addr: ":9090"
storage:
  postgres_dsn: "postgres://u:p@db/analytics"
  clickhouse_dsn: "clickhouse://ch:9000/analytics"
  snapshot_backend: clickhouse
redis:
  addr: "redis:6379"
  summary_ttl: 1h
feed:
  poll_interval: 500ms
log:
  level: debug
  format: console
`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Storage.SnapshotBackend != SnapshotBackendClickhouse {
		t.Errorf("snapshot backend = %q", cfg.Storage.SnapshotBackend)
	}
	if cfg.Redis.SummaryTTL != time.Hour {
		t.Errorf("summary ttl = %v", cfg.Redis.SummaryTTL)
	}
	if cfg.Feed.PollInterval != 500*time.Millisecond {
		t.Errorf("poll interval = %v", cfg.Feed.PollInterval)
	}
	// Untouched fields keep defaults.
	if cfg.Feed.WriteTimeout != 10*time.Second {
		t.Errorf("write timeout = %v, want default", cfg.Feed.WriteTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := writeFile(t, "cfg.json", `{"http":{"addr":":7070"},"storage":{"use_memory":true,"load_fixtures":true}}`)
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.HTTP.Addr != ":7070" || !cfg.Storage.UseMemory || !cfg.Storage.LoadFixtures {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := writeFile(t, "bad.yaml", "http: [unterminated")
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"POSTGRES_DSN": "postgres://env",
		"REDIS_ADDR":   "localhost:6379",
		"REDIS_DB":     "3",
		"USE_MEMORY":   "true",
		"LOG_LEVEL":    "warn",
		"HTTP_ADDR":    "",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Storage.PostgresDSN != "postgres://env" {
		t.Errorf("postgres dsn = %q", cfg.Storage.PostgresDSN)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 3 {
		t.Errorf("redis = %+v", cfg.Redis)
	}
	if !cfg.Storage.UseMemory {
		t.Error("USE_MEMORY not applied")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("empty HTTP_ADDR should keep default, got %q", cfg.HTTP.Addr)
	}
}

func TestApplyEnv_BadValues(t *testing.T) {
	for _, env := range []map[string]string{
		{"REDIS_DB": "one"},
		{"USE_MEMORY": "maybe"},
	} {
		if err := Default().ApplyEnv(envMap(env)); err == nil {
			t.Errorf("expected error for %v", env)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing postgres", func(c *Config) {}, "postgres_dsn"},
		{"clickhouse without dsn", func(c *Config) {
			c.Storage.PostgresDSN = "pg"
			c.Storage.SnapshotBackend = SnapshotBackendClickhouse
		}, "clickhouse_dsn"},
		{"unknown backend", func(c *Config) {
			c.Storage.PostgresDSN = "pg"
			c.Storage.SnapshotBackend = "sqlite"
		}, "snapshot_backend"},
		{"fixtures without memory", func(c *Config) {
			c.Storage.PostgresDSN = "pg"
			c.Storage.LoadFixtures = true
		}, "load_fixtures"},
		{"bad level", func(c *Config) {
			c.Storage.UseMemory = true
			c.Log.Level = "trace"
		}, "log.level"},
		{"bad format", func(c *Config) {
			c.Storage.UseMemory = true
			c.Log.Format = "xml"
		}, "log.format"},
		{"zero poll", func(c *Config) {
			c.Storage.UseMemory = true
			c.Feed.PollInterval = 0
		}, "poll_interval"},
		{"empty addr", func(c *Config) {
			c.Storage.UseMemory = true
			c.HTTP.Addr = ""
		}, "http.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "# comment\nEQ_TEST_NEW=\"fresh\"\nEQ_TEST_SET=fromfile\nnot a pair\n")
	t.Setenv("EQ_TEST_SET", "existing")
	t.Setenv("EQ_TEST_NEW", "")

	LoadEnvFile(path)

	if got := os.Getenv("EQ_TEST_NEW"); got != "fresh" {
		t.Errorf("EQ_TEST_NEW = %q, want fresh", got)
	}
	if got := os.Getenv("EQ_TEST_SET"); got != "existing" {
		t.Errorf("EQ_TEST_SET = %q, want existing", got)
	}
}
