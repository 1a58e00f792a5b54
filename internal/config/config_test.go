package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"CONFIG_FILE", "PORT", "BULK_CONCURRENCY", "SCHEDULER_SPEC", "REDIS_VISITOR_TTL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Articles.BulkConcurrency != 4 {
		t.Errorf("Expected bulk concurrency 4, got %d", cfg.Articles.BulkConcurrency)
	}
	if cfg.Scheduler.Spec != "@every 1m" {
		t.Errorf("Expected default scheduler spec, got %q", cfg.Scheduler.Spec)
	}
	if cfg.Redis.VisitorTTL != 48*time.Hour {
		t.Errorf("Expected 48h visitor TTL, got %s", cfg.Redis.VisitorTTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")
	t.Setenv("BULK_CONCURRENCY", "8")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Expected db.internal, got %s", cfg.Database.Host)
	}
	if cfg.Database.MaxOpenConns != 50 {
		t.Errorf("Expected 50 max open conns, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Expected 5s read timeout, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Articles.BulkConcurrency != 8 {
		t.Errorf("Expected bulk concurrency 8, got %d", cfg.Articles.BulkConcurrency)
	}
	if cfg.Scheduler.Enabled {
		t.Error("Scheduler should be disabled")
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if diff := cmp.Diff(want, cfg.Server.CORSOrigins); diff != "" {
		t.Errorf("CORS origins mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "db:\n  name: from_file\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Name != "from_file" {
		t.Errorf("Expected db name from file, got %s", cfg.Database.Name)
	}
	// Environment wins over the file
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected log level warn, got %s", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing host", func(c *Config) { c.Database.Host = "" }, true},
		{"missing name", func(c *Config) { c.Database.Name = "" }, true},
		{"zero bulk concurrency", func(c *Config) { c.Articles.BulkConcurrency = 0 }, true},
		{"enabled scheduler without spec", func(c *Config) { c.Scheduler.Spec = "" }, true},
		{"disabled scheduler without spec", func(c *Config) {
			c.Scheduler.Enabled = false
			c.Scheduler.Spec = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Database:  DatabaseConfig{Host: "localhost", Name: "crm"},
				Articles:  ArticlesConfig{BulkConcurrency: 1},
				Scheduler: SchedulerConfig{Enabled: true, Spec: "@every 1m"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"PORT":              "port",
		"DB_HOST":           "db.host",
		"DB_MAX_OPEN_CONNS": "db.max_open_conns",
		"REDIS_VISITOR_TTL": "redis.visitor_ttl",
		"HOME":              "",
		"GOPATH":            "",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
