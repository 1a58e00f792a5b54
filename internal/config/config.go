package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration (visitor deduplication)
	Redis RedisConfig

	// Article operations configuration
	Articles ArticlesConfig

	// Scheduled publishing configuration
	Scheduler SchedulerConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	MigrationsPath string
}

// RedisConfig holds Redis connection settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	VisitorTTL time.Duration
}

// ArticlesConfig holds article service settings
type ArticlesConfig struct {
	BulkConcurrency int
}

// SchedulerConfig holds scheduled publishing settings
type SchedulerConfig struct {
	Enabled   bool
	Spec      string
	BatchSize int
	Workers   int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from an optional .env file, an optional YAML file
// named by CONFIG_FILE, and environment variables, in increasing precedence.
// DB_MAX_OPEN_CONNS is read as the key "db.max_open_conns".
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getString(k, "port", "8080"),
			ReadTimeout:     getDuration(k, "server.read_timeout", 30*time.Second),
			WriteTimeout:    getDuration(k, "server.write_timeout", 60*time.Second),
			ShutdownTimeout: getDuration(k, "server.shutdown_timeout", 30*time.Second),
			CORSOrigins:     getList(k, "cors.origins", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:           getString(k, "db.host", "localhost"),
			Port:           getString(k, "db.port", "5432"),
			User:           getString(k, "db.user", "postgres"),
			Password:       getString(k, "db.password", "postgres"),
			Name:           getString(k, "db.name", "crm_content"),
			SSLMode:        getString(k, "db.sslmode", "disable"),
			MaxOpenConns:   getInt(k, "db.max_open_conns", 25),
			MaxIdleConns:   getInt(k, "db.max_idle_conns", 5),
			MaxLifetime:    getDuration(k, "db.max_lifetime", 5*time.Minute),
			MigrationsPath: getString(k, "migrations.path", "./migrations"),
		},
		Redis: RedisConfig{
			Addr:       getString(k, "redis.addr", ""),
			Password:   getString(k, "redis.password", ""),
			DB:         getInt(k, "redis.db", 0),
			VisitorTTL: getDuration(k, "redis.visitor_ttl", 48*time.Hour),
		},
		Articles: ArticlesConfig{
			BulkConcurrency: getInt(k, "bulk.concurrency", 4),
		},
		Scheduler: SchedulerConfig{
			Enabled:   getBool(k, "scheduler.enabled", true),
			Spec:      getString(k, "scheduler.spec", "@every 1m"),
			BatchSize: getInt(k, "scheduler.batch_size", 100),
			Workers:   getInt(k, "scheduler.workers", 4),
		},
		Log: LogConfig{
			Level:  getString(k, "log.level", "info"),
			Format: getString(k, "log.format", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Articles.BulkConcurrency < 1 {
		return fmt.Errorf("BULK_CONCURRENCY must be at least 1")
	}
	if c.Scheduler.Enabled && c.Scheduler.Spec == "" {
		return fmt.Errorf("SCHEDULER_SPEC is required when the scheduler is enabled")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// envSections are the top-level keys read from the environment
var envSections = map[string]bool{
	"port": true, "server": true, "db": true, "migrations": true, "redis": true,
	"bulk": true, "scheduler": true, "log": true, "cors": true,
}

// envKey maps SECTION_SOME_KEY to section.some_key; unrelated variables are skipped
func envKey(s string) string {
	key := strings.Replace(strings.ToLower(s), "_", ".", 1)
	section, _, _ := strings.Cut(key, ".")
	if !envSections[section] {
		return ""
	}
	return key
}

// Helper functions for typed lookups with defaults

func getString(k *koanf.Koanf, key, defaultValue string) string {
	if value := k.String(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(k *koanf.Koanf, key string, defaultValue int) int {
	if k.String(key) == "" {
		return defaultValue
	}
	return k.Int(key)
}

func getBool(k *koanf.Koanf, key string, defaultValue bool) bool {
	if k.String(key) == "" {
		return defaultValue
	}
	return k.Bool(key)
}

func getDuration(k *koanf.Koanf, key string, defaultValue time.Duration) time.Duration {
	if value := k.Duration(key); value > 0 {
		return value
	}
	return defaultValue
}

func getList(k *koanf.Koanf, key string, defaultValue []string) []string {
	var values []string
	switch v := k.Get(key).(type) {
	case nil:
		return defaultValue
	case string:
		values = []string{v}
	default:
		values = k.Strings(key)
	}
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
