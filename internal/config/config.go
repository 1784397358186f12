// Package config loads service settings from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	TracingNone   = "none"
	TracingStdout = "stdout"
	TracingOTLP   = "otlp"
)

// Config is the full runtime configuration of both binaries.
type Config struct {
	Port      string    `yaml:"port"`
	AppName   string    `yaml:"app_name"`
	Storage   string    `yaml:"storage"`
	LogLevel  string    `yaml:"log_level"`
	Database  Database  `yaml:"database"`
	Stats     Stats     `yaml:"stats"`
	RateLimit RateLimit `yaml:"rate_limit"`
	Collector Collector `yaml:"collector"`
	Tracing   Tracing   `yaml:"tracing"`
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Name            string `yaml:"name"`
	SSLMode         string `yaml:"sslmode"`
	MaxConns        int32  `yaml:"max_conns"`
	ConnectAttempts int    `yaml:"connect_attempts"`
}

// Stats configures the client of the statistics collector.
type Stats struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RateLimit configures the per-IP token bucket on public routes.
// RPS <= 0 disables limiting.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Collector configures the statistics collector binary.
type Collector struct {
	Port   string `yaml:"port"`
	DBPath string `yaml:"db_path"`
}

// Tracing selects where spans are exported. Endpoint is the OTLP/HTTP
// host:port and is only used by the otlp exporter.
type Tracing struct {
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns local-development defaults.
func Default() Config {
	return Config{
		Port:     "8080",
		AppName:  "explore-events",
		Storage:  StoragePostgres,
		LogLevel: "info",
		Database: Database{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			Name:            "explore_events",
			SSLMode:         "disable",
			MaxConns:        20,
			ConnectAttempts: 5,
		},
		Stats: Stats{
			URL:     "http://localhost:9090",
			Timeout: 2 * time.Second,
		},
		RateLimit: RateLimit{RPS: 50, Burst: 100},
		Collector: Collector{Port: "9090", DBPath: "stats.db"},
		Tracing:   Tracing{Exporter: TracingNone, Endpoint: "localhost:4318"},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are used.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail late at runtime.
func (c Config) Validate() error {
	switch c.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("storage must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}
	if c.Stats.Timeout <= 0 {
		return fmt.Errorf("stats timeout must be positive, got %s", c.Stats.Timeout)
	}
	if c.Stats.URL == "" {
		return fmt.Errorf("stats url is required")
	}
	switch c.Tracing.Exporter {
	case TracingNone, TracingStdout, TracingOTLP:
	default:
		return fmt.Errorf("tracing exporter must be %q, %q or %q, got %q",
			TracingNone, TracingStdout, TracingOTLP, c.Tracing.Exporter)
	}
	return nil
}

// SlogLevel maps LogLevel onto slog levels, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func applyEnv(c *Config) error {
	setString(&c.Port, "PORT")
	setString(&c.AppName, "APP_NAME")
	setString(&c.Storage, "STORAGE")
	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")

	setString(&c.Stats.URL, "STATS_URL")
	if v := os.Getenv("STATS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STATS_TIMEOUT: %w", err)
		}
		c.Stats.Timeout = d
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		c.RateLimit.RPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_BURST: %w", err)
		}
		c.RateLimit.Burst = n
	}

	setString(&c.Collector.Port, "COLLECTOR_PORT")
	setString(&c.Collector.DBPath, "STATS_DB_PATH")

	setString(&c.Tracing.Exporter, "TRACING_EXPORTER")
	setString(&c.Tracing.Endpoint, "OTLP_ENDPOINT")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
