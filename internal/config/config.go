// Package config resolves the service configuration from defaults, an
// optional YAML file, .env files, the environment and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the journal service.
type Config struct {
	Addr            string        `yaml:"addr"`
	DatabasePath    string        `yaml:"database_path"`
	Environment     string        `yaml:"environment"`
	LogLevel        string        `yaml:"log_level"`
	AllowOrigins    []string      `yaml:"allow_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	dbPath := "journal.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".journal", "journal.db")
	}

	return &Config{
		Addr:            ":8000",
		DatabasePath:    dbPath,
		Environment:     "production",
		LogLevel:        "info",
		AllowOrigins:    []string{"*"},
		ShutdownTimeout: 10 * time.Second,
	}
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Load builds a Config: defaults, then the YAML file at path (skipped when
// path is empty), then .env files and JOURNAL_* environment variables.
// Command-line flags are applied by the caller afterwards.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv("JOURNAL_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	LoadDotEnv()
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	if v := os.Getenv("JOURNAL_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("JOURNAL_DB"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("JOURNAL_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("JOURNAL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("JOURNAL_CORS_ORIGINS"); v != "" {
		c.AllowOrigins = splitAndTrim(v, ",")
	}
	if v := os.Getenv("JOURNAL_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JOURNAL_SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

// LoadDotEnv loads .env files with priority: .env.local > .env
// godotenv.Load does NOT overwrite already-set env vars,
// so OS env vars always win, .env.local wins over .env.
// Returns list of files actually loaded.
func LoadDotEnv() []string {
	candidates := []string{".env.local", ".env"}
	var loaded []string
	for _, f := range candidates {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
