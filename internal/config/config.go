package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	// TMDB API configuration
	TMDB TMDBConfig `yaml:"tmdb"`

	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Sync configuration
	Sync SyncConfig `yaml:"sync"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// TMDBConfig holds upstream API settings.
type TMDBConfig struct {
	AccessToken    string        `yaml:"access_token"`
	BaseURL        string        `yaml:"base_url"`
	ExportBaseURL  string        `yaml:"export_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Request budget shared by all concurrent fetches.
	RequestsPerWindow int           `yaml:"requests_per_window"`
	Window            time.Duration `yaml:"window"`

	MaxRetries int `yaml:"max_retries"`
}

// DatabaseConfig selects and configures the local store.
type DatabaseConfig struct {
	Type     string `yaml:"type"` // "sqlite" or "postgres"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Path     string `yaml:"path"` // sqlite file path
}

// SyncConfig holds defaults for sync operations.
type SyncConfig struct {
	BatchSize int    `yaml:"batch_size"`
	Days      int    `yaml:"days"`
	Language  string `yaml:"language"`
}

// LoggingConfig controls the root logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		TMDB: TMDBConfig{
			BaseURL:           "https://api.themoviedb.org/3/",
			ExportBaseURL:     "http://files.tmdb.org/p/exports/",
			RequestTimeout:    10 * time.Second,
			RequestsPerWindow: 45,
			Window:            time.Second,
			MaxRetries:        5,
		},
		Database: DatabaseConfig{
			Type:     "sqlite",
			Host:     "localhost",
			Port:     5432,
			Username: "filmatlas",
			Database: "filmatlas",
			Path:     "./data/filmatlas.db",
		},
		Sync: SyncConfig{
			BatchSize: 100,
			Days:      1,
			Language:  "en-US",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file and applies
// environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TMDB_ACCESS_TOKEN"); v != "" {
		c.TMDB.AccessToken = v
	}
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		c.Database.Type = v
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		c.Database.Username = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		c.Database.Database = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("FILMATLAS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for values that would make a sync
// run fail at the first request.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.TMDB.RequestsPerWindow <= 0 {
		return fmt.Errorf("requests_per_window must be positive, got %d", c.TMDB.RequestsPerWindow)
	}
	if c.TMDB.Window <= 0 {
		return fmt.Errorf("window must be positive, got %s", c.TMDB.Window)
	}
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.Sync.BatchSize)
	}
	return nil
}
