package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Lookup strategies for resolving a songplay's song and artist.
const (
	LookupDirect  = "direct"
	LookupPreload = "preload"
)

// Config holds all pipeline configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Source directories
	Paths PathsConfig

	// Loader behaviour
	Loader LoaderConfig

	// Logging configuration
	Logging LoggingConfig

	// Metrics export
	Metrics MetricsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string // Full PostgreSQL URL, takes precedence over the parts below
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// PathsConfig holds the roots scanned for source files.
type PathsConfig struct {
	SongDir string
	LogDir  string
}

// LoaderConfig controls how files are loaded.
type LoaderConfig struct {
	Lookup       string // direct, preload
	CreateSchema bool
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// MetricsConfig holds the optional node-exporter textfile destination.
type MetricsConfig struct {
	Textfile string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	if err := cfg.loadDatabase(); err != nil {
		return nil, fmt.Errorf("load database config: %w", err)
	}

	cfg.loadPaths()

	if err := cfg.loadLoader(); err != nil {
		return nil, fmt.Errorf("load loader config: %w", err)
	}

	cfg.loadLogging()
	cfg.Metrics.Textfile = os.Getenv("METRICS_TEXTFILE")

	return cfg, nil
}

func (c *Config) loadDatabase() error {
	c.Database.URL = os.Getenv("DATABASE_URL")
	c.Database.Host = getEnvOrDefault("DB_HOST", "127.0.0.1")
	c.Database.User = getEnvOrDefault("DB_USER", "postgres")
	c.Database.Password = os.Getenv("DB_PASSWORD")
	c.Database.Name = getEnvOrDefault("DB_NAME", "sparkifydb")
	c.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	c.Database.Port = port

	return nil
}

func (c *Config) loadPaths() {
	c.Paths.SongDir = getEnvOrDefault("SONG_DIR", "data/song_data")
	c.Paths.LogDir = getEnvOrDefault("LOG_DIR", "data/log_data")
}

func (c *Config) loadLoader() error {
	c.Loader.Lookup = strings.ToLower(getEnvOrDefault("LOOKUP_MODE", LookupDirect))

	if raw := os.Getenv("CREATE_SCHEMA"); raw != "" {
		create, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid CREATE_SCHEMA: %w", err)
		}
		c.Loader.CreateSchema = create
	}

	return nil
}

func (c *Config) loadLogging() {
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", "text")
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	if c.Database.URL == "" {
		if c.Database.Host == "" {
			errors = append(errors, "DB_HOST is required (or DATABASE_URL)")
		}
		if c.Database.Name == "" {
			errors = append(errors, "DB_NAME is required (or DATABASE_URL)")
		}
		if c.Database.User == "" {
			errors = append(errors, "DB_USER is required (or DATABASE_URL)")
		}
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			errors = append(errors, "DB_PORT must be between 1 and 65535")
		}
	}

	if c.Paths.SongDir == "" {
		errors = append(errors, "SONG_DIR is required")
	}
	if c.Paths.LogDir == "" {
		errors = append(errors, "LOG_DIR is required")
	}

	if c.Loader.Lookup != LookupDirect && c.Loader.Lookup != LookupPreload {
		errors = append(errors, "LOOKUP_MODE must be one of: direct, preload")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// DSN returns the connection string for the configured database.
func (c *Config) DSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:   "/" + c.Database.Name,
	}
	if c.Database.Password != "" {
		u.User = url.UserPassword(c.Database.User, c.Database.Password)
	} else {
		u.User = url.User(c.Database.User)
	}

	q := url.Values{}
	if c.Database.SSLMode != "" {
		q.Set("sslmode", c.Database.SSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
