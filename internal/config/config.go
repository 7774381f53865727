// Package config defines all configuration structures for patentbase.
// No I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP query-surface tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CredentialsConfig holds the two credential sources for the warehouse:
// a direct filesystem path and an S3-compatible object-store location.
// The broker prefers the path when it is configured and exists.
type CredentialsConfig struct {
	Path            string `mapstructure:"path"`
	ObjectEndpoint  string `mapstructure:"object_endpoint"`
	ObjectAccessKey string `mapstructure:"object_access_key"`
	ObjectSecretKey string `mapstructure:"object_secret_key"`
	ObjectUseSSL    bool   `mapstructure:"object_use_ssl"`
	ObjectBucket    string `mapstructure:"object_bucket"`
	ObjectKey       string `mapstructure:"object_key"`
}

// WarehouseConfig holds remote patent-warehouse parameters.
type WarehouseConfig struct {
	ProjectID    string        `mapstructure:"project_id"`
	Table        string        `mapstructure:"table"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

// StoreConfig holds the embedded local-store parameters.
type StoreConfig struct {
	DatabasePath string        `mapstructure:"database_path"`
	BusyTimeout  time.Duration `mapstructure:"busy_timeout"`
}

// IngestConfig holds ingestion-batch parameters.
type IngestConfig struct {
	DefaultImportLimit int `mapstructure:"default_import_limit"`
	MaxImportLimit     int `mapstructure:"max_import_limit"`
}

// NLConfig holds natural-language translator parameters.
type NLConfig struct {
	MaxResults     int `mapstructure:"max_results"`
	DefaultResults int `mapstructure:"default_results"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config is the root configuration structure.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Warehouse   WarehouseConfig   `mapstructure:"warehouse"`
	Store       StoreConfig       `mapstructure:"store"`
	Ingest      IngestConfig      `mapstructure:"ingest"`
	NL          NLConfig          `mapstructure:"nl"`
	Log         LogConfig         `mapstructure:"log"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Store.DatabasePath == "" {
		return fmt.Errorf("config: store.database_path is required")
	}

	if c.Warehouse.Table == "" {
		return fmt.Errorf("config: warehouse.table is required")
	}
	if c.Warehouse.QueryTimeout <= 0 {
		return fmt.Errorf("config: warehouse.query_timeout must be positive, got %s", c.Warehouse.QueryTimeout)
	}

	if c.Ingest.DefaultImportLimit < 1 || c.Ingest.DefaultImportLimit > c.Ingest.MaxImportLimit {
		return fmt.Errorf("config: ingest.default_import_limit %d is out of range [1, %d]",
			c.Ingest.DefaultImportLimit, c.Ingest.MaxImportLimit)
	}
	if c.Ingest.MaxImportLimit < 1 {
		return fmt.Errorf("config: ingest.max_import_limit must be ≥ 1, got %d", c.Ingest.MaxImportLimit)
	}

	if c.NL.MaxResults < 1 {
		return fmt.Errorf("config: nl.max_results must be ≥ 1, got %d", c.NL.MaxResults)
	}
	if c.NL.DefaultResults < 1 || c.NL.DefaultResults > c.NL.MaxResults {
		return fmt.Errorf("config: nl.default_results %d is out of range [1, %d]",
			c.NL.DefaultResults, c.NL.MaxResults)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
