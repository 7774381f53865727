package config

import "time"

// Default value constants.
const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultWarehouseTable        = "patents-public-data.patents.publications"
	DefaultWarehouseQueryTimeout = 60 * time.Second

	DefaultDatabasePath = "patents.db"
	DefaultBusyTimeout  = 5 * time.Second

	DefaultImportLimit    = 10000
	DefaultMaxImportLimit = 100000

	DefaultNLMaxResults     = 100
	DefaultNLDefaultResults = 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform default.
// Fields already set by the caller are left unchanged so that explicit
// configuration always wins.  It must be called after unmarshalling and before
// Validate().
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Warehouse.Table == "" {
		cfg.Warehouse.Table = DefaultWarehouseTable
	}
	if cfg.Warehouse.QueryTimeout == 0 {
		cfg.Warehouse.QueryTimeout = DefaultWarehouseQueryTimeout
	}

	if cfg.Store.DatabasePath == "" {
		cfg.Store.DatabasePath = DefaultDatabasePath
	}
	if cfg.Store.BusyTimeout == 0 {
		cfg.Store.BusyTimeout = DefaultBusyTimeout
	}

	if cfg.Ingest.DefaultImportLimit == 0 {
		cfg.Ingest.DefaultImportLimit = DefaultImportLimit
	}
	if cfg.Ingest.MaxImportLimit == 0 {
		cfg.Ingest.MaxImportLimit = DefaultMaxImportLimit
	}

	if cfg.NL.MaxResults == 0 {
		cfg.NL.MaxResults = DefaultNLMaxResults
	}
	if cfg.NL.DefaultResults == 0 {
		cfg.NL.DefaultResults = DefaultNLDefaultResults
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// NewDefaultConfig returns a Config populated entirely with defaults.
// Metrics exposition is on by default.
func NewDefaultConfig() *Config {
	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(cfg)
	return cfg
}
