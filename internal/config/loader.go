package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "PATENTBASE"

// flatAliases maps the historically recognized flat option names onto their
// nested keys, so that both `credential_path: ...` and
// `credentials: {path: ...}` configure the same field.
var flatAliases = map[string]string{
	"credential_object_bucket": "credentials.object_bucket",
	"credential_object_key":    "credentials.object_key",
	"credential_path":          "credentials.path",
	"database_path":            "store.database_path",
	"http_host":                "server.host",
	"http_port":                "server.port",
	"default_import_limit":     "ingest.default_import_limit",
	"nl_max_results":           "nl.max_results",
}

// knownKeys registers every configuration key with viper so that values
// supplied only through the environment are visible to Unmarshal.
var knownKeys = []string{
	"server.host", "server.port", "server.mode",
	"server.read_timeout", "server.write_timeout", "server.shutdown_timeout",
	"credentials.path", "credentials.object_endpoint",
	"credentials.object_access_key", "credentials.object_secret_key",
	"credentials.object_use_ssl", "credentials.object_bucket", "credentials.object_key",
	"warehouse.project_id", "warehouse.table", "warehouse.query_timeout",
	"store.database_path", "store.busy_timeout",
	"ingest.default_import_limit", "ingest.max_import_limit",
	"nl.max_results", "nl.default_results",
	"log.level", "log.format",
	"metrics.enabled",
}

// newViper builds a pre-configured Viper instance with the standard settings:
// YAML file type, PATENTBASE_ env prefix, automatic env binding, and a key
// replacer that maps "." → "_" so that "store.database_path" resolves to
// "PATENTBASE_STORE_DATABASE_PATH".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range knownKeys {
		v.SetDefault(key, nil)
	}
	// Booleans cannot distinguish "unset" from false after unmarshalling, so
	// exposition defaults to on here rather than in ApplyDefaults.
	v.SetDefault("metrics.enabled", true)
	return v
}

// applyFlatAliases copies values supplied under the flat option names onto
// their nested keys. viper's RegisterAlias only redirects Get, not Unmarshal,
// so the copy has to be explicit. A flat name set alongside its nested form
// takes precedence.
func applyFlatAliases(v *viper.Viper) {
	for flat, nested := range flatAliases {
		if val := v.Get(flat); val != nil {
			v.Set(nested, val)
		}
	}
}

// Load reads the YAML file at configPath, merges any PATENTBASE_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from PATENTBASE_* environment
// variables, with no config file required.  This is the preferred loading
// strategy for containerised deployments.
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	applyFlatAliases(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  Intended for
// hot-reloading non-critical settings such as the log level; callers are
// responsible for applying only the safe subset of changes at runtime.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
// If the changed file fails to parse or validate, onChange is not called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}
