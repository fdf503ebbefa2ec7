package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Source types.
const (
	SourceHTTP   = "http"
	SourceMemory = "memory"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Source   SourceConfig   `yaml:"source"`
	Sync     SyncConfig     `yaml:"sync"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains cache database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

// SourceConfig selects and configures the external provider.
type SourceConfig struct {
	Type              string   `yaml:"type"`
	BaseURL           string   `yaml:"base_url"`
	Token             string   `yaml:"-"` // env-only, never in YAML
	Timeout           Duration `yaml:"timeout"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`

	// SeedPath is a JSON file loaded into the memory source.
	SeedPath string `yaml:"seed_path"`
	PageSize int    `yaml:"page_size"`

	// Origin is this application's package id; upserts it authored are not
	// re-imported.
	Origin string `yaml:"origin"`
}

// SyncConfig contains background sync settings.
type SyncConfig struct {
	Enabled             bool     `yaml:"enabled"`
	Interval            Duration `yaml:"interval"`
	BackfillConcurrency int      `yaml:"backfill_concurrency"`
	RetryInitial        Duration `yaml:"retry_initial"`
	RetryMax            Duration `yaml:"retry_max"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SnapshotConfig contains snapshot generation and S3-compatible upload
// settings. An empty bucket keeps snapshots local.
type SnapshotConfig struct {
	Interval  Duration `yaml:"interval"`
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	AccessKey string   `yaml:"-"` // env-only
	SecretKey string   `yaml:"-"` // env-only
	UseSSL    *bool    `yaml:"use_ssl"`
	URLExpiry Duration `yaml:"url_expiry"`
	ObjectKey string   `yaml:"object_key"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("HEALTHCACHE_CONFIG_PATH", "config/healthcache.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path:        "data/healthcache.db",
			SnapshotDir: "data",
		},
		Source: SourceConfig{
			Type:              SourceHTTP,
			Timeout:           Duration(30 * time.Second),
			RequestsPerSecond: 10,
			PageSize:          100,
			Origin:            "com.hyperengineering.healthcache",
		},
		Sync: SyncConfig{
			Enabled:             true,
			Interval:            Duration(15 * time.Minute),
			BackfillConcurrency: 4,
			RetryInitial:        Duration(5 * time.Second),
			RetryMax:            Duration(5 * time.Minute),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Snapshot: SnapshotConfig{
			Interval:  Duration(1 * time.Hour),
			URLExpiry: Duration(15 * time.Minute),
			ObjectKey: "healthcache/snapshot/current.db",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values; unparsable values are
// ignored.
func applyEnvOverrides(cfg *Config) {
	// Server
	envInt("HEALTHCACHE_PORT", &cfg.Server.Port)
	envDuration("HEALTHCACHE_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("HEALTHCACHE_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("HEALTHCACHE_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Database
	envString("HEALTHCACHE_DB_PATH", &cfg.Database.Path)
	envString("HEALTHCACHE_SNAPSHOT_DIR", &cfg.Database.SnapshotDir)

	// Source
	envString("HEALTHCACHE_SOURCE_TYPE", &cfg.Source.Type)
	envString("HEALTHCACHE_SOURCE_URL", &cfg.Source.BaseURL)
	envString("HEALTHCACHE_SOURCE_TOKEN", &cfg.Source.Token)
	envDuration("HEALTHCACHE_SOURCE_TIMEOUT", &cfg.Source.Timeout)
	if v := os.Getenv("HEALTHCACHE_SOURCE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Source.RequestsPerSecond = f
		}
	}
	envString("HEALTHCACHE_SOURCE_SEED", &cfg.Source.SeedPath)
	envInt("HEALTHCACHE_SOURCE_PAGE_SIZE", &cfg.Source.PageSize)
	envString("HEALTHCACHE_ORIGIN", &cfg.Source.Origin)

	// Sync
	envBool("HEALTHCACHE_SYNC_ENABLED", &cfg.Sync.Enabled)
	envDuration("HEALTHCACHE_SYNC_INTERVAL", &cfg.Sync.Interval)
	envInt("HEALTHCACHE_BACKFILL_CONCURRENCY", &cfg.Sync.BackfillConcurrency)
	envDuration("HEALTHCACHE_SYNC_RETRY_INITIAL", &cfg.Sync.RetryInitial)
	envDuration("HEALTHCACHE_SYNC_RETRY_MAX", &cfg.Sync.RetryMax)

	// Auth
	envString("HEALTHCACHE_API_KEY", &cfg.Auth.APIKey)

	// Log
	envString("HEALTHCACHE_LOG_LEVEL", &cfg.Log.Level)
	envString("HEALTHCACHE_LOG_FORMAT", &cfg.Log.Format)

	// Snapshot
	envDuration("HEALTHCACHE_SNAPSHOT_INTERVAL", &cfg.Snapshot.Interval)
	envString("HEALTHCACHE_SNAPSHOT_BUCKET", &cfg.Snapshot.Bucket)
	envString("HEALTHCACHE_S3_ENDPOINT", &cfg.Snapshot.Endpoint)
	envString("HEALTHCACHE_S3_REGION", &cfg.Snapshot.Region)
	envString("HEALTHCACHE_S3_ACCESS_KEY", &cfg.Snapshot.AccessKey)
	envString("HEALTHCACHE_S3_SECRET_KEY", &cfg.Snapshot.SecretKey)
	if v := os.Getenv("HEALTHCACHE_S3_USE_SSL"); v != "" {
		useSSL := v == "true" || v == "1"
		cfg.Snapshot.UseSSL = &useSSL
	}
	envDuration("HEALTHCACHE_S3_URL_EXPIRY", &cfg.Snapshot.URLExpiry)

	// Metrics
	envBool("HEALTHCACHE_METRICS_ENABLED", &cfg.Metrics.Enabled)
}

// validate checks that required configuration values are set.
// In dev mode (HEALTHCACHE_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	switch c.Source.Type {
	case SourceHTTP:
		if c.Source.BaseURL == "" {
			return errors.New("source.base_url (HEALTHCACHE_SOURCE_URL) is required for the http source")
		}
	case SourceMemory:
	default:
		return fmt.Errorf("source.type must be %q or %q, got %q", SourceHTTP, SourceMemory, c.Source.Type)
	}

	if c.Sync.BackfillConcurrency < 1 {
		return fmt.Errorf("sync.backfill_concurrency must be at least 1, got %d", c.Sync.BackfillConcurrency)
	}
	if c.Sync.Enabled && c.Sync.Interval <= 0 {
		return errors.New("sync.interval must be positive")
	}
	if c.Sync.RetryInitial <= 0 || c.Sync.RetryMax < c.Sync.RetryInitial {
		return errors.New("sync.retry_initial must be positive and not exceed sync.retry_max")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}

	if c.Snapshot.Bucket != "" && c.Snapshot.Endpoint == "" {
		return errors.New("snapshot.endpoint (HEALTHCACHE_S3_ENDPOINT) is required when a bucket is set")
	}

	// Dev mode bypasses API key validation
	if os.Getenv("HEALTHCACHE_DEV_MODE") == "true" {
		return nil
	}
	if c.Auth.APIKey == "" {
		return errors.New("HEALTHCACHE_API_KEY is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true" || v == "1"
	}
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}
