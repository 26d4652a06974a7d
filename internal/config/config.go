package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Static    StaticConfig    `yaml:"static"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AuthConfig struct {
	APIToken string `yaml:"api_token"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	// Path is the JSON file for the json backend and the database file for
	// the sqlite backend.
	Path            string `yaml:"path"`
	FailOpen        *bool  `yaml:"fail_open"`
	SerializeWrites *bool  `yaml:"serialize_writes"`
	AtomicWrite     bool   `yaml:"atomic_write"`
}

type DatabaseConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Name          string `yaml:"name"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	SSLMode       string `yaml:"sslmode"`
	MigrationsDir string `yaml:"migrations_dir"`
}

// StaticConfig points at an on-disk directory holding admin.html. When Dir
// is empty the embedded copy is served.
type StaticConfig struct {
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// FailOpenEnabled reports whether a corrupt JSON file loads as empty.
func (s StorageConfig) FailOpenEnabled() bool {
	return s.FailOpen == nil || *s.FailOpen
}

// SerializeWritesEnabled reports whether load+save pairs run under a lock.
func (s StorageConfig) SerializeWritesEnabled() bool {
	return s.SerializeWrites == nil || *s.SerializeWrites
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix TREADLOGIC_ and underscore-separated paths:
//
//	TREADLOGIC_SERVER_HOST, TREADLOGIC_SERVER_PORT, TREADLOGIC_AUTH_API_TOKEN,
//	TREADLOGIC_STORAGE_BACKEND, TREADLOGIC_STORAGE_PATH,
//	TREADLOGIC_DB_HOST, TREADLOGIC_DB_PORT, TREADLOGIC_DB_NAME,
//	TREADLOGIC_DB_USER, TREADLOGIC_DB_PASSWORD, TREADLOGIC_DB_SSLMODE,
//	TREADLOGIC_STATIC_DIR, TREADLOGIC_LOG_LEVEL, TREADLOGIC_LOG_FILE,
//	TREADLOGIC_TAILSCALE_ENABLED, TREADLOGIC_TAILSCALE_HOSTNAME
//
// API_TOKEN is honoured as a fallback for the API token.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TREADLOGIC_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("TREADLOGIC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("API_TOKEN"); v != "" && cfg.Auth.APIToken == "" {
		cfg.Auth.APIToken = v
	}
	if v := os.Getenv("TREADLOGIC_AUTH_API_TOKEN"); v != "" {
		cfg.Auth.APIToken = v
	}
	if v := os.Getenv("TREADLOGIC_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("TREADLOGIC_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("TREADLOGIC_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("TREADLOGIC_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("TREADLOGIC_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("TREADLOGIC_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("TREADLOGIC_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("TREADLOGIC_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("TREADLOGIC_STATIC_DIR"); v != "" {
		cfg.Static.Dir = v
	}
	if v := os.Getenv("TREADLOGIC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TREADLOGIC_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("TREADLOGIC_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
	if v := os.Getenv("TREADLOGIC_TAILSCALE_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendJSON
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Backend {
		case BackendSQLite:
			cfg.Storage.Path = "data/workouts.db"
		default:
			cfg.Storage.Path = "data/workouts.json"
		}
	}
	if cfg.Database.MigrationsDir == "" {
		cfg.Database.MigrationsDir = "migrations"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Tailscale.Hostname == "" {
		cfg.Tailscale.Hostname = "treadlogic"
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Auth.APIToken == "" {
		return fmt.Errorf("auth.api_token is required")
	}
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required")
		}
	case BackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("storage.backend %q must be one of json, sqlite, postgres", c.Storage.Backend)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
