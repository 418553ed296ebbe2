package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Plan source kinds.
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Plan      PlanConfig      `yaml:"plan"`
	Database  DatabaseConfig  `yaml:"database"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// PlanConfig selects where the workout plan is read from.
type PlanConfig struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
	ID     string `yaml:"id"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type SessionsConfig struct {
	Max int           `yaml:"max"`
	TTL time.Duration `yaml:"ttl"`
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

// Default returns the configuration used when no file is given: the bundled
// plan served on port 8080.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		Plan:      PlanConfig{Source: SourceEmbedded, ID: "default"},
		SQLite:    SQLiteConfig{Path: "fitplan.db"},
		Sessions:  SessionsConfig{Max: 64, TTL: 30 * time.Minute},
		Tailscale: TailscaleConfig{Hostname: "fitplan"},
	}
}

// Load reads config from a YAML file on top of Default, then applies
// environment variable overrides. Env vars use the prefix FITPLAN_:
//
//	FITPLAN_SERVER_HOST, FITPLAN_SERVER_PORT, FITPLAN_AUTH_API_KEY,
//	FITPLAN_PLAN_SOURCE, FITPLAN_PLAN_PATH, FITPLAN_PLAN_ID,
//	FITPLAN_DB_HOST, FITPLAN_DB_PORT, FITPLAN_DB_NAME,
//	FITPLAN_DB_USER, FITPLAN_DB_PASSWORD, FITPLAN_DB_SSLMODE,
//	FITPLAN_SQLITE_PATH, FITPLAN_SESSIONS_MAX, FITPLAN_SESSIONS_TTL
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// FromEnv builds a config from Default plus environment overrides only.
func FromEnv() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FITPLAN_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FITPLAN_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FITPLAN_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("FITPLAN_PLAN_SOURCE"); v != "" {
		cfg.Plan.Source = v
	}
	if v := os.Getenv("FITPLAN_PLAN_PATH"); v != "" {
		cfg.Plan.Path = v
	}
	if v := os.Getenv("FITPLAN_PLAN_ID"); v != "" {
		cfg.Plan.ID = v
	}
	if v := os.Getenv("FITPLAN_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FITPLAN_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FITPLAN_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FITPLAN_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FITPLAN_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FITPLAN_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("FITPLAN_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("FITPLAN_SESSIONS_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sessions.Max = n
		}
	}
	if v := os.Getenv("FITPLAN_SESSIONS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.TTL = d
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Sessions.Max < 1 {
		return fmt.Errorf("sessions.max must be at least 1")
	}
	if c.Plan.ID == "" {
		c.Plan.ID = "default"
	}
	switch c.Plan.Source {
	case SourceEmbedded:
	case SourceFile:
		if c.Plan.Path == "" {
			return fmt.Errorf("plan.path is required for source %q", SourceFile)
		}
	case SourcePostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	case SourceSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required for source %q", SourceSQLite)
		}
	default:
		return fmt.Errorf("plan.source %q is not one of embedded, file, postgres, sqlite", c.Plan.Source)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}

func (d DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if d.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if d.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if d.User == "" {
		return fmt.Errorf("database.user is required")
	}
	return nil
}
