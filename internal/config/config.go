// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendSQLite = "sqlite"
	BackendREST   = "rest"
)

// Config holds every setting the portal reads at start-up.
type Config struct {
	Port         string `mapstructure:"port"`
	Backend      string `mapstructure:"backend"`
	DatabasePath string `mapstructure:"database_path"`
	JWTSecret    string `mapstructure:"jwt_secret"`
	BcryptCost   int    `mapstructure:"bcrypt_cost"`
	CookieSecure bool   `mapstructure:"cookie_secure"`
	LogLevel     string `mapstructure:"log_level"`

	ServiceURL     string `mapstructure:"service_url"`
	ServiceAnonKey string `mapstructure:"service_anon_key"`
	ServiceRoleKey string `mapstructure:"service_role_key"`

	// AdminEmails is a comma separated list of privileged profile emails.
	AdminEmails string `mapstructure:"admin_emails"`

	RedisURL     string        `mapstructure:"redis_url"`
	ViewStateTTL time.Duration `mapstructure:"viewstate_ttl"`

	// ClamdAddr enables antivirus scanning of CV uploads, e.g. tcp://localhost:3310.
	ClamdAddr string `mapstructure:"clamd_addr"`
}

// Admins returns the normalized admin email list.
func (c *Config) Admins() []string {
	var out []string
	for _, e := range strings.Split(c.AdminEmails, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// SlogLevel maps LogLevel onto a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("backend", BackendSQLite)
	v.SetDefault("database_path", "solifound.db")
	v.SetDefault("bcrypt_cost", 12)
	// Secure cookies unless explicitly disabled for local development.
	v.SetDefault("cookie_secure", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("admin_emails", "sistemas@fundacionsanezequiel.org")
	v.SetDefault("viewstate_ttl", 30*time.Minute)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"port":             "PORT",
		"backend":          "BACKEND",
		"database_path":    "DATABASE_PATH",
		"jwt_secret":       "JWT_SECRET",
		"bcrypt_cost":      "BCRYPT_COST",
		"cookie_secure":    "COOKIE_SECURE",
		"log_level":        "LOG_LEVEL",
		"service_url":      "SERVICE_URL",
		"service_anon_key": "SERVICE_ANON_KEY",
		"service_role_key": "SERVICE_ROLE_KEY",
		"admin_emails":     "ADMIN_EMAILS",
		"redis_url":        "REDIS_URL",
		"viewstate_ttl":    "VIEWSTATE_TTL",
		"clamd_addr":       "CLAMD_ADDR",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Port == "" {
		return errors.New("port is required")
	}
	if cfg.ViewStateTTL <= 0 {
		return errors.New("viewstate ttl must be positive")
	}

	switch cfg.Backend {
	case BackendSQLite:
		if cfg.DatabasePath == "" {
			return errors.New("database path is required")
		}
		if len(cfg.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
		}
		if cfg.BcryptCost < 4 || cfg.BcryptCost > 14 {
			return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", cfg.BcryptCost)
		}
	case BackendREST:
		if cfg.ServiceURL == "" {
			return errors.New("SERVICE_URL is required for the rest backend")
		}
		if cfg.ServiceAnonKey == "" {
			return errors.New("SERVICE_ANON_KEY is required for the rest backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", cfg.Backend, BackendSQLite, BackendREST)
	}
	return nil
}
