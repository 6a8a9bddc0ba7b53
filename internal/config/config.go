package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/dgtt-autoecole/api-backend/internal/crypto"
	"github.com/dgtt-autoecole/api-backend/internal/validators"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config holds the runtime configuration of the backend.
// Every field is bound to a flag with an environment variable source.
type Config struct {
	AppEnv string
	Port   string

	// AppKey is the base64 32-byte key used to sign session cookies
	AppKey string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	SessionLifetime time.Duration
	SessionCookie   string

	// CORSAllowedOrigins is a comma separated origin list
	CORSAllowedOrigins string

	// RedisAddr switches the counter store to Redis when set
	RedisAddr     string
	RedisPassword string

	// CounterRateLimit is the number of increments per second allowed per session
	CounterRateLimit float64

	CleanupInterval time.Duration

	appKeyGenerated bool
}

// Default returns the configuration used when no flag or variable is set
func Default() *Config {
	return &Config{
		AppEnv:             EnvDevelopment,
		Port:               "8080",
		DBDriver:           "sqlite",
		DBPath:             "./data/dgtt.db",
		SessionLifetime:    120 * time.Minute,
		SessionCookie:      "dgtt_session",
		CORSAllowedOrigins: "http://localhost:5173",
		CounterRateLimit:   10,
		CleanupInterval:    time.Hour,
	}
}

// LoadEnvFile loads variables from a .env file. A missing file is not an error
// and variables already present in the environment are kept.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Flags returns CLI flags bound to the config fields
func (c *Config) Flags() []cli.Flag {
	d := Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "env",
			Usage:       "Application environment (development, testing, staging, production)",
			Value:       d.AppEnv,
			Destination: &c.AppEnv,
			Sources:     cli.EnvVars("APP_ENV"),
		},
		&cli.StringFlag{
			Name:        "port",
			Usage:       "HTTP listen port",
			Value:       d.Port,
			Destination: &c.Port,
			Sources:     cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:        "app-key",
			Usage:       "Base64 32-byte key signing session cookies (see: keygen)",
			Destination: &c.AppKey,
			Sources:     cli.EnvVars("APP_KEY"),
		},
		&cli.StringFlag{
			Name:        "db-driver",
			Usage:       "Session database driver (sqlite, postgres)",
			Value:       d.DBDriver,
			Destination: &c.DBDriver,
			Sources:     cli.EnvVars("DB_DRIVER"),
		},
		&cli.StringFlag{
			Name:        "db-path",
			Usage:       "SQLite database file",
			Value:       d.DBPath,
			Destination: &c.DBPath,
			Sources:     cli.EnvVars("DB_PATH"),
		},
		&cli.StringFlag{
			Name:        "database-url",
			Usage:       "PostgreSQL DSN",
			Destination: &c.DatabaseURL,
			Sources:     cli.EnvVars("DATABASE_URL"),
		},
		&cli.DurationFlag{
			Name:        "session-lifetime",
			Usage:       "Idle lifetime of a session",
			Value:       d.SessionLifetime,
			Destination: &c.SessionLifetime,
			Sources:     cli.EnvVars("SESSION_LIFETIME"),
		},
		&cli.StringFlag{
			Name:        "session-cookie",
			Usage:       "Session cookie name",
			Value:       d.SessionCookie,
			Destination: &c.SessionCookie,
			Sources:     cli.EnvVars("SESSION_COOKIE"),
		},
		&cli.StringFlag{
			Name:        "cors-allowed-origins",
			Usage:       "Comma separated origins allowed to call the API",
			Value:       d.CORSAllowedOrigins,
			Destination: &c.CORSAllowedOrigins,
			Sources:     cli.EnvVars("CORS_ALLOWED_ORIGINS"),
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis address (host:port) for the counter store",
			Destination: &c.RedisAddr,
			Sources:     cli.EnvVars("REDIS_ADDR"),
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Usage:       "Redis password",
			Destination: &c.RedisPassword,
			Sources:     cli.EnvVars("REDIS_PASSWORD"),
		},
		&cli.Float64Flag{
			Name:        "counter-rate-limit",
			Usage:       "Counter increments per second allowed per session",
			Value:       d.CounterRateLimit,
			Destination: &c.CounterRateLimit,
			Sources:     cli.EnvVars("COUNTER_RATE_LIMIT"),
		},
		&cli.DurationFlag{
			Name:        "cleanup-interval",
			Usage:       "Interval between expired session sweeps",
			Value:       d.CleanupInterval,
			Destination: &c.CleanupInterval,
			Sources:     cli.EnvVars("CLEANUP_INTERVAL"),
		},
	}
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return ":" + c.Port
}

// AllowedOrigins splits CORSAllowedOrigins
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// AppKeyGenerated reports whether Resolve had to generate an ephemeral key
func (c *Config) AppKeyGenerated() bool {
	return c.appKeyGenerated
}

// Resolve fills derived values and validates the configuration.
// Outside production a missing APP_KEY is replaced by a random one, which
// invalidates every session cookie on restart.
func (c *Config) Resolve() error {
	if c.AppKey == "" && !c.IsProduction() {
		key, err := crypto.GenerateAppKey()
		if err != nil {
			return err
		}
		c.AppKey = key
		c.appKeyGenerated = true
	}
	return c.Validate()
}

// Validate checks every field and returns the first error found
func (c *Config) Validate() error {
	if err := validators.ValidateAppEnv(c.AppEnv, "APP_ENV"); err != nil {
		return err
	}
	if err := validators.ValidatePort(c.Port, "PORT"); err != nil {
		return err
	}
	if err := validators.ValidateAppKey(c.AppKey, "APP_KEY"); err != nil {
		return err
	}
	if err := validators.ValidateDBDriver(c.DBDriver, "DB_DRIVER"); err != nil {
		return err
	}
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return validators.NewValidationError("DB_PATH", "database path is required for sqlite")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return validators.NewValidationError("DATABASE_URL", "database URL is required for postgres")
		}
	}
	if c.SessionLifetime < time.Minute {
		return validators.NewValidationError("SESSION_LIFETIME", "session lifetime must be at least 1m")
	}
	if err := validators.ValidateCookieName(c.SessionCookie, "SESSION_COOKIE"); err != nil {
		return err
	}
	for _, origin := range c.AllowedOrigins() {
		if err := validators.ValidateOrigin(origin, "CORS_ALLOWED_ORIGINS"); err != nil {
			return err
		}
	}
	if c.CounterRateLimit <= 0 {
		return validators.NewValidationError("COUNTER_RATE_LIMIT", "rate limit must be positive")
	}
	if c.CleanupInterval < time.Minute {
		return validators.NewValidationError("CLEANUP_INTERVAL", "cleanup interval must be at least 1m")
	}
	return nil
}
