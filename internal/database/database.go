package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dgtt-autoecole/api-backend/internal/logging"
	"github.com/dgtt-autoecole/api-backend/internal/models"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	memoryPath = ":memory:"
)

// Config holds database configuration options
type Config struct {
	// Driver selects the gorm dialector: "sqlite" or "postgres"
	Driver string

	// DatabasePath is the file path to the SQLite database
	// Example: "./data/dgtt.db" or ":memory:" for in-memory database
	DatabasePath string

	// DSN is the PostgreSQL connection string
	DSN string

	// LogLevel sets GORM logging verbosity
	// Silent = no logs, Error = errors only, Warn = warnings + errors, Info = all queries
	LogLevel logger.LogLevel

	// MaxIdleConns sets the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxOpenConns sets the maximum number of open connections to the database
	MaxOpenConns int

	// ConnMaxLifetime sets the maximum amount of time a connection may be reused
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible default configuration for production (SQLite)
func DefaultConfig(dbPath string) *Config {
	return &Config{
		Driver:          DriverSQLite,
		DatabasePath:    dbPath,
		LogLevel:        logger.Warn,
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
	}
}

// PostgresConfig returns the default configuration for a PostgreSQL DSN
func PostgresConfig(dsn string) *Config {
	cfg := DefaultConfig("")
	cfg.Driver = DriverPostgres
	cfg.DSN = dsn
	cfg.MaxOpenConns = 25
	return cfg
}

// TestConfig returns configuration suitable for testing (in-memory database)
func TestConfig() *Config {
	return &Config{
		Driver:          DriverSQLite,
		DatabasePath:    memoryPath,
		LogLevel:        logger.Silent,
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: 0,
	}
}

// InitDB initializes the database connection and runs migrations
// Returns a GORM DB instance or an error if initialization fails
func InitDB(config *Config) (*gorm.DB, error) {
	db, err := Open(config)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logging.Info("Database initialized successfully", "driver", config.Driver)
	return db, nil
}

// Open connects to the configured database without migrating it
func Open(config *Config) (*gorm.DB, error) {
	if config == nil {
		config = DefaultConfig("./data/dgtt.db")
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(config.LogLevel),
		NowFunc: func() time.Time {
			// Ensure all GORM timestamps use UTC
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	switch config.Driver {
	case DriverPostgres:
		if config.DSN == "" {
			return nil, fmt.Errorf("postgres DSN is required")
		}
		dialector = postgres.Open(config.DSN)
	case DriverSQLite, "":
		if config.DatabasePath != memoryPath {
			if err := ensureDBDirectory(config.DatabasePath); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
			if err := checkDatabaseWritePermissions(config.DatabasePath); err != nil {
				return nil, fmt.Errorf("database directory permission check failed: %w", err)
			}
		}
		logging.Info("Opening SQLite database", "path", config.DatabasePath)
		dialector = sqlite.Open(config.DatabasePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", config.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if config.Driver != DriverPostgres {
		// Every connection to ":memory:" is a separate database
		if config.DatabasePath == memoryPath {
			sqlDB.SetMaxOpenConns(1)
		}

		if err := db.Exec("PRAGMA foreign_keys = ON;").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign key constraints: %w", err)
		}

		if config.DatabasePath != memoryPath {
			if err := db.Exec("PRAGMA journal_mode = WAL;").Error; err != nil {
				// Non-fatal
				logging.Warn("Failed to enable WAL mode", "error", err)
			}
		}
	}

	return db, nil
}

// RunMigrations executes GORM AutoMigrate for all models
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Session{},
	); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}

	logging.Info("Database migrations completed")
	return nil
}

// Close gracefully closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	logging.Info("Database connection closed")
	return nil
}

// Ping checks if the database connection is alive
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

// ensureDBDirectory creates the directory for the database file if it doesn't exist
func ensureDBDirectory(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists but is not a directory", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	logging.Info("Created database directory", "dir", dir)
	return nil
}

// checkDatabaseWritePermissions verifies that we can write to the database directory
func checkDatabaseWritePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot access database directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	f, err := os.CreateTemp(dir, ".write_test_")
	if err != nil {
		return fmt.Errorf("cannot write to database directory %s: %w (check permissions)", dir, err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	return nil
}
