package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/dgtt-autoecole/api-backend/internal/cache"
	"github.com/dgtt-autoecole/api-backend/internal/config"
	"github.com/dgtt-autoecole/api-backend/internal/crypto"
	"github.com/dgtt-autoecole/api-backend/internal/database"
	"github.com/dgtt-autoecole/api-backend/internal/logging"
	"github.com/dgtt-autoecole/api-backend/internal/metrics"
	"github.com/dgtt-autoecole/api-backend/internal/middleware"
	"github.com/dgtt-autoecole/api-backend/internal/repositories"
	"github.com/dgtt-autoecole/api-backend/internal/services"
)

// App is the fully wired backend
type App struct {
	cfg      *config.Config
	db       *gorm.DB
	store    cache.CounterStore
	metrics  *metrics.Registry
	counters *services.CounterService
	cleanup  *services.CleanupService
	handler  http.Handler
}

// OpenDatabase opens and migrates the configured database
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	dbConfig := database.DefaultConfig(cfg.DBPath)
	if cfg.DBDriver == database.DriverPostgres {
		dbConfig = database.PostgresConfig(cfg.DatabaseURL)
	}
	return database.InitDB(dbConfig)
}

// NewCounterStore picks Redis when REDIS_ADDR is set, process memory otherwise
func NewCounterStore(ctx context.Context, cfg *config.Config) (cache.CounterStore, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCounterStore(cfg.SessionLifetime, cfg.CleanupInterval), nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}
	return cache.NewRedisCounterStore(client, cfg.SessionLifetime), nil
}

// NewApp wires storage, services and routes from a resolved configuration
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	key, err := crypto.DecodeAppKey(cfg.AppKey)
	if err != nil {
		return nil, err
	}

	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store, err := NewCounterStore(ctx, cfg)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to initialize counter store: %w", err)
	}

	app, err := newApp(cfg, db, store, key)
	if err != nil {
		_ = store.Close()
		_ = database.Close(db)
		return nil, err
	}
	return app, nil
}

func newApp(cfg *config.Config, db *gorm.DB, store cache.CounterStore, key []byte) (*App, error) {
	reg := metrics.NewRegistry()
	sessionRepo := repositories.NewSessionRepository(db)

	sessions, err := services.NewSessionService(sessionRepo, reg, &services.SessionConfig{
		Key:      key,
		Lifetime: cfg.SessionLifetime,
	})
	if err != nil {
		return nil, err
	}
	counters := services.NewCounterService(store, reg)

	router, err := NewRouter(&RouterDeps{
		DB:       db,
		Sessions: sessions,
		Counters: counters,
		Metrics:  reg,
		Cookie: middleware.CookieConfig{
			Name:   cfg.SessionCookie,
			Secure: cfg.IsProduction(),
		},
		CounterRateLimit: cfg.CounterRateLimit,
		StartedAt:        time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}

	logging.Info("Application initialized",
		"environment", cfg.AppEnv,
		"db_driver", cfg.DBDriver,
		"counter_store", store.Name(),
		"session_lifetime", cfg.SessionLifetime.String(),
	)

	return &App{
		cfg:      cfg,
		db:       db,
		store:    store,
		metrics:  reg,
		counters: counters,
		cleanup:  services.NewCleanupService(sessionRepo, counters, reg, cfg.SessionLifetime, cfg.CleanupInterval),
		handler:  WithCORS(router, cfg.AllowedOrigins()),
	}, nil
}

// Handler returns the root HTTP handler
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run starts the cleanup job and serves HTTP until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	a.cleanup.Start()
	defer a.cleanup.Stop()

	return ListenAndServe(ctx, a.cfg.Addr(), a.handler)
}

// Close releases the counter store and the database
func (a *App) Close() error {
	return errors.Join(a.store.Close(), database.Close(a.db))
}
