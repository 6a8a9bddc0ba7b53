package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/dgtt-autoecole/api-backend/internal/config"
	"github.com/dgtt-autoecole/api-backend/internal/logging"
	"github.com/dgtt-autoecole/api-backend/internal/server"
)

func cmdServe(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server (default)",
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Resolve(); err != nil {
		return err
	}
	if cfg.AppKeyGenerated() {
		logging.Warn("APP_KEY not set, using an ephemeral key; sessions will not survive a restart")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logging.Error("Failed to release resources", "error", err)
		}
	}()

	logging.Info("DGTT Auto-Ecole backend starting", "addr", cfg.Addr(), "environment", cfg.AppEnv)
	return app.Run(ctx)
}
