package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dgtt-autoecole/api-backend/internal/config"
	"github.com/dgtt-autoecole/api-backend/internal/database"
	"github.com/dgtt-autoecole/api-backend/internal/logging"
	"github.com/dgtt-autoecole/api-backend/internal/metrics"
	"github.com/dgtt-autoecole/api-backend/internal/repositories"
	"github.com/dgtt-autoecole/api-backend/internal/server"
	"github.com/dgtt-autoecole/api-backend/internal/services"
)

func cmdMigrate(cfg *config.Config) *cli.Command {
	var prune bool

	return &cli.Command{
		Name:  "migrate",
		Usage: "Run database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "prune",
				Usage:       "Also delete expired sessions and their counters",
				Destination: &prune,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := cfg.Resolve(); err != nil {
				return err
			}

			db, err := server.OpenDatabase(cfg)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer database.Close(db)

			if !prune {
				fmt.Fprintln(c.Root().Writer, "Migrations applied")
				return nil
			}

			store, err := server.NewCounterStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize counter store: %w", err)
			}
			defer store.Close()

			reg := metrics.NewRegistry()
			cleanup := services.NewCleanupService(
				repositories.NewSessionRepository(db),
				services.NewCounterService(store, reg),
				reg,
				cfg.SessionLifetime,
				cfg.CleanupInterval,
			)
			deleted := cleanup.RunCleanupNow()

			logging.Info("Expired sessions pruned", "deleted", deleted)
			fmt.Fprintf(c.Root().Writer, "Migrations applied, %d expired sessions pruned\n", deleted)
			return nil
		},
	}
}
