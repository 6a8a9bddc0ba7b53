package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dgtt-autoecole/api-backend/internal/config"
	"github.com/dgtt-autoecole/api-backend/internal/logging"
	"github.com/dgtt-autoecole/api-backend/internal/models"
)

// DefaultEnvFile is loaded before flags are parsed unless ENV_FILE points elsewhere
const DefaultEnvFile = ".env"

// Run loads the .env file and runs the CLI application
func Run(ctx context.Context, args []string) error {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	if err := newCommand(os.Stdout).Run(ctx, args); err != nil {
		logging.Error("CLI execution failed", "error", err)
		return err
	}
	return nil
}

func newCommand(stdout io.Writer) *cli.Command {
	cfg := config.Default()

	return &cli.Command{
		Name:    "dgtt-backend",
		Usage:   "DGTT Auto-Ecole candidate interface backend",
		Version: models.ServiceVersion,
		Writer:  stdout,
		Flags:   cfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := logging.Init(cfg.AppEnv); err != nil {
				return nil, err
			}
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			_ = logging.Close()
			return nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, cfg)
		},
		Commands: []*cli.Command{
			cmdServe(cfg),
			cmdMigrate(cfg),
			cmdKeygen(),
		},
	}
}
