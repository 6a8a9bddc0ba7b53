package main

import (
	"context"
	"os"

	"github.com/dgtt-autoecole/api-backend/internal/cli"
)

// @title DGTT Auto-Ecole Backend API
// @version 1.0.0
// @description Health checks and the session counter of the DGTT Auto-Ecole candidate interface.
// @host localhost:8080
// @BasePath /
func main() {
	if err := cli.Run(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
}
