// Command licensed runs the licensed daemon: it validates the local
// license against the licensing authority on a schedule and serves the
// license status API.
package main

import (
	"context"
	"fmt"
	"os"

	"entitle/internal/app"
	"entitle/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return application.Run(context.Background())
}
