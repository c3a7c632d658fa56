// Package main is the entry point for the quire CLI.
package main

import (
	"fmt"
	"os"

	"github.com/runoshun/quire/internal/app"
	"github.com/runoshun/quire/internal/cli"
	"github.com/runoshun/quire/internal/infra/config"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	dataDir := os.Getenv("QUIRE_DATA_DIR")
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}

	// Create dependency injection container
	container, err := app.New(dataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = container.Close() }()

	// Create and execute root command
	rootCmd := cli.NewRootCommand(container, version)
	if err := rootCmd.Execute(); err != nil {
		if id := container.RequestID(); id != "" {
			return fmt.Errorf("%w\n(request %s)", err, id)
		}
		return err
	}
	return nil
}
