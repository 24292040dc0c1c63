package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	_ "time/tzdata"

	"CourtEdge/internal/di"
	"CourtEdge/pkg/config"
)

func main() {
	defaultPath := os.Getenv("COURTEDGE_CONFIG")
	if defaultPath == "" {
		defaultPath = "config/config.yaml"
	}
	configPath := flag.String("config", defaultPath, "config file path (env COURTEDGE_CONFIG)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "courtedge: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	// Blocks until SIGINT/SIGTERM or a server failure.
	return app.Run(context.Background())
}
