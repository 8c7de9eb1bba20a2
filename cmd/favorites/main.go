package main

import (
	"context"
	"fmt"
	"os"

	"recipefinder/internal/config"
	"recipefinder/internal/logging"
	"recipefinder/internal/mealdb"
	"recipefinder/internal/resolver"
)

func main() {
	if err := newRootCommand(loadDeps).Execute(); err != nil {
		os.Exit(1)
	}
}

// loadDeps talks to the running server for the set itself; only recipe lookups for show go
// straight to the collaborator.
func loadDeps(ctx context.Context, serverURL string) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if _, err := logging.Setup(ctx, config.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return nil, err
	}
	if serverURL == "" {
		serverURL = cfg.Server.URL
	}
	return &deps{
		favorites: newServerClient(serverURL, nil),
		resolver:  resolver.New(mealdb.New(cfg), cfg.Resolver.MaxInFlight),
	}, nil
}
