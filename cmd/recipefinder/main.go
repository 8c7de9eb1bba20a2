package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"recipefinder/internal/cache"
	"recipefinder/internal/config"
	"recipefinder/internal/logging"
	"recipefinder/internal/mealdb"
	"recipefinder/internal/telemetry"
)

func main() {
	var serve bool
	var addr string
	var ephemeral bool
	var search string
	var id string
	var help bool

	flag.BoolVar(&serve, "serve", false, "Run HTTP server mode")
	flag.StringVar(&addr, "addr", ":8080", "Address to bind in server mode")
	flag.BoolVar(&ephemeral, "ephemeral", false, "Keep favorites in memory only")
	flag.StringVar(&search, "search", "", "Search recipes by name and print the results")
	flag.StringVar(&search, "s", "", "Search recipes by name (short form)")
	flag.StringVar(&id, "id", "", "Print a single recipe by id")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.BoolVar(&help, "h", false, "Show help message")
	flag.Parse()

	if help {
		showHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if ephemeral {
		cfg.Store.Backend = config.BackendMemory
	}

	ctx := context.Background()
	otlpLogs, shutdownOTLPLogs, err := telemetry.LogHandler(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("failed to set up log export: %v", err)
	}
	defer func() {
		_ = shutdownOTLPLogs(context.Background())
	}()

	closeLogs, err := logging.Setup(ctx, cfg.Log, otlpLogs)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	defer func() {
		_ = closeLogs()
	}()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	switch {
	case serve:
		backend, err := cache.MakeCache(ctx, cfg.Store)
		if err != nil {
			// favorites still work for this run, they just will not survive a restart
			slog.Error("durable store unavailable, favorites kept in memory only", "backend", cfg.Store.Backend, "error", err)
			backend = nil
		}
		if err := runServer(ctx, cfg, backend, addr); err != nil {
			log.Fatalf("server error: %v", err)
		}
	case search != "":
		if err := runSearch(ctx, mealdb.New(cfg), search); err != nil {
			log.Fatalf("search failed: %v", err)
		}
	case id != "":
		if err := runShow(ctx, mealdb.New(cfg), id); err != nil {
			log.Fatalf("lookup failed: %v", err)
		}
	default:
		showHelp()
		os.Exit(1)
	}
}

func runSearch(ctx context.Context, api mealdb.API, term string) error {
	results, err := api.Search(ctx, term)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No recipes found for %q\n", term)
		return nil
	}
	for _, r := range results {
		fmt.Printf("%s\t%s\n", r.ID, r.Name)
	}
	return nil
}

func runShow(ctx context.Context, api mealdb.API, id string) error {
	recipe, err := api.Lookup(ctx, id)
	if errors.Is(err, mealdb.ErrNotFound) {
		return fmt.Errorf("no recipe with id %s", id)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s, %s)\n\n", recipe.Name, recipe.Category, recipe.Area)
	for _, ing := range recipe.Ingredients {
		fmt.Printf("  - %s\n", ing)
	}
	fmt.Println()
	for i, step := range recipe.Steps() {
		fmt.Printf("%d. %s\n", i+1, step)
	}
	return nil
}

func showHelp() {
	fmt.Println(strings.TrimSpace(`
Recipe Finder

Usage:
  recipefinder -serve [-addr :8080] [-ephemeral]
  recipefinder -search <term>
  recipefinder -id <recipe id>

Environment:
  STORE_BACKEND   file (default), memory, sqlite, azure or s3
  MOCKS_ENABLE    serve a fixed offline catalogue instead of TheMealDB
  LOG_LEVEL       debug, info, warn or error
`))
}
