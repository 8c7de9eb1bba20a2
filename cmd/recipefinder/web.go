package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recipefinder/internal/cache"
	"recipefinder/internal/config"
	"recipefinder/internal/favorites"
	"recipefinder/internal/kvstore"
	"recipefinder/internal/mealdb"
	"recipefinder/internal/recipes"
	"recipefinder/internal/resolver"
	"recipefinder/internal/static"
	"recipefinder/internal/templates"
)

type app struct {
	handler   http.Handler
	favorites *favorites.Manager
	close     func()
}

// buildApp wires the single favorites manager into every handler that shows or changes it.
func buildApp(ctx context.Context, cfg *config.Config, backend cache.Cache) (*app, error) {
	static.Init()
	if err := templates.Init(static.StylesheetPath, static.ScriptPath); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	store := kvstore.New(backend)
	manager := favorites.New(ctx, store, cfg.Favorites.Key)
	binding := favorites.NewBinding(manager)
	api := mealdb.New(cfg)

	mux := http.NewServeMux()
	static.Register(mux)

	recipes.NewHandler(api, binding).Register(mux)

	favoritesHandler := favorites.NewHandler(manager, binding, resolver.New(api, cfg.Resolver.MaxInFlight))
	favoritesHandler.Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	ready := &readiness{}
	ready.Add("store", store)
	ready.Add("mealdb", readyFunc(func(ctx context.Context) error {
		return mealdb.Ready(ctx, api)
	}))
	mux.Handle("/ready", ready)

	return &app{
		handler:   WithMiddleware(mux),
		favorites: manager,
		close: func() {
			favoritesHandler.Close()
			if c, ok := backend.(io.Closer); ok {
				if err := c.Close(); err != nil {
					slog.Error("failed to close store", "error", err)
				}
			}
		},
	}, nil
}

func runServer(ctx context.Context, cfg *config.Config, backend cache.Cache, addr string) error {
	a, err := buildApp(ctx, cfg, backend)
	if err != nil {
		return err
	}
	defer a.close()

	server := &http.Server{
		Addr:              addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("Serving recipe finder", "address", addr, "favorites", a.favorites.Count())
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)
		return gracefulShutdown(server)
	}
}

func gracefulShutdown(svr *http.Server) error {
	// kubernetes gives 30 seconds
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		if closeErr := svr.Close(); closeErr != nil {
			slog.Error("Server close error", "error", closeErr)
		}
		return err
	}
	return nil
}
