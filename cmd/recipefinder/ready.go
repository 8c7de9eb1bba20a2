package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

type Readyable interface {
	Ready(context.Context) error
}

type readyFunc func(context.Context) error

func (f readyFunc) Ready(ctx context.Context) error { return f(ctx) }

type namedCheck struct {
	name  string
	check Readyable
}

// readiness runs every check until they all pass together once; after that it stays ready.
// Later store outages only degrade favorites to memory, they do not take the page down.
type readiness struct {
	passed atomic.Bool
	checks []namedCheck
}

func (r *readiness) Add(name string, check Readyable) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

func (r *readiness) Ready(ctx context.Context) error {
	if r.passed.Load() {
		return nil
	}
	var errs []error
	for _, c := range r.checks {
		if err := c.check.Ready(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.name, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	r.passed.Store(true)
	return nil
}

func (r *readiness) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if err := r.Ready(req.Context()); err != nil {
		slog.WarnContext(req.Context(), "not ready", "error", err)
		http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.ErrorContext(req.Context(), "failed to write readiness response", "error", err)
	}
}
