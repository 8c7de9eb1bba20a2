// Package resolver turns a snapshot of favorite ids into full recipe records.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"recipefinder/internal/recipes/types"
	"recipefinder/internal/telemetry"
)

type lookuper interface {
	Lookup(ctx context.Context, id string) (*types.RecipeDetail, error)
}

// Result is a resolved batch. Recipes follow the order of the requested ids; Missing lists
// the ids whose lookup failed.
type Result struct {
	Recipes []types.RecipeDetail
	Missing []string
}

type Resolver struct {
	api         lookuper
	maxInFlight int
	// fanOut runs every lookup and returns one slot per id, nil where the lookup failed.
	fanOut func(ctx context.Context, ids []string) []*types.RecipeDetail
}

// New builds a resolver. maxInFlight <= 0 leaves the fan-out unbounded.
func New(api lookuper, maxInFlight int) *Resolver {
	r := &Resolver{api: api, maxInFlight: maxInFlight}
	r.fanOut = r.lookupAll
	return r
}

// ResolveAll returns the recipes that could be loaded, in id order.
func (r *Resolver) ResolveAll(ctx context.Context, ids []string) []types.RecipeDetail {
	return r.Resolve(ctx, ids).Recipes
}

// Resolve looks every id up concurrently and waits for all of them. A failed lookup drops that
// entry; a failure of the batch itself yields no recipes and reports every id missing.
func (r *Resolver) Resolve(ctx context.Context, ids []string) (res Result) {
	if len(ids) == 0 {
		return Result{}
	}

	ctx, span := telemetry.Tracer("resolver").Start(ctx, "resolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.Int("ids", len(ids)))

	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "favorite batch failed", "panic", rec, "stack", string(debug.Stack()))
			telemetry.ResolverMissing.Add(float64(len(ids)))
			res = Result{Missing: append([]string(nil), ids...)}
		}
	}()

	for i, recipe := range r.fanOut(ctx, ids) {
		if recipe == nil {
			res.Missing = append(res.Missing, ids[i])
			continue
		}
		res.Recipes = append(res.Recipes, *recipe)
	}
	if len(res.Missing) > 0 {
		telemetry.ResolverMissing.Add(float64(len(res.Missing)))
		slog.WarnContext(ctx, "some favorites could not be loaded", "missing", res.Missing, "loaded", len(res.Recipes))
	}
	span.SetAttributes(attribute.Int("missing", len(res.Missing)))
	return res
}

func (r *Resolver) lookupAll(ctx context.Context, ids []string) []*types.RecipeDetail {
	found := make([]*types.RecipeDetail, len(ids))
	var g errgroup.Group
	if r.maxInFlight > 0 {
		g.SetLimit(r.maxInFlight)
	}
	for i, id := range ids {
		g.Go(func() error {
			found[i] = r.lookup(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return found
}

func (r *Resolver) lookup(ctx context.Context, id string) (recipe *types.RecipeDetail) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "recipe lookup panicked", "id", id, "panic", fmt.Sprint(rec))
			recipe = nil
		}
	}()
	recipe, err := r.api.Lookup(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "failed to load favorite recipe", "id", id, "error", err)
		return nil
	}
	return recipe
}
