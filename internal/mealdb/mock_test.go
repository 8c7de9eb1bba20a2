package mealdb

import (
	"context"
	"errors"
	"testing"

	"recipefinder/internal/config"
)

func TestNewReturnsMockWhenEnabled(t *testing.T) {
	t.Parallel()
	api := New(&config.Config{Mocks: config.MockConfig{Enable: true}})
	if _, ok := api.(*Mock); !ok {
		t.Fatalf("expected *Mock, got %T", api)
	}
	api = New(&config.Config{MealDB: config.MealDBConfig{BaseURL: "http://localhost:1"}})
	if _, ok := api.(*Client); !ok {
		t.Fatalf("expected *Client, got %T", api)
	}
}

func TestMockCatalogue(t *testing.T) {
	t.Parallel()
	m := NewMock()
	ctx := context.Background()

	r, err := m.Lookup(ctx, "52772")
	if err != nil || r.Name != "Teriyaki Chicken Casserole" {
		t.Fatalf("unexpected lookup %v %v", r, err)
	}
	if _, err := m.Lookup(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	results, _ := m.Search(ctx, "CHICKEN")
	if len(results) != 2 {
		t.Fatalf("expected 2 chicken recipes, got %#v", results)
	}
	chicken, _ := m.FilterByCategory(ctx, "chicken")
	if len(chicken) != 2 {
		t.Fatalf("expected 2 recipes in Chicken, got %#v", chicken)
	}
	categories, _ := m.Categories(ctx)
	if len(categories) != 3 {
		t.Fatalf("expected 3 categories, got %#v", categories)
	}

	first, _ := m.Random(ctx)
	second, _ := m.Random(ctx)
	if first.ID == second.ID {
		t.Fatalf("expected Random to advance, got %s twice", first.ID)
	}
}
