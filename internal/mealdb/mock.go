package mealdb

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/samber/lo"

	"recipefinder/internal/recipes/types"
)

// Mock serves a fixed catalogue so the app runs without network access.
type Mock struct {
	recipes []types.RecipeDetail
	next    atomic.Uint64
}

var _ API = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{recipes: mockCatalogue()}
}

func (m *Mock) Lookup(_ context.Context, id string) (*types.RecipeDetail, error) {
	r, ok := lo.Find(m.recipes, func(r types.RecipeDetail) bool { return r.ID == id })
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *Mock) Search(_ context.Context, term string) ([]types.RecipeSummary, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, nil
	}
	return lo.FilterMap(m.recipes, func(r types.RecipeDetail, _ int) (types.RecipeSummary, bool) {
		return r.Summary(), strings.Contains(strings.ToLower(r.Name), term)
	}), nil
}

func (m *Mock) FilterByCategory(_ context.Context, category string) ([]types.RecipeSummary, error) {
	return lo.FilterMap(m.recipes, func(r types.RecipeDetail, _ int) (types.RecipeSummary, bool) {
		return r.Summary(), category != "" && strings.EqualFold(r.Category, category)
	}), nil
}

func (m *Mock) Categories(_ context.Context) ([]types.Category, error) {
	names := lo.Uniq(lo.Map(m.recipes, func(r types.RecipeDetail, _ int) string { return r.Category }))
	return lo.Map(names, func(name string, _ int) types.Category { return types.Category{Name: name} }), nil
}

// Random walks the catalogue in order so tests stay deterministic.
func (m *Mock) Random(_ context.Context) (*types.RecipeSummary, error) {
	i := (m.next.Add(1) - 1) % uint64(len(m.recipes))
	s := m.recipes[i].Summary()
	return &s, nil
}

func mockCatalogue() []types.RecipeDetail {
	return []types.RecipeDetail{
		{
			ID:       "52772",
			Name:     "Teriyaki Chicken Casserole",
			Category: "Chicken",
			Area:     "Japanese",
			Instructions: "Preheat oven to 350 F. Spray a 9x13-inch baking pan with non-stick spray.\n" +
				"Combine soy sauce, water, brown sugar, ginger and garlic in a small saucepan and cover.\n" +
				"Place chicken in the baking pan, pour sauce over and bake 35 minutes.",
			Thumbnail: "https://www.themealdb.com/images/media/meals/wvpsxx1468256321.jpg",
			Ingredients: []types.Ingredient{
				{Name: "soy sauce", Measure: "3/4 cup"},
				{Name: "water", Measure: "1/2 cup"},
				{Name: "brown sugar", Measure: "1/4 cup"},
				{Name: "chicken breasts", Measure: "2"},
			},
			Tags:    []string{"Meat", "Casserole"},
			YouTube: "https://www.youtube.com/watch?v=4aZr5hZXP_s",
		},
		{
			ID:           "52959",
			Name:         "Baked salmon with fennel & tomatoes",
			Category:     "Seafood",
			Area:         "British",
			Instructions: "Heat oven to 180C.\nPut the fennel into a roasting tin and roast for 10 mins.\nAdd the salmon and tomatoes and roast for 10 more mins.",
			Thumbnail:    "https://www.themealdb.com/images/media/meals/1548772327.jpg",
			Ingredients: []types.Ingredient{
				{Name: "Fennel", Measure: "2 medium"},
				{Name: "Parsley", Measure: "2 tbs chopped"},
				{Name: "Salmon", Measure: "2 fillets"},
				{Name: "Black Olives"},
			},
			Tags: []string{"Paleo", "Keto"},
		},
		{
			ID:           "52893",
			Name:         "Apple & Blackberry Crumble",
			Category:     "Dessert",
			Area:         "British",
			Instructions: "Heat oven to 190C.\nRub the butter into the flour, then stir in the sugar.\nScatter the crumble over the fruit and bake for 40 mins.",
			Thumbnail:    "https://www.themealdb.com/images/media/meals/xvsurr1511719182.jpg",
			Ingredients: []types.Ingredient{
				{Name: "Plain Flour", Measure: "120g"},
				{Name: "Caster Sugar", Measure: "60g"},
				{Name: "Butter", Measure: "60g"},
				{Name: "Blackberries", Measure: "300g"},
			},
			Source: "https://www.bbcgoodfood.com/recipes/778642/apple-and-blackberry-crumble",
		},
		{
			ID:           "52795",
			Name:         "Chicken Handi",
			Category:     "Chicken",
			Area:         "Indian",
			Instructions: "Heat oil in a handi.\nAdd onions and fry until golden.\nAdd chicken and spices and simmer until cooked.",
			Thumbnail:    "https://www.themealdb.com/images/media/meals/wyxwsp1486979827.jpg",
			Ingredients: []types.Ingredient{
				{Name: "Chicken", Measure: "1.2 kg"},
				{Name: "Onion", Measure: "5 thinly sliced"},
				{Name: "Garam masala", Measure: "1 tsp"},
			},
		},
	}
}
