package recipes

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"recipefinder/internal/favorites"
	"recipefinder/internal/mealdb"
	"recipefinder/internal/templates"
)

const defaultHeading = "Popular recipes"

type server struct {
	api     mealdb.API
	binding *favorites.Binding
}

// NewHandler serves search, browse, random and recipe detail pages.
func NewHandler(api mealdb.API, binding *favorites.Binding) *server {
	return &server{api: api, binding: binding}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /random", s.handleRandom)
	mux.HandleFunc("GET /recipe/{id}", s.handleRecipe)
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	data := homeData{
		Page:     s.binding.Page(w, r, ""),
		Query:    query,
		Category: category,
		Heading:  defaultHeading,
	}

	categories, err := s.api.Categories(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load categories", "error", err)
	}
	data.Categories = categories

	var searchErr error
	switch {
	case query != "":
		data.Searched = true
		data.Heading = fmt.Sprintf("Results for %q", query)
		data.Page.Title = query
		if data.Recipes, searchErr = s.api.Search(ctx, query); searchErr != nil {
			slog.ErrorContext(ctx, "failed to search recipes", "query", query, "error", searchErr)
		}
	case category != "":
		data.Searched = true
		data.Heading = fmt.Sprintf("Recipes in %q", category)
		data.Page.Title = category
		if data.Recipes, searchErr = s.api.FilterByCategory(ctx, category); searchErr != nil {
			slog.ErrorContext(ctx, "failed to filter recipes", "category", category, "error", searchErr)
		}
	}
	if searchErr != nil {
		data.Error = "We could not load recipes right now. Please try again."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := FormatHomeHTML(data, w); err != nil {
		slog.ErrorContext(ctx, "home template execute error", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (s *server) handleRandom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recipe, err := s.api.Random(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch random recipe", "error", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/recipe/"+url.PathEscape(recipe.ID), http.StatusSeeOther)
}

func (s *server) handleRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := strings.TrimSpace(r.PathValue("id"))
	page := s.binding.Page(w, r, "")

	recipe, err := s.api.Lookup(ctx, id)
	if err != nil {
		status, message := http.StatusNotFound, "Recipe not found"
		if !errors.Is(err, mealdb.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to load recipe", "id", id, "error", err)
			status, message = http.StatusBadGateway, "We could not load this recipe right now"
		}
		page.Title = message
		if err := writePage(w, status, templates.NotFound, notFoundData{Page: page, Message: message}); err != nil {
			slog.ErrorContext(ctx, "not found template execute error", "error", err)
		}
		return
	}

	page.Title = recipe.Name
	data := recipeData{
		Page:   page,
		Recipe: *recipe,
		Button: s.binding.State(recipe.ID, recipe.Name),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := FormatRecipeHTML(data, w); err != nil {
		slog.ErrorContext(ctx, "recipe template execute error", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
