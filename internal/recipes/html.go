package recipes

import (
	"html/template"
	"io"
	"net/http"

	"recipefinder/internal/favorites"
	"recipefinder/internal/recipes/types"
	"recipefinder/internal/templates"
)

type homeData struct {
	Page       templates.Page
	Query      string
	Category   string
	Categories []types.Category
	Heading    string
	Recipes    []types.RecipeSummary
	Searched   bool
	Error      string
}

type recipeData struct {
	Page   templates.Page
	Recipe types.RecipeDetail
	Button favorites.ButtonState
}

type notFoundData struct {
	Page    templates.Page
	Message string
}

// FormatHomeHTML renders the search/browse page.
func FormatHomeHTML(data homeData, w io.Writer) error {
	return templates.Home.Execute(w, data)
}

// FormatRecipeHTML renders a single recipe with its favorite toggle.
func FormatRecipeHTML(data recipeData, w io.Writer) error {
	return templates.Recipe.Execute(w, data)
}

func writePage(w http.ResponseWriter, status int, tmpl *template.Template, data any) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.Execute(w, data)
}
