package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var htmlFiles embed.FS

var Home,
	Recipe,
	Favorites,
	NotFound,
	FavoriteButton *template.Template

// Toast is a notification rendered into the page on load, e.g. after a non-HTMX toggle.
type Toast struct {
	Level   string
	Message string
}

// Page carries what the shared layout needs on every page.
type Page struct {
	Title         string
	FavoriteCount int
	Flash         *Toast
}

func Init(stylesheetPath, scriptPath string) error {
	funcs := template.FuncMap{
		"StylesheetPath": func() string { return stylesheetPath },
		"ScriptPath":     func() string { return scriptPath },
	}
	tmpls, err := template.New("all").Funcs(funcs).ParseFS(htmlFiles, "*.html")
	if err != nil {
		return err
	}
	Home = ensure(tmpls, "home.html")
	Recipe = ensure(tmpls, "recipe.html")
	Favorites = ensure(tmpls, "favorites.html")
	NotFound = ensure(tmpls, "notfound.html")
	FavoriteButton = ensure(tmpls, "favorite_button")
	return nil
}

func ensure(templates *template.Template, name string) *template.Template {
	tmpl := templates.Lookup(name)
	if tmpl == nil {
		panic("template " + name + " not found")
	}
	return tmpl
}
