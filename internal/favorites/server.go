package favorites

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"recipefinder/internal/recipes/types"
	"recipefinder/internal/resolver"
	"recipefinder/internal/templates"
)

type resolverAPI interface {
	Resolve(ctx context.Context, ids []string) resolver.Result
}

type server struct {
	manager     *Manager
	binding     *Binding
	resolver    resolverAPI
	hub         *Hub
	unsubscribe func()
}

// NewHandler serves the favorites page, the toggle endpoint and the live update socket.
func NewHandler(manager *Manager, binding *Binding, resolver resolverAPI) *server {
	hub := NewHub(manager.Snapshot)
	return &server{
		manager:     manager,
		binding:     binding,
		resolver:    resolver,
		hub:         hub,
		unsubscribe: manager.Subscribe(hub.Broadcast),
	}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /favorites", s.handleFavorites)
	mux.HandleFunc("GET /favorites.json", s.handleFavoritesJSON)
	mux.HandleFunc("POST /favorites/{id}/toggle", s.handleToggle)
	mux.HandleFunc("POST /favorites/clear", s.handleClear)
	mux.Handle("GET /favorites/live", s.hub)
}

// Close stops live updates and disconnects websocket clients.
func (s *server) Close() {
	s.unsubscribe()
	s.hub.Close()
}

func (s *server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res := s.resolver.Resolve(ctx, s.manager.All())

	data := struct {
		Page    templates.Page
		Recipes []types.RecipeDetail
		Missing int
	}{
		Page:    s.binding.Page(w, r, "Favorites"),
		Recipes: res.Recipes,
		Missing: len(res.Missing),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Favorites.Execute(w, data); err != nil {
		slog.ErrorContext(ctx, "favorites template execute error", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func (s *server) handleFavoritesJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write([]byte(encodeIDs(s.manager.All()))); err != nil {
		slog.ErrorContext(r.Context(), "failed to write favorites json", "error", err)
	}
}

func (s *server) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		http.Error(w, "recipe id is required", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))

	button, note := s.binding.Toggle(ctx, id, name)

	if wantsJSON(r) {
		writeJSON(w, r, ToggleResult{ID: id, Favorite: button.Favorite, Count: s.manager.Count(), Message: note.Message})
		return
	}
	if r.Header.Get("HX-Request") != "true" {
		setFlash(w, note)
		http.Redirect(w, r, returnPath(r.FormValue("return"), id), http.StatusSeeOther)
		return
	}

	trigger, err := json.Marshal(map[string]Notification{"notify": note})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode notification", "error", err)
	} else {
		w.Header().Set("HX-Trigger", string(trigger))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.FavoriteButton.Execute(w, button); err != nil {
		slog.ErrorContext(ctx, "favorite button template execute error", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// ToggleResult is the JSON answer to a toggle from a non-browser client.
type ToggleResult struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
	Count    int    `json:"count"`
	Message  string `json:"message"`
}

// ClearResult is the JSON answer to a clear.
type ClearResult struct {
	Removed int `json:"removed"`
}

func (s *server) handleClear(w http.ResponseWriter, r *http.Request) {
	removed := s.manager.Clear(r.Context())
	if wantsJSON(r) {
		writeJSON(w, r, ClearResult{Removed: removed})
		return
	}
	setFlash(w, Notification{Level: LevelInfo, Message: "Favorites cleared."})
	http.Redirect(w, r, "/favorites", http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "failed to write json response", "error", err)
	}
}

// returnPath keeps redirects on this site.
func returnPath(requested, id string) string {
	if strings.HasPrefix(requested, "/") && !strings.HasPrefix(requested, "//") && !strings.Contains(requested, `\`) {
		return requested
	}
	return "/recipe/" + url.PathEscape(id)
}
