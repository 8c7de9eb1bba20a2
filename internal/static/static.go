package static

import (
	"crypto/sha256"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
)

//go:embed app.css
var appCSS []byte

//go:embed app.js
var appJS []byte

var (
	StylesheetPath string
	ScriptPath     string
)

// Init derives content-hashed asset paths so they can be cached forever.
func Init() {
	StylesheetPath = hashedPath("app", "css", appCSS)
	ScriptPath = hashedPath("app", "js", appJS)
}

func hashedPath(name, ext string, content []byte) string {
	sum := fmt.Sprintf("%x", sha256.Sum256(content))
	return fmt.Sprintf("/static/%s.%s.%s", name, sum[:12], ext)
}

// Register serves the embedded assets. Init must run first.
func Register(mux *http.ServeMux) {
	mux.HandleFunc(StylesheetPath, asset("text/css; charset=utf-8", appCSS))
	mux.HandleFunc(ScriptPath, asset("application/javascript; charset=utf-8", appJS))
}

func asset(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		if _, err := w.Write(body); err != nil {
			slog.ErrorContext(r.Context(), "failed to write static asset", "path", r.URL.Path, "error", err)
		}
	}
}
