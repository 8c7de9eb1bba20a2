package favorites

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"recipefinder/internal/templates"
)

const flashCookie = "flash"

// setFlash carries a notification across the redirect that follows a plain form post.
func setFlash(w http.ResponseWriter, n Notification) {
	b, err := json.Marshal(templates.Toast{Level: string(n.Level), Message: n.Message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending notification, if any, and expires the cookie.
func popFlash(w http.ResponseWriter, r *http.Request) *templates.Toast {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	b, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var toast templates.Toast
	if err := json.Unmarshal(b, &toast); err != nil || toast.Message == "" {
		return nil
	}
	return &toast
}

// Page builds the shared layout data for a request, consuming any pending flash.
func (b *Binding) Page(w http.ResponseWriter, r *http.Request, title string) templates.Page {
	return templates.Page{
		Title:         title,
		FavoriteCount: b.favorites.Count(),
		Flash:         popFlash(w, r),
	}
}
