package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"golang.org/x/net/html"

	"recipefinder/internal/cache"
	"recipefinder/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Mocks:     config.MockConfig{Enable: true},
		Favorites: config.FavoritesConfig{Key: config.DefaultFavoritesKey},
	}
}

func newTestServer(t *testing.T, backend cache.Cache) *httptest.Server {
	t.Helper()
	a, err := buildApp(context.Background(), testConfig(), backend)
	if err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	srv := httptest.NewServer(a.handler)
	t.Cleanup(func() {
		srv.Close()
		a.close()
	})
	return srv
}

func TestWebEndToEndFavoritesFlow(t *testing.T) {
	backend := cache.NewFileCache(t.TempDir())
	srv := newTestServer(t, backend)
	client := &http.Client{}

	resp := mustGet(t, client, srv.URL+"/ready")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected /ready to return 200 OK, got %d", resp.StatusCode)
	}

	// Step 1: search and pick the first recipe card.
	searchBody := mustGetHTML(t, client, srv.URL+"/?q=chicken")
	links := extractRecipeLinks(t, searchBody)
	if len(links) != 2 {
		t.Fatalf("expected 2 chicken recipes, got %v", links)
	}
	recipePath := links[0]
	recipeID := strings.TrimPrefix(recipePath, "/recipe/")

	// Step 2: the detail page starts unfavorited.
	detail := mustGetHTML(t, client, srv.URL+recipePath)
	if !strings.Contains(detail, `aria-pressed="false"`) {
		t.Fatalf("expected unfavorited button on %s", recipePath)
	}
	name := extractHiddenValue(t, detail, "name")

	// Step 3: toggle through HTMX.
	fragment, trigger := htmxToggle(t, client, srv.URL, recipeID, name)
	if !strings.Contains(fragment, `aria-pressed="true"`) {
		t.Fatalf("expected favorited fragment, got %s", fragment)
	}
	if !strings.Contains(trigger, "saved to favorites!") {
		t.Fatalf("expected success notification, got %q", trigger)
	}

	// Step 4: the favorites page resolves it and the header count updated.
	favoritesBody := mustGetHTML(t, client, srv.URL+"/favorites")
	if got := extractRecipeLinks(t, favoritesBody); len(got) != 1 || got[0] != recipePath {
		t.Fatalf("expected favorites page to list %s, got %v", recipePath, got)
	}
	if !strings.Contains(favoritesBody, "data-favorite-count>1<") {
		t.Fatalf("expected favorite count badge of 1")
	}

	// Step 5: a restarted process rehydrates from the same store.
	restarted := newTestServer(t, backend)
	var ids []string
	if err := json.Unmarshal([]byte(mustGetBody(t, client, restarted.URL+"/favorites.json")), &ids); err != nil {
		t.Fatalf("invalid favorites json: %v", err)
	}
	if len(ids) != 1 || ids[0] != recipeID {
		t.Fatalf("expected rehydrated favorites [%s], got %v", recipeID, ids)
	}

	// Step 6: toggling again removes it and the page falls back to the empty state.
	fragment, trigger = htmxToggle(t, client, restarted.URL, recipeID, name)
	if !strings.Contains(fragment, `aria-pressed="false"`) || !strings.Contains(trigger, "removed from favorites.") {
		t.Fatalf("expected unfavorited fragment, got %s / %q", fragment, trigger)
	}
	if body := mustGetHTML(t, client, restarted.URL+"/favorites"); !strings.Contains(body, "You have not saved any favorite recipes yet.") {
		t.Fatalf("expected empty favorites page")
	}

	metrics := mustGetBody(t, client, srv.URL+"/metrics")
	if !strings.Contains(metrics, "recipefinder_favorite_toggles_total") {
		t.Fatalf("expected favorite toggle metric to be exported")
	}
}

func TestPlainFormToggleRedirectsWithFlash(t *testing.T) {
	srv := newTestServer(t, cache.NewInMemoryCache())
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}

	resp, err := client.PostForm(srv.URL+"/favorites/52893/toggle", url.Values{"name": {"Apple & Blackberry Crumble"}})
	if err != nil {
		t.Fatalf("POST toggle failed: %v", err)
	}
	body := readAll(t, resp.Body)
	_ = resp.Body.Close()

	if resp.Request.URL.Path != "/recipe/52893" {
		t.Fatalf("expected to land on recipe page, got %s", resp.Request.URL.Path)
	}
	if !strings.Contains(body, "toast-success") || !strings.Contains(body, "saved to favorites!") {
		t.Fatalf("expected flash toast on recipe page")
	}

	// the flash is shown once
	if again := mustGetBody(t, client, srv.URL+"/recipe/52893"); strings.Contains(again, "saved to favorites!") {
		t.Fatalf("expected flash to be consumed")
	}
}

func TestUnknownRecipeIs404(t *testing.T) {
	srv := newTestServer(t, cache.NewInMemoryCache())
	resp := mustGet(t, &http.Client{}, srv.URL+"/recipe/000000")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestLiveUpdatesThroughMiddleware(t *testing.T) {
	srv := newTestServer(t, cache.NewInMemoryCache())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, br, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/favorites/live")
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()
	var r io.Reader = conn
	if br != nil {
		r = io.MultiReader(br, conn)
	}
	rw := struct {
		io.Reader
		io.Writer
	}{r, conn}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := wsutil.ReadServerText(rw); err != nil {
		t.Fatalf("expected initial update: %v", err)
	}

	htmxToggle(t, &http.Client{}, srv.URL, "52772", "Teriyaki Chicken Casserole")

	msg, err := wsutil.ReadServerText(rw)
	if err != nil {
		t.Fatalf("expected broadcast after toggle: %v", err)
	}
	var update struct {
		Count int      `json:"count"`
		IDs   []string `json:"ids"`
	}
	if err := json.Unmarshal(msg, &update); err != nil {
		t.Fatalf("invalid update %q: %v", msg, err)
	}
	if update.Count != 1 || len(update.IDs) != 1 || update.IDs[0] != "52772" {
		t.Fatalf("unexpected update %#v", update)
	}
}

func htmxToggle(t *testing.T, client *http.Client, base, id, name string) (string, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, base+"/favorites/"+url.PathEscape(id)+"/toggle", strings.NewReader(url.Values{"name": {name}}.Encode()))
	if err != nil {
		t.Fatalf("failed to build toggle request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected toggle to return 200, got %d", resp.StatusCode)
	}
	return readAll(t, resp.Body), resp.Header.Get("HX-Trigger")
}

func mustGet(t *testing.T, client *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	return resp
}

func mustGetBody(t *testing.T, client *http.Client, url string) string {
	t.Helper()
	resp := mustGet(t, client, url)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s expected 200, got %d", url, resp.StatusCode)
	}
	return readAll(t, resp.Body)
}

func mustGetHTML(t *testing.T, client *http.Client, url string) string {
	t.Helper()
	resp := mustGet(t, client, url)
	defer resp.Body.Close()
	body := readAll(t, resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s expected 200, got %d", url, resp.StatusCode)
	}
	requireValidHTML(t, url, resp.Header.Get("Content-Type"), body)
	return body
}

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(data)
}

func requireValidHTML(t *testing.T, url, contentType, body string) {
	t.Helper()
	if contentType != "" && !strings.Contains(strings.ToLower(contentType), "text/html") {
		t.Fatalf("GET %s expected HTML content-type, got %q", url, contentType)
	}
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("GET %s returned invalid HTML: %v", url, err)
	}
	if findAll(doc, func(n *html.Node) bool { return n.Data == "body" }) == nil {
		t.Fatalf("GET %s expected HTML body element", url)
	}
}

// extractRecipeLinks returns the hrefs of recipe cards in document order.
func extractRecipeLinks(t *testing.T, body string) []string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to parse html: %v", err)
	}
	var links []string
	for _, n := range findAll(doc, func(n *html.Node) bool { return n.Data == "a" && attr(n, "class") == "card" }) {
		links = append(links, attr(n, "href"))
	}
	return links
}

func extractHiddenValue(t *testing.T, body, name string) string {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to parse html: %v", err)
	}
	inputs := findAll(doc, func(n *html.Node) bool { return n.Data == "input" && attr(n, "name") == name })
	if len(inputs) == 0 {
		t.Fatalf("expected hidden input %q in page", name)
	}
	return attr(inputs[0], "value")
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	if n.Type == html.ElementNode && match(n) {
		found = append(found, n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		found = append(found, findAll(child, match)...)
	}
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
