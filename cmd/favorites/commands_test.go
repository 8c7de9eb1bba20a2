package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipefinder/internal/cache"
	"recipefinder/internal/favorites"
	"recipefinder/internal/kvstore"
	"recipefinder/internal/mealdb"
	"recipefinder/internal/resolver"
)

const testKey = "favorite-recipes-storage"

type testServer struct {
	url     string
	manager *favorites.Manager
	load    depsLoader
}

// startServer runs the favorites endpoints over store the way recipefinder -serve does.
func startServer(t *testing.T, store *kvstore.Store) *testServer {
	t.Helper()
	ctx := context.Background()
	manager := favorites.New(ctx, store, testKey)
	res := resolver.New(mealdb.NewMock(), 0)
	handler := favorites.NewHandler(manager, favorites.NewBinding(manager), res)
	t.Cleanup(handler.Close)

	mux := http.NewServeMux()
	handler.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testServer{
		url:     srv.URL,
		manager: manager,
		load: func(_ context.Context, serverURL string) (*deps, error) {
			if serverURL == "" {
				serverURL = srv.URL
			}
			return &deps{
				favorites: newServerClient(serverURL, srv.Client()),
				resolver:  res,
			}, nil
		},
	}
}

func run(t *testing.T, load depsLoader, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(load)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestToggleListAndShow(t *testing.T) {
	t.Parallel()
	ts := startServer(t, kvstore.New(cache.NewInMemoryCache()))

	out, _, err := run(t, ts.load, "toggle", "52772")
	require.NoError(t, err)
	assert.Equal(t, "added 52772\n", out)

	_, _, err = run(t, ts.load, "toggle", "000000")
	require.NoError(t, err)

	out, _, err = run(t, ts.load, "list")
	require.NoError(t, err)
	assert.Equal(t, "52772\n000000\n", out)

	out, _, err = run(t, ts.load, "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, `["52772","000000"]`, strings.TrimSpace(out))

	out, errOut, err := run(t, ts.load, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "52772\tTeriyaki Chicken Casserole\tChicken")
	assert.Contains(t, errOut, "1 favorites could not be loaded")

	out, _, err = run(t, ts.load, "toggle", "52772")
	require.NoError(t, err)
	assert.Equal(t, "removed 52772\n", out)
}

// A CLI toggle and a page toggle must both survive: the server's manager owns every write.
func TestCommandLineAndPageTogglesShareOneOwner(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ts := startServer(t, kvstore.New(cache.NewFileCache(dir)))

	_, _, err := run(t, ts.load, "toggle", "52772")
	require.NoError(t, err)
	assert.True(t, ts.manager.IsFavorite("52772"), "server sees the command line change")

	ts.manager.Toggle(context.Background(), "52959")

	out, _, err := run(t, ts.load, "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, `["52772","52959"]`, strings.TrimSpace(out))

	// a fresh process rehydrates both
	restarted := favorites.New(context.Background(), kvstore.New(cache.NewFileCache(dir)), testKey)
	assert.Equal(t, []string{"52772", "52959"}, restarted.All())
}

func TestClearRequiresConfirmation(t *testing.T) {
	t.Parallel()
	ts := startServer(t, kvstore.New(cache.NewInMemoryCache()))
	_, _, err := run(t, ts.load, "toggle", "1")
	require.NoError(t, err)

	_, _, err = run(t, ts.load, "clear")
	assert.Error(t, err)
	assert.Equal(t, 1, ts.manager.Count())

	out, _, err := run(t, ts.load, "clear", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "cleared 1 favorites\n", out)
	assert.Zero(t, ts.manager.Count())

	out, _, err = run(t, ts.load, "list", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestToggleRequiresID(t *testing.T) {
	t.Parallel()
	ts := startServer(t, kvstore.New(cache.NewInMemoryCache()))
	_, _, err := run(t, ts.load, "toggle")
	assert.Error(t, err)
}

func TestServerErrorsAreReported(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)
	load := func(context.Context, string) (*deps, error) {
		return &deps{favorites: newServerClient(srv.URL, srv.Client())}, nil
	}

	_, _, err := run(t, load, "toggle", "52772")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server returned 400")
}
