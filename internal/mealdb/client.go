// Package mealdb talks to TheMealDB's public JSON API.
package mealdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"recipefinder/internal/config"
	"recipefinder/internal/recipes/types"
	"recipefinder/internal/telemetry"
)

const (
	// DefaultBaseURL is the free developer key endpoint.
	DefaultBaseURL = "https://www.themealdb.com/api/json/v1/1"

	maxResponseBytes = 2 << 20
)

// API is the subset of TheMealDB the app uses.
type API interface {
	Lookup(ctx context.Context, id string) (*types.RecipeDetail, error)
	Search(ctx context.Context, term string) ([]types.RecipeSummary, error)
	FilterByCategory(ctx context.Context, category string) ([]types.RecipeSummary, error)
	Categories(ctx context.Context) ([]types.Category, error)
	Random(ctx context.Context) (*types.RecipeSummary, error)
}

type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

var _ API = (*Client)(nil)

// New returns the offline mock when mocks are enabled, otherwise an HTTP client.
func New(cfg *config.Config) API {
	if cfg.Mocks.Enable {
		slog.Info("using mock recipe catalogue")
		return NewMock()
	}
	return NewClient(cfg.MealDB)
}

func NewClient(cfg config.MealDBConfig) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = max(cfg.Retries, 0)
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = slog.Default()
	// hand the final response back so non-2xx becomes a StatusError instead of an opaque "giving up"
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    rc,
	}
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	ctx, span := telemetry.Tracer("mealdb").Start(ctx, "mealdb."+op)
	defer span.End()

	u := c.baseURL + "/" + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	span.SetAttributes(attribute.String("url", u))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("request %s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}
	span.SetAttributes(attribute.Int("status", resp.StatusCode))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		serr := &StatusError{Operation: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		span.SetStatus(codes.Error, serr.Error())
		return nil, serr
	}
	return body, nil
}

// Lookup fetches one recipe by id. ErrNotFound covers both an unknown id and a record
// too malformed to use.
func (c *Client) Lookup(ctx context.Context, id string) (*types.RecipeDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	body, err := c.get(ctx, "lookup", "lookup.php", url.Values{"i": {id}})
	if err != nil {
		return nil, err
	}
	details, err := parseDetails(body)
	if err != nil {
		return nil, fmt.Errorf("parse lookup response: %w", err)
	}
	if len(details) == 0 {
		return nil, ErrNotFound
	}
	return &details[0], nil
}

func (c *Client) Search(ctx context.Context, term string) ([]types.RecipeSummary, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	body, err := c.get(ctx, "search", "search.php", url.Values{"s": {term}})
	if err != nil {
		return nil, err
	}
	recipes, err := parseSummaries(body)
	if err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return recipes, nil
}

func (c *Client) FilterByCategory(ctx context.Context, category string) ([]types.RecipeSummary, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, nil
	}
	body, err := c.get(ctx, "filter", "filter.php", url.Values{"c": {category}})
	if err != nil {
		return nil, err
	}
	recipes, err := parseSummaries(body)
	if err != nil {
		return nil, fmt.Errorf("parse filter response: %w", err)
	}
	return recipes, nil
}

func (c *Client) Categories(ctx context.Context) ([]types.Category, error) {
	body, err := c.get(ctx, "categories", "list.php", url.Values{"c": {"list"}})
	if err != nil {
		return nil, err
	}
	categories, err := parseCategories(body)
	if err != nil {
		return nil, fmt.Errorf("parse categories response: %w", err)
	}
	return categories, nil
}

func (c *Client) Random(ctx context.Context) (*types.RecipeSummary, error) {
	body, err := c.get(ctx, "random", "random.php", nil)
	if err != nil {
		return nil, err
	}
	recipes, err := parseSummaries(body)
	if err != nil {
		return nil, fmt.Errorf("parse random response: %w", err)
	}
	if len(recipes) == 0 {
		return nil, ErrNotFound
	}
	return &recipes[0], nil
}

// Ready checks the collaborator answers a cheap request.
func Ready(ctx context.Context, api API) error {
	if _, err := api.Categories(ctx); err != nil {
		return fmt.Errorf("recipe api not ready: %w", err)
	}
	return nil
}
