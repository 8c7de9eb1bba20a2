package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"recipefinder/internal/favorites"
)

const maxResponseBytes = 1 << 20

// serverClient edits favorites through the running server so its Manager stays the only
// writer of the stored set.
type serverClient struct {
	baseURL string
	http    *retryablehttp.Client
}

func newServerClient(baseURL string, httpClient *http.Client) *serverClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = slog.Default()
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &serverClient{baseURL: strings.TrimRight(baseURL, "/"), http: rc}
}

func (c *serverClient) List(ctx context.Context) ([]string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/favorites.json", nil)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := c.do(req, "list", c.http.Do, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *serverClient) Toggle(ctx context.Context, id string) (favorites.ToggleResult, error) {
	var res favorites.ToggleResult
	err := c.post(ctx, "toggle", "/favorites/"+url.PathEscape(id)+"/toggle", &res)
	return res, err
}

func (c *serverClient) Clear(ctx context.Context) (int, error) {
	var res favorites.ClearResult
	err := c.post(ctx, "clear", "/favorites/clear", &res)
	return res.Removed, err
}

// post is sent once: a retried toggle could flip the favorite back.
func (c *serverClient) post(ctx context.Context, op, path string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	once := func(req *retryablehttp.Request) (*http.Response, error) {
		return c.http.HTTPClient.Do(req.Request)
	}
	return c.do(req, op, once, out)
}

func (c *serverClient) do(req *retryablehttp.Request, op string, send func(*retryablehttp.Request) (*http.Response, error), out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := send(req)
	if err != nil {
		return fmt.Errorf("%s: is the server running at %s? %w", op, c.baseURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s: server returned %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}
