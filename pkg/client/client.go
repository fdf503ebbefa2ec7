// Package client is a typed HTTP client for the healthcache API.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sethvargo/go-retry"

	"github.com/hyperengineering/healthcache/internal/types"
)

// Problem is an RFC 7807 error body returned by the server.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Problem    Problem
}

func (e *APIError) Error() string {
	if e.Problem.Detail != "" {
		return fmt.Sprintf("healthcache: %d %s: %s", e.StatusCode, e.Problem.Title, e.Problem.Detail)
	}
	return fmt.Sprintf("healthcache: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// Retries is how many times a GET is retried after a 503 or a transport
	// error. Zero disables retries.
	Retries int
}

// Client talks to one healthcache server.
type Client struct {
	baseURL string
	apiKey  string
	retries int
	http    *http.Client
}

// New creates a client. BaseURL is required.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		retries: cfg.Retries,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Health calls GET /api/v1/health.
func (c *Client) Health(ctx context.Context) (*types.HealthResponse, error) {
	return fetch[types.HealthResponse](ctx, c, "/api/v1/health")
}

// Kinds calls GET /api/v1/kinds.
func (c *Client) Kinds(ctx context.Context) (*types.KindsResponse, error) {
	return fetch[types.KindsResponse](ctx, c, "/api/v1/kinds")
}

// Latest calls GET /api/v1/kinds/{kind}/latest.
func (c *Client) Latest(ctx context.Context, kind string) (*types.PointResponse, error) {
	return fetch[types.PointResponse](ctx, c, "/api/v1/kinds/"+url.PathEscape(kind)+"/latest")
}

// Nutrition calls GET /api/v1/nutrition/{nutrient}.
func (c *Client) Nutrition(ctx context.Context, nutrient string) (*types.AggregateResponse, error) {
	return fetch[types.AggregateResponse](ctx, c, "/api/v1/nutrition/"+url.PathEscape(nutrient))
}

// Categories calls GET /api/v1/categories.
func (c *Client) Categories(ctx context.Context) (*types.CategoriesResponse, error) {
	return fetch[types.CategoriesResponse](ctx, c, "/api/v1/categories")
}

// Category calls GET /api/v1/categories/{category}.
func (c *Client) Category(ctx context.Context, category string) (*types.CategoryResponse, error) {
	return fetch[types.CategoryResponse](ctx, c, "/api/v1/categories/"+url.PathEscape(category))
}

// SyncStatus calls GET /api/v1/sync/status.
func (c *Client) SyncStatus(ctx context.Context) (*types.SyncStatusResponse, error) {
	return fetch[types.SyncStatusResponse](ctx, c, "/api/v1/sync/status")
}

// SyncRuns calls GET /api/v1/sync/runs. A limit of zero uses the server
// default.
func (c *Client) SyncRuns(ctx context.Context, limit int) (*types.SyncRunsResponse, error) {
	path := "/api/v1/sync/runs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	return fetch[types.SyncRunsResponse](ctx, c, path)
}

// SyncRun calls GET /api/v1/sync/runs/{id}.
func (c *Client) SyncRun(ctx context.Context, id string) (*types.SyncRun, error) {
	return fetch[types.SyncRun](ctx, c, "/api/v1/sync/runs/"+url.PathEscape(id))
}

// Sync calls POST /api/v1/sync. Mode is "auto", "backfill" or "reconcile";
// empty means auto. Triggers are never retried.
func (c *Client) Sync(ctx context.Context, mode string) (*types.SyncRun, error) {
	path := "/api/v1/sync"
	if mode != "" {
		path += "?mode=" + url.QueryEscape(mode)
	}
	var out types.SyncRun
	if err := c.do(ctx, http.MethodPost, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Snapshot calls GET /api/v1/snapshot on a server with object storage.
func (c *Client) Snapshot(ctx context.Context) (*types.SnapshotResponse, error) {
	return fetch[types.SnapshotResponse](ctx, c, "/api/v1/snapshot")
}

func fetch[T any](ctx context.Context, c *Client, path string) (*T, error) {
	var out T
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.retries <= 0 {
		return c.do(ctx, http.MethodGet, path, out)
	}
	b := retry.WithMaxRetries(uint64(c.retries), retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, out)
		if retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusServiceUnavailable
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, &apiErr.Problem)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
