package source

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
	"golang.org/x/time/rate"

	"github.com/hyperengineering/healthcache/internal/record"
)

// Compile-time interface check
var _ Source = (*HTTPSource)(nil)

// HTTPConfig configures an HTTPSource.
type HTTPConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// RequestsPerSecond caps the request rate to the provider. Zero means
	// unlimited.
	RequestsPerSecond float64
}

// HTTPSource reads from a provider bridge that exposes records and the change
// stream over REST:
//
//	GET  /records/{kind}?until={epoch}&page_token={t}
//	POST /changes/token   {"kinds": [...]}
//	GET  /changes?token={t}
type HTTPSource struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPSource creates a source for the bridge at cfg.BaseURL.
func NewHTTPSource(cfg HTTPConfig) (*HTTPSource, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("source base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse source base URL: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &HTTPSource{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}, nil
}

type bulkPage struct {
	Records       []BulkRecord `json:"records"`
	NextPageToken string       `json:"next_page_token"`
}

// ReadBulk follows page tokens until the provider reports no more pages.
func (s *HTTPSource) ReadBulk(ctx context.Context, kind record.Kind, until time.Time) ([]BulkRecord, error) {
	var out []BulkRecord
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("until", strconv.FormatInt(until.Unix(), 10))
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}

		var page bulkPage
		path := "/records/" + url.PathEscape(string(kind)) + "?" + q.Encode()
		if err := s.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("read %s: %w", kind, err)
		}
		out = append(out, page.Records...)

		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

// GetChangeToken requests a change token covering kinds.
func (s *HTTPSource) GetChangeToken(ctx context.Context, kinds []record.Kind) (string, error) {
	body := struct {
		Kinds []record.Kind `json:"kinds"`
	}{Kinds: kinds}

	var resp struct {
		Token string `json:"token"`
	}
	if err := s.do(ctx, http.MethodPost, "/changes/token", body, &resp); err != nil {
		return "", fmt.Errorf("get change token: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("get change token: %w: empty token", ErrUnavailable)
	}
	return resp.Token, nil
}

// PollChanges returns one page of changes after token.
func (s *HTTPSource) PollChanges(ctx context.Context, token string) (*ChangeBatch, error) {
	var batch ChangeBatch
	path := "/changes?" + url.Values{"token": {token}}.Encode()
	if err := s.do(ctx, http.MethodGet, path, nil, &batch); err != nil {
		return nil, fmt.Errorf("poll changes: %w", err)
	}
	return &batch, nil
}

// do sends an authenticated request and decodes a JSON response into out.
func (s *HTTPSource) do(ctx context.Context, method, path string, body, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

// statusError maps provider status codes onto the source error taxonomy.
func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(detail))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
	case resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: %s", ErrTokenExpired, msg)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, msg)
	default:
		return fmt.Errorf("source request failed: status %d: %s", resp.StatusCode, msg)
	}
}
