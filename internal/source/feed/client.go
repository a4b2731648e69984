// Package feed loads the activity catalog from an HTTP JSON feed.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/source"
)

// document is the JSON body served by a catalog feed.
type document struct {
	Events []model.VolunteerEvent `json:"events"`
}

// errorResponse is the error body a feed may return.
type errorResponse struct {
	Message string `json:"message"`
}

// Source fetches events from a feed URL. It handles Bearer token
// authentication and automatic retry with exponential backoff on HTTP 429.
type Source struct {
	url        string
	token      string
	httpClient *http.Client
	maxRetries int
	maxBackoff time.Duration
}

var _ source.Source = (*Source)(nil)

// Option configures a feed Source.
type Option func(*Source)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) { s.httpClient = c }
}

// WithMaxBackoff caps the wait between retries.
func WithMaxBackoff(d time.Duration) Option {
	return func(s *Source) { s.maxBackoff = d }
}

// New creates a feed source. An empty token sends no Authorization header.
func New(url, token string, opts ...Option) *Source {
	s := &Source{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
		maxBackoff: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Kind() source.Kind { return source.KindFeed }

// Load fetches the feed. Event contents are validated by the catalog.
func (s *Source) Load(ctx context.Context) ([]model.VolunteerEvent, error) {
	var doc document
	if err := s.get(ctx, &doc); err != nil {
		return nil, err
	}
	return doc.Events, nil
}

// get performs the GET request, retrying on 429, and decodes the JSON body.
func (s *Source) get(ctx context.Context, result interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetching feed %s: %w", s.url, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429) on %s", s.url)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryAfter(resp, attempt)):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return &source.AuthError{
				Kind:    source.KindFeed,
				Message: fmt.Sprintf("feed %s rejected the token (%d)", s.url, resp.StatusCode),
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var feedErr errorResponse
			if json.Unmarshal(body, &feedErr) == nil && feedErr.Message != "" {
				return fmt.Errorf("feed error (%d) on %s: %s", resp.StatusCode, s.url, feedErr.Message)
			}
			return fmt.Errorf("unexpected status %d on %s: %s", resp.StatusCode, s.url, string(body))
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshaling feed %s: %w", s.url, err)
		}
		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", s.maxRetries, lastErr)
}

// retryAfter reads the Retry-After header and computes a wait duration.
// Falls back to exponential backoff if the header is missing.
func (s *Source) retryAfter(resp *http.Response, attempt int) time.Duration {
	wait := time.Duration(1<<uint(attempt)) * time.Second
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			wait = time.Duration(seconds) * time.Second
		}
	}
	if wait > s.maxBackoff {
		wait = s.maxBackoff
	}
	return wait
}
