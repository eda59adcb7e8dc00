// Package scryfall is a small client for the Scryfall card API.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/deck-budget/internal/version"
)

const (
	DefaultBaseURL = "https://api.scryfall.com"
	rateLimitDelay = 100 * time.Millisecond // 100ms between requests (10 req/sec)
	requestTimeout = 10 * time.Second
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
	maxSearchPages = 10
)

// Client represents a Scryfall API client with rate limiting.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	userAgent   string
	maxRetries  int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (tests, mirrors).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets the minimum delay between requests.
func WithRateLimit(interval time.Duration) Option {
	return func(c *Client) {
		if interval <= 0 {
			c.rateLimiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.rateLimiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithMaxRetries sets how often rate limited (429) or failed requests are
// retried. The default is no retry.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = max(n, 0)
	}
}

// NewClient creates a new Scryfall API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		// Rate limiter: 1 request per 100ms = 10 req/sec
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		baseURL:     DefaultBaseURL,
		userAgent:   "deck-budget/" + version.GetVersion(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchPrints returns every printing of the card with exactly this name.
// A name Scryfall doesn't know yields no printings and no error.
func (c *Client) SearchPrints(ctx context.Context, name string) ([]Card, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("!%q", name))
	params.Set("unique", "prints")
	next := fmt.Sprintf("%s/cards/search?%s", c.baseURL, params.Encode())

	cards := make([]Card, 0)
	for page := 0; next != "" && page < maxSearchPages; page++ {
		var result SearchResult
		if err := c.doRequest(ctx, next, &result); err != nil {
			if IsNotFound(err) {
				return cards, nil
			}
			return nil, fmt.Errorf("failed to search prints of '%s': %w", name, err)
		}

		cards = append(cards, result.Data...)
		next = ""
		if result.HasMore {
			next = result.NextPage
		}
	}

	return cards, nil
}

// GetCardByName retrieves the default printing of a card by exact name.
func (c *Client) GetCardByName(ctx context.Context, name string) (*Card, error) {
	params := url.Values{}
	params.Set("exact", name)
	u := fmt.Sprintf("%s/cards/named?%s", c.baseURL, params.Encode())

	var card Card
	if err := c.doRequest(ctx, u, &card); err != nil {
		return nil, fmt.Errorf("failed to get card '%s': %w", name, err)
	}

	return &card, nil
}

// doRequest performs an HTTP GET with rate limiting and optional retries.
func (c *Client) doRequest(ctx context.Context, url string, result interface{}) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		retryAfter, err := c.do(ctx, url, result)
		if err == nil {
			return nil
		}
		if retryAfter < 0 {
			return err
		}

		lastErr = err
		if attempt == c.maxRetries {
			break
		}

		wait := backoff
		if retryAfter > 0 {
			wait = retryAfter
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		backoff = min(backoff*2, maxBackoff)
	}

	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// do executes a single request. A non-negative retryAfter marks the error
// as retryable; zero means "use the backoff".
func (c *Client) do(ctx context.Context, url string, result interface{}) (retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return -1, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return -1, fmt.Errorf("failed to read response body: %w", err)
		}
		if err := json.Unmarshal(body, result); err != nil {
			return -1, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return 0, nil

	case http.StatusTooManyRequests:
		if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second, fmt.Errorf("rate limited (HTTP 429)")
		}
		return 0, fmt.Errorf("rate limited (HTTP 429)")

	case http.StatusNotFound:
		return -1, &NotFoundError{URL: url}

	default:
		body, _ := io.ReadAll(resp.Body)

		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Details != "" {
			return -1, &apiErr
		}

		return -1, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
}
