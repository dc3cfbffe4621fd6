package seventeenlands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// APIBase is the base URL for 17Lands API
	APIBase = "https://www.17lands.com"

	// Request timeout
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the tool to 17Lands.
	DefaultUserAgent = "ArenaOverlay/0.1 (research tool)"
)

// Conservative rate limit: 1 request per second
var DefaultRateLimit = rate.Every(1 * time.Second)

// Client provides access to 17Lands draft statistics.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
	stats      *ClientStats
	statsMu    sync.RWMutex
}

// ClientOptions configures the 17Lands client.
type ClientOptions struct {
	// RateLimit controls request frequency (default: 1 req/second)
	RateLimit rate.Limit

	// Timeout for HTTP requests (default: 30 seconds)
	Timeout time.Duration

	// BaseURL overrides the API host (default: APIBase)
	BaseURL string

	// UserAgent sent with every request (default: DefaultUserAgent)
	UserAgent string

	// HTTPClient allows custom HTTP client
	HTTPClient *http.Client
}

// DefaultClientOptions returns conservative default options.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		RateLimit: DefaultRateLimit,
		Timeout:   DefaultTimeout,
		BaseURL:   APIBase,
		UserAgent: DefaultUserAgent,
	}
}

// NewClient creates a new 17Lands API client with conservative rate limiting.
func NewClient(options ClientOptions) *Client {
	if options.RateLimit == 0 {
		options.RateLimit = DefaultRateLimit
	}
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}
	if options.BaseURL == "" {
		options.BaseURL = APIBase
	}
	if options.UserAgent == "" {
		options.UserAgent = DefaultUserAgent
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: options.Timeout,
		}
	}

	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(options.RateLimit, 1),
		baseURL:    strings.TrimRight(options.BaseURL, "/"),
		userAgent:  options.UserAgent,
		stats:      &ClientStats{},
	}
}

// CardRatingsURL builds the card_ratings/data URL for params.
func (c *Client) CardRatingsURL(params QueryParams) string {
	queryParams := url.Values{}
	queryParams.Set("expansion", params.Expansion)
	queryParams.Set("format", params.Format)

	if params.StartDate != "" {
		queryParams.Set("start_date", params.StartDate)
	}
	if params.EndDate != "" {
		queryParams.Set("end_date", params.EndDate)
	}
	if params.Colors != "" {
		queryParams.Set("colors", params.Colors)
	}

	return fmt.Sprintf("%s/card_ratings/data?%s", c.baseURL, queryParams.Encode())
}

// FetchCardRatings downloads the raw card ratings payload for a set.
// The body is returned untouched so callers can cache it verbatim.
func (c *Client) FetchCardRatings(ctx context.Context, params QueryParams) ([]byte, error) {
	if params.Expansion == "" {
		return nil, &APIError{
			Type:    ErrInvalidParams,
			Message: "expansion is required",
		}
	}
	if params.Format == "" {
		return nil, &APIError{
			Type:    ErrInvalidParams,
			Message: "format is required",
		}
	}

	return c.doRequest(ctx, c.CardRatingsURL(params))
}

// ParseCardRatings decodes a card_ratings/data body.
func ParseCardRatings(body []byte) ([]CardRating, error) {
	var ratings []CardRating
	if err := json.Unmarshal(body, &ratings); err != nil {
		return nil, &APIError{
			Type:    ErrParseError,
			Message: "failed to parse card ratings response",
			Err:     err,
		}
	}
	return ratings, nil
}

// doRequest performs an HTTP GET with rate limiting. There is no retry: a
// failed slice is reported to the caller, which keeps its prior state.
func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{
			Type:    ErrRateLimited,
			Message: "rate limiter error",
			Err:     err,
		}
	}

	c.updateStats(func(s *ClientStats) {
		s.TotalRequests++
		s.LastRequestTime = time.Now()
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &APIError{
			Type:    ErrInvalidParams,
			Message: "failed to create request",
			Err:     err,
		}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(startTime)

	if err != nil {
		c.recordFailure()
		return nil, &APIError{
			Type:    ErrUnavailable,
			Message: "failed to execute request",
			Err:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.recordFailure()
		return nil, &APIError{
			Type:       ErrNotFound,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("no data at %s", url),
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.recordFailure()
		return nil, &APIError{
			Type:       ErrRateLimited,
			StatusCode: resp.StatusCode,
			Message:    "rate limited by 17Lands",
		}
	case resp.StatusCode != http.StatusOK:
		c.recordFailure()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			Type:       ErrUnavailable,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status code: %d, body: %s", resp.StatusCode, string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure()
		return nil, &APIError{
			Type:    ErrUnavailable,
			Message: "failed to read response body",
			Err:     err,
		}
	}

	c.recordSuccess(latency)

	return body, nil
}

// recordFailure records a failed request.
func (c *Client) recordFailure() {
	c.updateStats(func(s *ClientStats) {
		s.FailedRequests++
		s.LastFailureTime = time.Now()
		s.ConsecutiveErrors++
	})
}

// recordSuccess records a successful request.
func (c *Client) recordSuccess(latency time.Duration) {
	c.updateStats(func(s *ClientStats) {
		s.LastSuccessTime = time.Now()
		s.ConsecutiveErrors = 0

		// Update average latency
		if s.AverageLatency == 0 {
			s.AverageLatency = latency
		} else {
			s.AverageLatency = (s.AverageLatency + latency) / 2
		}
	})
}

// updateStats safely updates client statistics.
func (c *Client) updateStats(fn func(*ClientStats)) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	fn(c.stats)
}

// GetStats returns a copy of the current client statistics.
func (c *Client) GetStats() ClientStats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return *c.stats
}
