package adsb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// PathStyle selects how the point query URL is built.
type PathStyle string

const (
	// PathADSBFi is the adsb.fi v2 layout: /lat/{lat}/lon/{lon}/dist/{dist}
	PathADSBFi PathStyle = "adsbfi"

	// PathAirplanesLive is the airplanes.live v2 layout: /point/{lat}/{lon}/{radius}
	PathAirplanesLive PathStyle = "airplaneslive"
)

const (
	// DefaultBaseURL is the adsb.fi open data API
	DefaultBaseURL = "https://opendata.adsb.fi/api/v2"

	// DefaultTimeout for API requests
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRadius is the largest radius both public APIs accept
	DefaultMaxRadius = 250.0
)

// ErrDecode is wrapped by errors caused by an undecodable upstream payload.
var ErrDecode = errors.New("error decoding json response from ads-b api")

// ClientConfig contains configuration for the feed client.
type ClientConfig struct {
	// BaseURL is the API base URL (default: DefaultBaseURL)
	BaseURL string

	// PathStyle selects the URL layout (default: PathADSBFi)
	PathStyle PathStyle

	// Timeout for a single HTTP request (default: DefaultTimeout)
	Timeout time.Duration

	// RequestsPerSecond limits outgoing calls; 0 disables limiting
	RequestsPerSecond float64

	// MaxRadius caps the requested radius (default: DefaultMaxRadius)
	MaxRadius float64

	// HTTPClient overrides the HTTP client (Timeout is then ignored)
	HTTPClient *http.Client
}

// Client implements DataSource for the adsb.fi and airplanes.live point APIs.
// API Documentation: https://github.com/adsbfi/opendata, https://airplanes.live/api-guide/
type Client struct {
	baseURL     string
	style       PathStyle
	maxRadius   float64
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a new feed client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PathStyle == "" {
		cfg.PathStyle = PathADSBFi
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRadius <= 0 {
		cfg.MaxRadius = DefaultMaxRadius
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		style:       cfg.PathStyle,
		maxRadius:   cfg.MaxRadius,
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(limit, 1),
	}
}

// GetAircraft returns every aircraft the API reports around a point.
// Records are returned as reported, including ones without a position.
func (c *Client) GetAircraft(ctx context.Context, centerLat, centerLon, radius float64) ([]Record, error) {
	if radius > c.maxRadius {
		radius = c.maxRadius
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(centerLat, centerLon, radius), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching data from ads-b api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header),
			Message:    "Rate limit exceeded",
			Headers:    extractRateLimitHeaders(resp.Header),
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var apiResp feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return apiResp.records(), nil
}

// Close cleanly shuts down the client.
// There are no persistent connections, so this is a no-op.
func (c *Client) Close() error {
	return nil
}

// endpoint builds the point query URL for the configured path style.
func (c *Client) endpoint(lat, lon, radius float64) string {
	if c.style == PathAirplanesLive {
		// Whole units only; round up so the area is never narrowed.
		return fmt.Sprintf("%s/point/%.4f/%.4f/%.0f", c.baseURL, lat, lon, math.Ceil(radius))
	}
	return fmt.Sprintf("%s/lat/%s/lon/%s/dist/%s", c.baseURL,
		formatCoord(lat), formatCoord(lon), formatCoord(radius))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// feedResponse is the JSON envelope returned by the point APIs.
// readsb and adsb.fi use "aircraft", airplanes.live uses "ac".
type feedResponse struct {
	Aircraft []Record `json:"aircraft"`
	AC       []Record `json:"ac"`

	// Now is the snapshot timestamp
	Now float64 `json:"now"`

	// Total number of aircraft
	Total int `json:"total"`
}

func (r feedResponse) records() []Record {
	out := make([]Record, 0, len(r.Aircraft)+len(r.AC))
	out = append(out, r.Aircraft...)
	return append(out, r.AC...)
}

// StatusError is returned when the API answers with an unexpected status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// RateLimitError represents an HTTP 429 rate limit error with retry information.
type RateLimitError struct {
	StatusCode int
	RetryAfter time.Duration
	Message    string
	Headers    RateLimitHeaders
}

// RateLimitHeaders contains rate limit information from response headers.
type RateLimitHeaders struct {
	Limit     int       // X-Rate-Limit-Limit: Maximum requests allowed
	Remaining int       // X-Rate-Limit-Remaining: Requests remaining in current window
	Reset     time.Time // X-Rate-Limit-Reset: When the rate limit resets
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return e.Message
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) (*RateLimitError, bool) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return rle, true
	}
	return nil, false
}

// parseRetryAfter extracts the Retry-After header value.
// Returns the duration to wait, or 0 if header is not present.
// Supports both delay-seconds (integer) and HTTP-date formats.
//
// Examples:
//
//	Retry-After: 30                            -> 30 seconds
//	Retry-After: Wed, 21 Oct 2015 07:28:00 GMT -> duration until that time
func parseRetryAfter(headers http.Header) time.Duration {
	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	if retryTime, err := http.ParseTime(retryAfter); err == nil {
		if duration := time.Until(retryTime); duration > 0 {
			return duration
		}
	}

	return 0
}

// extractRateLimitHeaders extracts common rate limit headers from the response.
// Both the X-Rate-Limit-* and X-RateLimit-* spellings are accepted.
func extractRateLimitHeaders(headers http.Header) RateLimitHeaders {
	rlh := RateLimitHeaders{
		Limit:     -1,
		Remaining: -1,
	}

	if val, ok := headerInt(headers, "X-Rate-Limit-Limit", "X-RateLimit-Limit"); ok {
		rlh.Limit = val
	}
	if val, ok := headerInt(headers, "X-Rate-Limit-Remaining", "X-RateLimit-Remaining"); ok {
		rlh.Remaining = val
	}
	if val, ok := headerInt(headers, "X-Rate-Limit-Reset", "X-RateLimit-Reset"); ok {
		rlh.Reset = time.Unix(int64(val), 0)
	}

	return rlh
}

// headerInt returns the first header among names that is set, as an int.
func headerInt(headers http.Header, names ...string) (int, bool) {
	for _, name := range names {
		raw := headers.Get(name)
		if raw == "" {
			continue
		}
		val, err := strconv.Atoi(raw)
		return val, err == nil
	}
	return 0, false
}
