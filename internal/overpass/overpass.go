// Package overpass downloads bar, pub and biergarten features from the
// OpenStreetMap Overpass API, one bounding box at a time, and turns the
// returned elements into catalog points.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"beercompass.app/internal/logging"
	"beercompass.app/internal/models"
)

const (
	// DefaultBaseURL is the public Overpass API interpreter endpoint.
	DefaultBaseURL = "https://overpass-api.de/api/interpreter"

	// DefaultUserAgent identifies the downloader to the API operators.
	DefaultUserAgent = "BeerCompass/1.0"

	// DefaultTimeout is the per-request budget; Overpass evaluates large
	// boxes slowly, so this is also sent as the query's server-side timeout.
	DefaultTimeout = 180 * time.Second

	// DefaultMaxAttempts bounds retries for one bounding box.
	DefaultMaxAttempts = 3
)

// amenities are the OSM amenity values the compass cares about.
var amenities = []string{"bar", "pub", "biergarten"}

// BBox is a south,west,north,east bounding box in degrees, the order
// Overpass QL expects.
type BBox struct {
	South float64
	West  float64
	North float64
	East  float64
}

func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.South, b.West, b.North, b.East)
}

// ParseBBox parses a "south,west,north,east" string.
func ParseBBox(s string) (BBox, error) {
	var b BBox
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return b, fmt.Errorf("invalid bounding box %q: want south,west,north,east", s)
	}

	coords := make([]float64, 4)
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return b, fmt.Errorf("invalid bounding box %q: %w", s, err)
		}
		coords[i] = f
	}

	b = BBox{South: coords[0], West: coords[1], North: coords[2], East: coords[3]}
	if b.South >= b.North {
		return b, fmt.Errorf("invalid bounding box %q: south must be below north", s)
	}
	return b, nil
}

// BuildQuery renders the Overpass QL document for one bounding box:
// bar/pub/biergarten nodes, ways and relations, with way and relation
// centroids included.
func BuildQuery(bbox BBox, timeout time.Duration) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[out:json][timeout:%d];\n(\n", int(timeout.Seconds()))
	for _, kind := range []string{"node", "way", "relation"} {
		for _, amenity := range amenities {
			fmt.Fprintf(&sb, "  %s[\"amenity\"=%q](%s);\n", kind, amenity, bbox)
		}
	}
	sb.WriteString(");\nout center meta;")
	return sb.String()
}

// Config holds the knobs for a Client. The zero value is usable: every
// field falls back to its package default.
type Config struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts int

	// Backoff units. The wait before attempt n is the unit scaled by n,
	// so consecutive failures back off further each time.
	TimeoutWait   time.Duration // request timed out
	GatewayWait   time.Duration // HTTP 504, the server gave up on the query
	RateLimitWait time.Duration // HTTP 429, the server wants a long pause
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.TimeoutWait <= 0 {
		c.TimeoutWait = 5 * time.Second
	}
	if c.GatewayWait <= 0 {
		c.GatewayWait = 10 * time.Second
	}
	if c.RateLimitWait <= 0 {
		c.RateLimitWait = time.Minute
	}
	return c
}

// Client talks to one Overpass endpoint.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	config = config.withDefaults()
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// FetchBars runs the query for one bounding box and returns the processed
// points. Timeouts, gateway timeouts and rate limiting are retried with
// attempt-scaled waits up to MaxAttempts; any other failure is final.
func (c *Client) FetchBars(ctx context.Context, bbox BBox) ([]models.GeoPoint, error) {
	query := BuildQuery(bbox, c.config.Timeout)

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		points, retryWait, err := c.fetchOnce(ctx, query)
		if err == nil {
			return points, nil
		}
		if retryWait == 0 || ctx.Err() != nil {
			return nil, err
		}

		lastErr = err
		if attempt < c.config.MaxAttempts {
			wait := retryWait * time.Duration(attempt)
			logging.LogError(c.logger, "overpass request failed, retrying", err,
				slog.String("bbox", bbox.String()),
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait))
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("overpass gave no data after %d attempts: %w", c.config.MaxAttempts, lastErr)
}

// fetchOnce performs a single request. A zero retryWait on error means
// the failure is not worth retrying.
func (c *Client) fetchOnce(ctx context.Context, query string) (points []models.GeoPoint, retryWait time.Duration, err error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("error building overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, c.config.TimeoutWait, fmt.Errorf("overpass request timed out: %w", err)
		}
		return nil, 0, fmt.Errorf("error downloading overpass data: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "overpass_response_body")

	switch resp.StatusCode {
	case http.StatusOK:
		// Fall through to decoding below.
	case http.StatusGatewayTimeout:
		return nil, c.config.GatewayWait, fmt.Errorf("overpass returned HTTP 504 (gateway timeout)")
	case http.StatusTooManyRequests:
		return nil, c.config.RateLimitWait, fmt.Errorf("overpass returned HTTP 429 (rate limited)")
	default:
		return nil, 0, fmt.Errorf("overpass returned HTTP %d", resp.StatusCode)
	}

	var doc response
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, 0, fmt.Errorf("error parsing overpass response: %w", err)
	}

	return ProcessElements(doc.Elements), 0, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// sleepCtx waits for the duration or the context, whichever ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
