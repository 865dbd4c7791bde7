// Package geocode resolves free-text Indian place names ("village, district,
// state, India") to coordinates via OpenStreetMap Nominatim (primary) and
// Google (optional fallback).
package geocode

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/fra-dss/internal/resilience"
)

// DefaultTimeout bounds every outbound geocoding request.
const DefaultTimeout = 10 * time.Second

// Client geocodes free-text addresses.
type Client interface {
	// Geocode resolves a single address. An unmatched address is not an
	// error: the result has Matched=false.
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Result holds the geocoding output for an address.
type Result struct {
	Latitude    float64
	Longitude   float64
	Source      string // "nominatim", "google" or "cascade"
	Quality     string // "rooftop", "range", "centroid", "approximate"
	DisplayName string
	Matched     bool
}

// Coordinates renders the result as "lat, lon" with seven decimals, or ""
// when unmatched.
func (r *Result) Coordinates() string {
	if r == nil || !r.Matched {
		return ""
	}
	return fmt.Sprintf("%.7f, %.7f", r.Latitude, r.Longitude)
}

// Option configures the client built by NewClient.
type Option func(*options)

type options struct {
	httpClient   *http.Client
	nominatimURL string
	userAgent    string
	googleKey    string
	rps          float64
	cacheTTL     time.Duration
	breaker      resilience.BreakerConfig
}

// WithNominatimURL overrides the Nominatim search endpoint.
func WithNominatimURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.nominatimURL = u
		}
	}
}

// WithUserAgent sets the User-Agent sent to Nominatim. Its usage policy
// rejects anonymous clients.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithGoogleAPIKey enables the Google Geocoding API as a fallback.
func WithGoogleAPIKey(key string) Option {
	return func(o *options) {
		o.googleKey = key
	}
}

// WithHTTPClient sets a custom HTTP client for all providers.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit for Nominatim calls.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		if rps > 0 {
			o.rps = rps
		}
	}
}

// WithCacheTTL sets how long results are memoized. Zero disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.cacheTTL = ttl
	}
}

// WithCircuitBreaker configures the per-provider circuit breakers.
func WithCircuitBreaker(cfg resilience.BreakerConfig) Option {
	return func(o *options) {
		o.breaker = cfg
	}
}

// NewClient builds the default cascade: Nominatim first, then Google when a
// key is configured.
func NewClient(opts ...Option) *CascadeClient {
	o := &options{
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		nominatimURL: nominatimSearchURL,
		userAgent:    defaultUserAgent,
		rps:          1, // Nominatim usage policy: at most 1 req/s
		cacheTTL:     24 * time.Hour,
	}
	for _, opt := range opts {
		opt(o)
	}

	providers := []Provider{
		NewNominatimProvider(o.httpClient, o.nominatimURL, o.userAgent,
			rate.NewLimiter(rate.Limit(o.rps), max(1, int(o.rps)))),
	}
	if o.googleKey != "" {
		providers = append(providers, NewGoogleProvider(o.httpClient, o.googleKey, rate.NewLimiter(50, 50)))
	}

	return NewCascadeClient(providers,
		WithCascadeCacheTTL(o.cacheTTL),
		WithCascadeBreakers(o.breaker),
	)
}
