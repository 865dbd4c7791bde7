package geocode

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/resilience"
)

// Provider represents a single geocoding backend.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, address string) (*Result, error)
	Available() bool
}

// CascadeClient tries geocode providers in order until one matches. Each
// provider runs behind its own circuit breaker.
type CascadeClient struct {
	providers []Provider
	breakers  *resilience.Breakers
	cache     *resultCache
}

// CascadeOption configures the CascadeClient.
type CascadeOption func(*CascadeClient)

// WithCascadeCacheTTL enables result memoization for ttl. Zero disables it.
func WithCascadeCacheTTL(ttl time.Duration) CascadeOption {
	return func(c *CascadeClient) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = newResultCache(ttl)
	}
}

// WithCascadeBreakers sets the circuit breaker config used per provider.
func WithCascadeBreakers(cfg resilience.BreakerConfig) CascadeOption {
	return func(c *CascadeClient) {
		c.breakers = resilience.NewBreakers(cfg)
	}
}

// NewCascadeClient creates a CascadeClient that tries providers in order.
// Caching is off until WithCascadeCacheTTL is given.
func NewCascadeClient(providers []Provider, opts ...CascadeOption) *CascadeClient {
	c := &CascadeClient{
		providers: providers,
		breakers:  resilience.NewBreakers(resilience.BreakerConfig{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Geocode implements Client. It returns an error only when every available
// provider failed; a clean miss is an unmatched result.
func (c *CascadeClient) Geocode(ctx context.Context, address string) (*Result, error) {
	key := cacheKey(address)
	if key == "" {
		return &Result{Matched: false, Source: "cascade"}, nil
	}

	if c.cache != nil {
		if cached, ok := c.cache.get(key); ok {
			zap.L().Debug("geocode: cache hit", zap.String("address", key), zap.Bool("matched", cached.Matched))
			return cached, nil
		}
	}

	var (
		lastResult *Result
		lastErr    error
		answered   bool
	)
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		result, err := resilience.Call(ctx, c.breakers.For(p.Name()), func(ctx context.Context) (*Result, error) {
			return p.Geocode(ctx, address)
		})
		if err != nil {
			zap.L().Debug("geocode: provider error, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		answered = true
		if result != nil && result.Matched {
			c.store(key, result)
			return result, nil
		}
		if result != nil {
			lastResult = result
		}
	}

	if !answered {
		if lastErr == nil {
			lastErr = eris.New("geocode: no provider available")
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, eris.Wrapf(lastErr, "geocode: %q", address)
	}

	noMatch := &Result{Matched: false, Source: "cascade"}
	if lastResult != nil {
		noMatch.Source = lastResult.Source
	}
	c.store(key, noMatch)
	return noMatch, nil
}

// BreakerStates reports the circuit state per provider name.
func (c *CascadeClient) BreakerStates() map[string]string {
	return c.breakers.States()
}

func (c *CascadeClient) store(key string, r *Result) {
	if c.cache != nil {
		c.cache.set(key, r)
	}
}
