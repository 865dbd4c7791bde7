package geocode

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fra-dss/internal/resilience"
)

// mockProvider implements Provider for testing cascade behavior.
type mockProvider struct {
	name      string
	available bool
	result    *Result
	err       error
	calls     atomic.Int32
}

func (m *mockProvider) Name() string    { return m.name }
func (m *mockProvider) Available() bool { return m.available }
func (m *mockProvider) Geocode(_ context.Context, _ string) (*Result, error) {
	m.calls.Add(1)
	return m.result, m.err
}

func TestCascadeClient_FirstProviderMatches(t *testing.T) {
	p1 := &mockProvider{
		name:      "provider1",
		available: true,
		result:    &Result{Matched: true, Source: "provider1", Latitude: 18.81, Longitude: 82.71, Quality: "centroid"},
	}
	p2 := &mockProvider{
		name:      "provider2",
		available: true,
		result:    &Result{Matched: true, Source: "provider2", Latitude: 20.0, Longitude: 85.0},
	}

	c := NewCascadeClient([]Provider{p1, p2})
	result, err := c.Geocode(context.Background(), "Kundra, Koraput, Odisha, India")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Matched)
	assert.Equal(t, "provider1", result.Source)
	assert.InDelta(t, 18.81, result.Latitude, 0.01)
	assert.Equal(t, int32(0), p2.calls.Load())
}

func TestCascadeClient_FirstMissesSecondMatches(t *testing.T) {
	p1 := &mockProvider{name: "provider1", available: true, result: &Result{Matched: false, Source: "provider1"}}
	p2 := &mockProvider{name: "provider2", available: true, result: &Result{Matched: true, Source: "provider2", Latitude: 19.3, Longitude: 84.8}}

	c := NewCascadeClient([]Provider{p1, p2})
	result, err := c.Geocode(context.Background(), "Ganjam, Odisha, India")

	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "provider2", result.Source)
}

func TestCascadeClient_AllProvidersMiss(t *testing.T) {
	p1 := &mockProvider{name: "provider1", available: true, result: &Result{Matched: false, Source: "provider1"}}
	p2 := &mockProvider{name: "provider2", available: true, result: &Result{Matched: false, Source: "provider2"}}

	c := NewCascadeClient([]Provider{p1, p2})
	result, err := c.Geocode(context.Background(), "Nowhere, India")

	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, "provider2", result.Source)
	assert.Equal(t, "", result.Coordinates())
}

func TestCascadeClient_ProviderErrorTriesNext(t *testing.T) {
	p1 := &mockProvider{name: "provider1", available: true, err: errors.New("timeout")}
	p2 := &mockProvider{name: "provider2", available: true, result: &Result{Matched: true, Source: "provider2"}}

	c := NewCascadeClient([]Provider{p1, p2})
	result, err := c.Geocode(context.Background(), "Koraput, Odisha, India")

	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "provider2", result.Source)
}

func TestCascadeClient_AllProvidersErrorReturnsError(t *testing.T) {
	p1 := &mockProvider{name: "provider1", available: true, err: errors.New("connection refused")}

	c := NewCascadeClient([]Provider{p1}, WithCascadeCacheTTL(time.Minute))
	_, err := c.Geocode(context.Background(), "Koraput, Odisha, India")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	// Failures are not memoized.
	_, err = c.Geocode(context.Background(), "Koraput, Odisha, India")
	require.Error(t, err)
	assert.Equal(t, int32(2), p1.calls.Load())
}

func TestCascadeClient_UnavailableProviderSkipped(t *testing.T) {
	p1 := &mockProvider{name: "provider1", available: false, result: &Result{Matched: true, Source: "provider1"}}
	p2 := &mockProvider{name: "provider2", available: true, result: &Result{Matched: true, Source: "provider2"}}

	c := NewCascadeClient([]Provider{p1, p2})
	result, err := c.Geocode(context.Background(), "Koraput, Odisha, India")

	require.NoError(t, err)
	assert.Equal(t, "provider2", result.Source)
	assert.Equal(t, int32(0), p1.calls.Load())
}

func TestCascadeClient_NoProviders(t *testing.T) {
	c := NewCascadeClient(nil)
	_, err := c.Geocode(context.Background(), "Koraput, Odisha, India")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no provider available")
}

func TestCascadeClient_EmptyAddress(t *testing.T) {
	p1 := &mockProvider{name: "provider1", available: true}

	c := NewCascadeClient([]Provider{p1})
	result, err := c.Geocode(context.Background(), "  ")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, int32(0), p1.calls.Load())
}

func TestCascadeClient_CacheHitSkipsProviders(t *testing.T) {
	p1 := &mockProvider{name: "provider1", available: true, result: &Result{Matched: true, Source: "provider1", Latitude: 18.8, Longitude: 82.7}}

	c := NewCascadeClient([]Provider{p1}, WithCascadeCacheTTL(time.Minute))
	first, err := c.Geocode(context.Background(), "Koraput, Odisha, India")
	require.NoError(t, err)

	second, err := c.Geocode(context.Background(), "  koraput,   ODISHA, india ")
	require.NoError(t, err)
	assert.Equal(t, first.Coordinates(), second.Coordinates())
	assert.Equal(t, int32(1), p1.calls.Load())
}

func TestCascadeClient_CachesMisses(t *testing.T) {
	p1 := &mockProvider{name: "provider1", available: true, result: &Result{Matched: false, Source: "provider1"}}

	c := NewCascadeClient([]Provider{p1}, WithCascadeCacheTTL(time.Minute))
	for range 3 {
		result, err := c.Geocode(context.Background(), "Nowhere, India")
		require.NoError(t, err)
		assert.False(t, result.Matched)
	}
	assert.Equal(t, int32(1), p1.calls.Load())
}

func TestCascadeClient_CacheDisabledByDefault(t *testing.T) {
	p1 := &mockProvider{name: "provider1", available: true, result: &Result{Matched: true, Source: "provider1"}}

	c := NewCascadeClient([]Provider{p1})
	_, _ = c.Geocode(context.Background(), "Koraput, Odisha, India")
	_, _ = c.Geocode(context.Background(), "Koraput, Odisha, India")
	assert.Equal(t, int32(2), p1.calls.Load())
}

func TestCascadeClient_OpenBreakerSkipsProvider(t *testing.T) {
	p1 := &mockProvider{name: "provider1", available: true, err: errors.New("boom")}
	p2 := &mockProvider{name: "provider2", available: true, result: &Result{Matched: true, Source: "provider2"}}

	c := NewCascadeClient([]Provider{p1, p2},
		WithCascadeBreakers(resilience.BreakerConfig{Threshold: 2, Cooldown: time.Hour}))

	for range 4 {
		result, err := c.Geocode(context.Background(), "Koraput, Odisha, India")
		require.NoError(t, err)
		assert.Equal(t, "provider2", result.Source)
	}
	// The breaker opened after two failures.
	assert.Equal(t, int32(2), p1.calls.Load())
	assert.Equal(t, "open", c.BreakerStates()["provider1"])
	assert.Equal(t, "closed", c.BreakerStates()["provider2"])
}
