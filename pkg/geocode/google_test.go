package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleGeocode_Rooftop(t *testing.T) {
	var gotRegion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRegion = r.URL.Query().Get("region")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"status": "OK",
			"results": [{
				"geometry": {
					"location": {"lat": 18.8135, "lng": 82.7119},
					"location_type": "ROOFTOP"
				},
				"formatted_address": "Koraput, Odisha 764020, India"
			}]
		}`)
	}))
	defer srv.Close()

	p := NewGoogleProvider(redirectTo(srv), "test-key", newTestLimiter())

	result, err := p.Geocode(context.Background(), "Koraput, Odisha, India")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, 18.8135, result.Latitude, 0.0001)
	assert.InDelta(t, 82.7119, result.Longitude, 0.0001)
	assert.Equal(t, "google", result.Source)
	assert.Equal(t, "rooftop", result.Quality)
	assert.Equal(t, "Koraput, Odisha 764020, India", result.DisplayName)
	assert.Equal(t, "in", gotRegion)
}

func TestGoogleGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status": "ZERO_RESULTS", "results": []}`)
	}))
	defer srv.Close()

	p := NewGoogleProvider(redirectTo(srv), "test-key", newTestLimiter())

	result, err := p.Geocode(context.Background(), "Nowhere, India")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, "google", result.Source)
}

func TestGoogleGeocode_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewGoogleProvider(redirectTo(srv), "test-key", newTestLimiter())

	_, err := p.Geocode(context.Background(), "Koraput, Odisha, India")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestGoogleGeocode_NoAPIKey(t *testing.T) {
	p := NewGoogleProvider(http.DefaultClient, "", newTestLimiter())
	assert.False(t, p.Available())

	_, err := p.Geocode(context.Background(), "Koraput, Odisha, India")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key not configured")
}

func TestGoogleLocationTypeToQuality(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ROOFTOP", "rooftop"},
		{"RANGE_INTERPOLATED", "range"},
		{"GEOMETRIC_CENTER", "centroid"},
		{"APPROXIMATE", "approximate"},
		{"unknown", "approximate"},
		{"", "approximate"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, googleLocationTypeToQuality(tt.input))
		})
	}
}

func TestGoogleGeocode_QuotaStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "country:IN", r.URL.Query().Get("components"))
		_, _ = io.WriteString(w, `{"status": "OVER_QUERY_LIMIT", "error_message": "daily quota exceeded", "results": []}`)
	}))
	defer srv.Close()

	p := NewGoogleProvider(redirectTo(srv), "test-key", newTestLimiter())

	_, err := p.Geocode(context.Background(), "Koraput, Odisha, India")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OVER_QUERY_LIMIT: daily quota exceeded")
}
