package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fra-dss/internal/resilience"
)

func TestNominatimGeocode_Match(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{
			"lat": "18.8123456",
			"lon": "82.7123456",
			"display_name": "Kundra, Koraput, Odisha, India",
			"class": "place",
			"type": "village"
		}]`)
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.Client(), srv.URL, "", newTestLimiter())
	result, err := p.Geocode(context.Background(), "Kundra, Koraput, Odisha, India")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, 18.8123456, result.Latitude, 1e-7)
	assert.InDelta(t, 82.7123456, result.Longitude, 1e-7)
	assert.Equal(t, "nominatim", result.Source)
	assert.Equal(t, "centroid", result.Quality)
	assert.Equal(t, "Kundra, Koraput, Odisha, India", result.DisplayName)
	assert.Equal(t, "18.8123456, 82.7123456", result.Coordinates())

	assert.Equal(t, "FRA-System/1.0", gotUA)
	assert.Contains(t, gotQuery, "format=json")
	assert.Contains(t, gotQuery, "limit=1")
	assert.Contains(t, gotQuery, "q=Kundra%2C+Koraput%2C+Odisha%2C+India")
}

func TestNominatimGeocode_DefaultURLRewritten(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"lat": "21.25", "lon": "81.63", "class": "boundary", "type": "administrative"}]`)
	}))
	defer srv.Close()

	p := NewNominatimProvider(redirectTo(srv), "", "custom-agent/2.0", newTestLimiter())
	result, err := p.Geocode(context.Background(), "Raipur, Chhattisgarh, India")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "approximate", result.Quality)
}

func TestNominatimGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.Client(), srv.URL, "", newTestLimiter())
	result, err := p.Geocode(context.Background(), "Nowhere, India")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, "", result.Coordinates())
}

func TestNominatimGeocode_EmptyAddressSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.Client(), srv.URL, "", newTestLimiter())
	result, err := p.Geocode(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.False(t, called)
}

func TestNominatimGeocode_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.Client(), srv.URL, "", newTestLimiter())
	_, err := p.Geocode(context.Background(), "Koraput, Odisha, India")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.True(t, resilience.Retryable(err))
}

func TestNominatimGeocode_ForbiddenIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.Client(), srv.URL, "", newTestLimiter())
	_, err := p.Geocode(context.Background(), "Koraput, Odisha, India")
	require.Error(t, err)
	assert.False(t, resilience.Retryable(err))
}

func TestNominatimGeocode_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.Client(), srv.URL, "", newTestLimiter())
	_, err := p.Geocode(context.Background(), "Koraput, Odisha, India")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")
}

func TestNominatimGeocode_BadLatitude(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"lat": "north", "lon": "82.7"}]`)
	}))
	defer srv.Close()

	p := NewNominatimProvider(srv.Client(), srv.URL, "", newTestLimiter())
	_, err := p.Geocode(context.Background(), "Koraput, Odisha, India")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
}

func TestNominatimGeocode_CancelledContext(t *testing.T) {
	p := NewNominatimProvider(http.DefaultClient, "http://127.0.0.1:0", "", newTestLimiter())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Geocode(ctx, "Koraput, Odisha, India")
	require.Error(t, err)
}

func TestNominatimTypeToQuality(t *testing.T) {
	tests := []struct {
		class, typ string
		want       string
	}{
		{"building", "yes", "rooftop"},
		{"highway", "primary", "range"},
		{"place", "house", "rooftop"},
		{"place", "hamlet", "centroid"},
		{"boundary", "administrative", "approximate"},
		{"", "", "approximate"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nominatimTypeToQuality(tt.class, tt.typ), "%s/%s", tt.class, tt.typ)
	}
}
