package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/fra-dss/internal/resilience"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"`
		} `json:"geometry"`
	} `json:"results"`
}

// GoogleProvider geocodes through the Google Geocoding API, restricted to
// India. It is the fallback when Nominatim has no match.
type GoogleProvider struct {
	hc      *http.Client
	key     string
	limiter *rate.Limiter
}

// NewGoogleProvider returns a provider that is unavailable without a key.
func NewGoogleProvider(hc *http.Client, apiKey string, limiter *rate.Limiter) *GoogleProvider {
	return &GoogleProvider{hc: hc, key: apiKey, limiter: limiter}
}

func (p *GoogleProvider) Name() string    { return "google" }
func (p *GoogleProvider) Available() bool { return p.key != "" }

// Geocode returns an unmatched result for ZERO_RESULTS. Quota and key
// problems come back as errors so the breaker sees them.
func (p *GoogleProvider) Geocode(ctx context.Context, address string) (*Result, error) {
	if p.key == "" {
		return nil, eris.New("geocode: google api key not configured")
	}
	unmatched := &Result{Source: "google"}
	if address = strings.TrimSpace(address); address == "" {
		return unmatched, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: google rate limit")
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("region", "in")
	q.Set("components", "country:IN")
	q.Set("key", p.key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleGeocodeURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}

	resp, err := p.hc.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := resilience.CheckStatus("geocode: google", resp); err != nil {
		return nil, err
	}

	var gr googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, eris.Wrap(err, "geocode: google decode response")
	}

	switch gr.Status {
	case "OK":
	case "ZERO_RESULTS":
		return unmatched, nil
	default:
		return nil, eris.Errorf("geocode: google status %s: %s", gr.Status, gr.ErrorMessage)
	}
	if len(gr.Results) == 0 {
		return unmatched, nil
	}

	top := gr.Results[0]
	return &Result{
		Latitude:    top.Geometry.Location.Lat,
		Longitude:   top.Geometry.Location.Lng,
		Source:      "google",
		Quality:     googleLocationTypeToQuality(top.Geometry.LocationType),
		DisplayName: top.FormattedAddress,
		Matched:     true,
	}, nil
}

// googleLocationTypeToQuality maps Google's location_type to our quality taxonomy.
func googleLocationTypeToQuality(locType string) string {
	switch strings.ToUpper(locType) {
	case "ROOFTOP":
		return "rooftop"
	case "RANGE_INTERPOLATED":
		return "range"
	case "GEOMETRIC_CENTER":
		return "centroid"
	case "APPROXIMATE":
		return "approximate"
	default:
		return "approximate"
	}
}
