package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/fra-dss/internal/resilience"
)

const (
	nominatimSearchURL = "https://nominatim.openstreetmap.org/search"
	defaultUserAgent   = "FRA-System/1.0"
)

// nominatimPlace is one element of the Nominatim search response. Latitude
// and longitude arrive as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Class       string `json:"class"`
	Type        string `json:"type"`
}

// NominatimProvider geocodes via the OpenStreetMap Nominatim search API.
type NominatimProvider struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

// NewNominatimProvider creates a NominatimProvider.
func NewNominatimProvider(hc *http.Client, baseURL, userAgent string, limiter *rate.Limiter) *NominatimProvider {
	if baseURL == "" {
		baseURL = nominatimSearchURL
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &NominatimProvider{httpClient: hc, baseURL: baseURL, userAgent: userAgent, limiter: limiter}
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Available implements Provider.
func (p *NominatimProvider) Available() bool { return true }

// Geocode implements Provider.
func (p *NominatimProvider) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return &Result{Matched: false, Source: "nominatim"}, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim rate limit")
	}

	params := url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim build request")
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := resilience.CheckStatus("geocode: nominatim", resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim read body")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}
	if len(places) == 0 {
		return &Result{Matched: false, Source: "nominatim"}, nil
	}

	place := places[0]
	lat, err := strconv.ParseFloat(strings.TrimSpace(place.Lat), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim latitude %q", place.Lat)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(place.Lon), 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim longitude %q", place.Lon)
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		Source:      "nominatim",
		Quality:     nominatimTypeToQuality(place.Class, place.Type),
		DisplayName: place.DisplayName,
		Matched:     true,
	}, nil
}

// nominatimTypeToQuality maps OSM class/type to our quality taxonomy.
func nominatimTypeToQuality(class, typ string) string {
	switch strings.ToLower(class) {
	case "building":
		return "rooftop"
	case "highway":
		return "range"
	}
	switch strings.ToLower(typ) {
	case "house", "residential":
		return "rooftop"
	case "village", "hamlet", "town", "city", "suburb", "neighbourhood", "locality":
		return "centroid"
	default:
		return "approximate"
	}
}
