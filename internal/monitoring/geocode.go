package monitoring

import (
	"context"

	"github.com/sells-group/fra-dss/pkg/geocode"
)

type countingGeocoder struct {
	next geocode.Client
}

// InstrumentGeocoder wraps c so every lookup increments GeocodeLookups.
func InstrumentGeocoder(c geocode.Client) geocode.Client {
	return &countingGeocoder{next: c}
}

func (g *countingGeocoder) Geocode(ctx context.Context, address string) (*geocode.Result, error) {
	res, err := g.next.Geocode(ctx, address)
	switch {
	case err != nil:
		GeocodeLookups.WithLabelValues("error").Inc()
	case res != nil && res.Matched:
		GeocodeLookups.WithLabelValues("matched").Inc()
	default:
		GeocodeLookups.WithLabelValues("unmatched").Inc()
	}
	return res, err
}
