package monitoring

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/fra-dss/pkg/geocode"
)

type stubGeocoder struct {
	res *geocode.Result
	err error
}

func (s stubGeocoder) Geocode(context.Context, string) (*geocode.Result, error) {
	return s.res, s.err
}

func TestInstrumentGeocoder(t *testing.T) {
	matched := testutil.ToFloat64(GeocodeLookups.WithLabelValues("matched"))
	unmatched := testutil.ToFloat64(GeocodeLookups.WithLabelValues("unmatched"))
	failed := testutil.ToFloat64(GeocodeLookups.WithLabelValues("error"))

	ctx := context.Background()
	res, err := InstrumentGeocoder(stubGeocoder{res: &geocode.Result{Matched: true, Latitude: 18.8, Longitude: 82.7}}).Geocode(ctx, "Kundra, Koraput, Odisha, India")
	assert.NoError(t, err)
	assert.True(t, res.Matched)

	_, _ = InstrumentGeocoder(stubGeocoder{res: &geocode.Result{}}).Geocode(ctx, "nowhere")
	_, err = InstrumentGeocoder(stubGeocoder{err: errors.New("timeout")}).Geocode(ctx, "x")
	assert.Error(t, err)

	assert.InDelta(t, matched+1, testutil.ToFloat64(GeocodeLookups.WithLabelValues("matched")), 0.001)
	assert.InDelta(t, unmatched+1, testutil.ToFloat64(GeocodeLookups.WithLabelValues("unmatched")), 0.001)
	assert.InDelta(t, failed+1, testutil.ToFloat64(GeocodeLookups.WithLabelValues("error")), 0.001)
}
