package geocode

import (
	"net/http"
	"net/http/httptest"
	"net/url"

	"golang.org/x/time/rate"
)

func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// redirectTo returns a client that sends every request to srv with the
// path and query intact, for providers whose upstream URL is fixed.
func redirectTo(srv *httptest.Server) *http.Client {
	target, _ := url.Parse(srv.URL)
	base := srv.Client().Transport
	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		r := req.Clone(req.Context())
		r.URL.Scheme = target.Scheme
		r.URL.Host = target.Host
		r.Host = target.Host
		return base.RoundTrip(r)
	})}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
