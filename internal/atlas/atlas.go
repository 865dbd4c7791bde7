// Package atlas serves claims that carry coordinates for map display, as
// plain records, GeoJSON or an ESRI shapefile.
package atlas

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/extract"
	"github.com/sells-group/fra-dss/internal/model"
)

// ClaimLister reads the claims that have coordinates text.
type ClaimLister interface {
	ListGeocodedClaims(ctx context.Context) ([]model.Claim, error)
}

// Service reads atlas data from the store.
type Service struct {
	store ClaimLister
}

// NewService creates a Service.
func NewService(st ClaimLister) *Service {
	return &Service{store: st}
}

// Claims returns every claim with non-empty coordinates, with its stored
// status.
func (s *Service) Claims(ctx context.Context) ([]model.Claim, error) {
	claims, err := s.store.ListGeocodedClaims(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "atlas: list claims")
	}
	return claims, nil
}

// Placemark is a claim with its parsed location.
type Placemark struct {
	Claim model.Claim
	Point *geom.Point
}

// Placemarks parses the coordinates of each claim. Claims whose coordinates
// are not a valid "lat, lon" pair are left out.
func Placemarks(claims []model.Claim) []Placemark {
	out := make([]Placemark, 0, len(claims))
	var skipped int
	for _, c := range claims {
		pt, err := extract.ParsePoint(c.Coordinates)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, Placemark{Claim: c, Point: pt})
	}
	if skipped > 0 {
		zap.L().Debug("atlas: skipped claims with unusable coordinates", zap.Int("skipped", skipped))
	}
	return out
}
