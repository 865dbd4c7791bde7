package atlas

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection renders the placemarks as GeoJSON point features keyed
// by claim row id.
func FeatureCollection(marks []Placemark) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(marks))}
	for _, m := range marks {
		c := m.Claim
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       c.ID,
			Geometry: m.Point,
			Properties: map[string]any{
				"patta_holder_name":   c.HolderName,
				"village_name":        c.Village,
				"district":            c.District,
				"state":               c.State,
				"total_area_claimed":  c.TotalAreaClaimed,
				"land_use":            c.LandUse,
				"claim_id":            c.ClaimID,
				"claim_type":          c.ClaimType,
				"date_of_application": c.ApplicationDate,
				"status":              string(c.Status),
			},
		})
	}
	return fc
}

// WriteGeoJSON encodes the placemarks to w.
func WriteGeoJSON(w io.Writer, marks []Placemark) error {
	b, err := json.Marshal(FeatureCollection(marks))
	if err != nil {
		return eris.Wrap(err, "atlas: encode geojson")
	}
	if _, err := w.Write(b); err != nil {
		return eris.Wrap(err, "atlas: write geojson")
	}
	return nil
}
