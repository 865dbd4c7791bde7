package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

var coordinatesRe = regexp.MustCompile(`^-?\d+\.\d+, -?\d+\.\d+$`)

// ValidCoordinates reports whether s is "lat, lon": two decimal numbers
// separated by a comma and exactly one space.
func ValidCoordinates(s string) bool {
	return coordinatesRe.MatchString(s)
}

// ParsePoint converts valid "lat, lon" text to a WGS84 point (x=lon, y=lat).
func ParsePoint(s string) (*geom.Point, error) {
	if !ValidCoordinates(s) {
		return nil, eris.Errorf("extract: invalid coordinates %q", s)
	}
	latText, lonText, _ := strings.Cut(s, ", ")
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: latitude %q", latText)
	}
	lon, err := strconv.ParseFloat(lonText, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: longitude %q", lonText)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, eris.Errorf("extract: coordinates out of range %q", s)
	}
	return geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326), nil
}
