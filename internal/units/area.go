// Package units converts free-text land area measurements into acres.
package units

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// conversion maps a unit label to its acre factor.
type conversion struct {
	label  string
	factor float64
}

// acreFactors is scanned in order and the first label contained in the unit
// text wins. Regional units come before "ha" because "bigha" and "guntha"
// both contain it. A decimal is a hundredth of an acre and a kanal an
// eighth.
var acreFactors = []conversion{
	{"bigha", 0.619},
	{"guntha", 0.0247},
	{"cent", 0.0247},
	{"decimal", 0.01},
	{"kanal", 0.125},
	{"hectare", 2.47105},
	{"ha", 2.47105},
	{"acre", 1.0},
	{"square meter", 0.000247105},
	{"square metre", 0.000247105},
	{"sq m", 0.000247105},
	{"sqm", 0.000247105},
	{"square feet", 2.2957e-5},
	{"square foot", 2.2957e-5},
	{"sq ft", 2.2957e-5},
	{"sqft", 2.2957e-5},
}

var (
	magnitudeRe = regexp.MustCompile(`\d+(?:\.\d+)?|\.\d+`)
	unitRe      = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z .]*)`)
)

// Factor resolves a unit label to its acre factor. The second result is
// false when no table entry matches.
func Factor(unit string) (float64, bool) {
	u := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(unit, ".", "")))
	if u == "" {
		return 0, false
	}
	for _, c := range acreFactors {
		if strings.Contains(u, c.label) {
			return c.factor, true
		}
	}
	return 0, false
}

// ParseMagnitude returns the first numeric value in text.
func ParseMagnitude(text string) (float64, bool) {
	m := magnitudeRe.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeArea converts text such as "2.5 hectares" into "6.18 acres".
// A missing or unknown unit is read as acres. Text without a numeric value
// is returned unchanged.
func NormalizeArea(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	loc := magnitudeRe.FindStringIndex(text)
	if loc == nil {
		return text
	}
	value, err := strconv.ParseFloat(text[loc[0]:loc[1]], 64)
	if err != nil {
		return text
	}

	factor := 1.0
	if m := unitRe.FindStringSubmatch(text[loc[1]:]); m != nil {
		if f, ok := Factor(m[1]); ok {
			factor = f
		}
	}

	return fmt.Sprintf("%.2f acres", value*factor)
}
