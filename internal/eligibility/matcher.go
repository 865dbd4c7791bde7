// Package eligibility decides which claim records satisfy a scheme's
// eligibility criteria.
package eligibility

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/fra-dss/internal/model"
	"github.com/sells-group/fra-dss/internal/units"
)

var digitsRe = regexp.MustCompile(`\d+`)

// Matches reports whether the claim satisfies every criterion that is set.
// An empty criteria document matches every claim.
func Matches(c model.Claim, cr model.Criteria) bool {
	if cr.LandUse != "" {
		if c.LandUse == "" {
			return false
		}
		if !strings.Contains(strings.ToLower(c.LandUse), strings.ToLower(cr.LandUse)) {
			return false
		}
	}

	if cr.MinAge != nil || cr.MaxAge != nil {
		age, ok := ParseAge(c.Age)
		if !ok {
			return false
		}
		if cr.MinAge != nil && age < *cr.MinAge {
			return false
		}
		if cr.MaxAge != nil && age > *cr.MaxAge {
			return false
		}
	}

	if cr.State != "" {
		if c.State == "" || !strings.EqualFold(strings.TrimSpace(cr.State), strings.TrimSpace(c.State)) {
			return false
		}
	}

	if cr.Gender != "" {
		if NormalizeGender(cr.Gender) != NormalizeGender(c.Gender) {
			return false
		}
	}

	if cr.MinLandAcres != nil || cr.MaxLandAcres != nil {
		acres := Acres(c.TotalAreaClaimed)
		if cr.MinLandAcres != nil && acres < *cr.MinLandAcres {
			return false
		}
		if cr.MaxLandAcres != nil && acres > *cr.MaxLandAcres {
			return false
		}
	}

	return true
}

// ParseAge returns the first run of digits in the free-text age field.
func ParseAge(age string) (int, bool) {
	m := digitsRe.FindString(age)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Acres reads the stored area as acres. Intake normalizes areas to acres, so
// only the leading number is used; an unparsable area counts as zero.
func Acres(area string) float64 {
	v, ok := units.ParseMagnitude(area)
	if !ok {
		return 0
	}
	return v
}

// NormalizeGender maps free-text gender onto male, female or other by its
// first letter. Anything else is returned lower-cased.
func NormalizeGender(g string) string {
	g = strings.ToLower(strings.TrimSpace(g))
	switch {
	case g == "":
		return ""
	case strings.HasPrefix(g, "m"):
		return "male"
	case strings.HasPrefix(g, "f"):
		return "female"
	case strings.HasPrefix(g, "o"):
		return "other"
	default:
		return g
	}
}
