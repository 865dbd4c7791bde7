package model

import "time"

// ParsedQuery holds the structured filters extracted from a free-text
// eligibility question. Unset fields are nil.
type ParsedQuery struct {
	Scheme   *string `json:"scheme"`
	Village  *string `json:"village"`
	District *string `json:"district"`
	State    *string `json:"state"`
}

// SchemeName returns the parsed scheme or "" when none was found.
func (q ParsedQuery) SchemeName() string {
	return deref(q.Scheme)
}

// VillageName returns the parsed village or "".
func (q ParsedQuery) VillageName() string { return deref(q.Village) }

// DistrictName returns the parsed district or "".
func (q ParsedQuery) DistrictName() string { return deref(q.District) }

// StateName returns the parsed state or "".
func (q ParsedQuery) StateName() string { return deref(q.State) }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// String returns a pointer to s, or nil when s is empty.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// DSSLog is the audit record of one eligibility query.
type DSSLog struct {
	ID          string    `json:"id"`
	QueryText   string    `json:"query_text"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatewiseClaims holds published claim and title counts for one state.
type StatewiseClaims struct {
	StateName   string `json:"state_name"`
	ClaimsTotal int64  `json:"claims_total"`
	TitlesTotal int64  `json:"titles_total"`
}

// Progress returns titles as a percentage of claims, rounded to two
// decimals, or 0 when there are no claims.
func (s StatewiseClaims) Progress() float64 {
	if s.ClaimsTotal == 0 {
		return 0
	}
	p := float64(s.TitlesTotal) / float64(s.ClaimsTotal) * 100
	return float64(int64(p*100+0.5)) / 100
}
