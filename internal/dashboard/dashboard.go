// Package dashboard reports state-wise claim and title figures and imports
// the published state-wise tables.
package dashboard

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fra-dss/internal/model"
)

// Store is the persistence the dashboard needs.
type Store interface {
	UpsertStatewise(ctx context.Context, rows []model.StatewiseClaims) (int64, error)
	StatewiseSummary(ctx context.Context) ([]model.StatewiseClaims, error)
}

// KPI titles.
const (
	KPITotalClaims    = "Total Claims"
	KPIVerifiedClaims = "Verified Claims"
	KPIStatesCovered  = "States Covered"
)

// KPI is one headline figure.
type KPI struct {
	Title string `json:"title"`
	Value int64  `json:"value"`
}

// StateRow is one state's figures. Progress is titles as a percentage of
// claims and is null for a state with no claims.
type StateRow struct {
	StateName   string   `json:"state_name"`
	ClaimsTotal int64    `json:"claims_total"`
	TitlesTotal int64    `json:"titles_total"`
	Progress    *float64 `json:"progress"`
}

// Summary is the dashboard payload.
type Summary struct {
	KPIs      []KPI      `json:"kpis"`
	Statewise []StateRow `json:"statewise"`
}

// Service builds dashboard views.
type Service struct {
	store Store
}

// NewService creates a Service.
func NewService(st Store) *Service {
	return &Service{store: st}
}

// Summary totals the state-wise table. Titles granted count as verified
// claims. States are ordered by claims, largest first.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	rows, err := s.store.StatewiseSummary(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: statewise summary")
	}
	return Summarize(rows), nil
}

// Summarize builds the summary from raw rows.
func Summarize(rows []model.StatewiseClaims) *Summary {
	var claims, titles int64
	out := make([]StateRow, 0, len(rows))
	for _, r := range rows {
		claims += r.ClaimsTotal
		titles += r.TitlesTotal
		sr := StateRow{StateName: r.StateName, ClaimsTotal: r.ClaimsTotal, TitlesTotal: r.TitlesTotal}
		if r.ClaimsTotal != 0 {
			p := r.Progress()
			sr.Progress = &p
		}
		out = append(out, sr)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ClaimsTotal != out[j].ClaimsTotal {
			return out[i].ClaimsTotal > out[j].ClaimsTotal
		}
		return out[i].StateName < out[j].StateName
	})

	return &Summary{
		KPIs: []KPI{
			{Title: KPITotalClaims, Value: claims},
			{Title: KPIVerifiedClaims, Value: titles},
			{Title: KPIStatesCovered, Value: int64(len(rows))},
		},
		Statewise: out,
	}
}
