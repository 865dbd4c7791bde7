package eligibility

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/model"
	"github.com/sells-group/fra-dss/internal/store"
)

// DefaultLandUse is the land-use precondition applied to schemes whose
// eligibility document does not name one.
const DefaultLandUse = "Homestead"

// ClaimQuerier is the read access the evaluator needs from the store.
type ClaimQuerier interface {
	QueryClaims(ctx context.Context, filter store.ClaimFilter) ([]model.Claim, error)
}

// Location narrows the candidate claims. Empty fields are ignored; set
// fields match case-insensitively as substrings.
type Location struct {
	Village  string
	District string
	State    string
}

// Evaluator produces the list of claims eligible for a scheme.
type Evaluator struct {
	claims         ClaimQuerier
	defaultLandUse string
	limit          int
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithDefaultLandUse overrides the fallback land-use precondition. An empty
// value disables it.
func WithDefaultLandUse(landUse string) EvaluatorOption {
	return func(e *Evaluator) {
		e.defaultLandUse = strings.TrimSpace(landUse)
	}
}

// WithLimit caps the number of claims returned. Zero returns all.
func WithLimit(n int) EvaluatorOption {
	return func(e *Evaluator) {
		if n >= 0 {
			e.limit = n
		}
	}
}

// NewEvaluator creates an Evaluator reading claims through q.
func NewEvaluator(q ClaimQuerier, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		claims:         q,
		defaultLandUse: DefaultLandUse,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EffectiveCriteria returns the scheme's criteria with the default land-use
// precondition filled in when the scheme does not set one.
func (e *Evaluator) EffectiveCriteria(s model.Scheme) model.Criteria {
	cr := s.Eligibility
	if cr.LandUse == "" {
		cr.LandUse = e.defaultLandUse
	}
	return cr
}

// FindEligible returns the claims that satisfy the scheme's criteria within
// the given location, most recent first.
func (e *Evaluator) FindEligible(ctx context.Context, s model.Scheme, loc Location) ([]model.Claim, error) {
	cr := e.EffectiveCriteria(s)

	filter := store.ClaimFilter{
		LandUse:  cr.LandUse,
		State:    strings.TrimSpace(loc.State),
		District: strings.TrimSpace(loc.District),
		Village:  strings.TrimSpace(loc.Village),
	}

	candidates, err := e.claims.QueryClaims(ctx, filter)
	if err != nil {
		return nil, eris.Wrapf(err, "eligibility: query claims for %s", s.Name)
	}

	eligible := make([]model.Claim, 0, len(candidates))
	for _, c := range candidates {
		if !Matches(c, cr) {
			continue
		}
		eligible = append(eligible, c)
		if e.limit > 0 && len(eligible) >= e.limit {
			break
		}
	}

	zap.L().Debug("eligibility: evaluated scheme",
		zap.String("scheme", s.Name),
		zap.Int("candidates", len(candidates)),
		zap.Int("eligible", len(eligible)),
	)

	return eligible, nil
}
