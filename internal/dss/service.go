// Package dss answers natural-language eligibility questions: it parses the
// question, resolves the scheme, evaluates stored claims and records the
// query in the audit log.
package dss

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/eligibility"
	"github.com/sells-group/fra-dss/internal/model"
	"github.com/sells-group/fra-dss/internal/monitoring"
)

// FailureKind tags why a check produced no result list.
type FailureKind string

const (
	FailureNoScheme      FailureKind = "no_scheme"
	FailureUnknownScheme FailureKind = "unknown_scheme"
	FailureStorage       FailureKind = "storage"
	FailureCancelled     FailureKind = "cancelled"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Outcome is the result of one eligibility check. Failures are reported
// here, never as Go errors.
type Outcome struct {
	Status  string             `json:"status"`
	Message string             `json:"message,omitempty"`
	Failure FailureKind        `json:"failure,omitempty"`
	Scheme  string             `json:"scheme,omitempty"`
	Filters *model.ParsedQuery `json:"filters,omitempty"`
	Count   int                `json:"count"`
	Results []model.Claim      `json:"results"`

	// Cause holds the underlying error of a storage failure.
	Cause error `json:"-"`
}

// OK reports whether the check succeeded.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// MarshalJSON renders failures as status, message and failure kind only.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if !o.OK() {
		return json.Marshal(struct {
			Status  string      `json:"status"`
			Message string      `json:"message"`
			Failure FailureKind `json:"failure"`
			Scheme  string      `json:"scheme,omitempty"`
		}{o.Status, o.Message, o.Failure, o.Scheme})
	}
	type plain Outcome
	return json.Marshal(plain(o))
}

func failure(kind FailureKind, msg string, cause error) Outcome {
	return Outcome{Status: StatusError, Failure: kind, Message: msg, Cause: cause}
}

// Parser turns a question into filters.
type Parser interface {
	Parse(ctx context.Context, question string) (model.ParsedQuery, error)
}

// Finder lists the claims eligible for a scheme.
type Finder interface {
	FindEligible(ctx context.Context, s model.Scheme, loc eligibility.Location) ([]model.Claim, error)
}

// Store is the persistence the service needs.
type Store interface {
	InsertScheme(ctx context.Context, s *model.Scheme) error
	ListSchemes(ctx context.Context) ([]model.Scheme, error)
	GetSchemeByName(ctx context.Context, name string) (*model.Scheme, error)
	WriteDSSLog(ctx context.Context, queryText string, resultCount int) error
}

// Service runs eligibility checks and manages schemes.
type Service struct {
	parser Parser
	finder Finder
	store  Store
}

// NewService creates a Service.
func NewService(parser Parser, finder Finder, st Store) *Service {
	return &Service{parser: parser, finder: finder, store: st}
}

// Check answers question. It never returns an error: every failure is a
// tagged Outcome.
func (s *Service) Check(ctx context.Context, question string) Outcome {
	out := s.check(ctx, question)
	if out.OK() {
		monitoring.DSSChecks.WithLabelValues(StatusOK).Inc()
	} else {
		monitoring.DSSChecks.WithLabelValues(string(out.Failure)).Inc()
	}
	return out
}

func (s *Service) check(ctx context.Context, question string) Outcome {
	log := zap.L().With(zap.String("component", "dss"), zap.String("question", question))

	parsed, err := s.parser.Parse(ctx, question)
	if err != nil {
		return failure(FailureCancelled, "Query cancelled", err)
	}

	name := parsed.SchemeName()
	if name == "" {
		log.Info("dss: no scheme in question")
		return failure(FailureNoScheme, "Could not extract scheme name from query", nil)
	}

	scheme, err := s.store.GetSchemeByName(ctx, name)
	if err != nil {
		log.Error("dss: scheme lookup failed", zap.String("scheme", name), zap.Error(err))
		return failure(FailureStorage, fmt.Sprintf("Database error: %v", err), err)
	}
	if scheme == nil {
		log.Info("dss: scheme not found", zap.String("scheme", name))
		out := failure(FailureUnknownScheme, fmt.Sprintf("Scheme '%s' not found", name), nil)
		out.Scheme = name
		return out
	}

	loc := eligibility.Location{
		Village:  parsed.VillageName(),
		District: parsed.DistrictName(),
		State:    parsed.StateName(),
	}
	results, err := s.finder.FindEligible(ctx, *scheme, loc)
	if err != nil {
		log.Error("dss: eligibility evaluation failed", zap.String("scheme", name), zap.Error(err))
		return failure(FailureStorage, fmt.Sprintf("Database error: %v", err), err)
	}
	if results == nil {
		results = []model.Claim{}
	}

	if err := s.store.WriteDSSLog(ctx, question, len(results)); err != nil {
		log.Warn("dss: write audit log failed", zap.Error(err))
	}

	log.Info("dss: check complete", zap.String("scheme", name), zap.Int("count", len(results)))
	return Outcome{
		Status:  StatusOK,
		Scheme:  name,
		Filters: &parsed,
		Count:   len(results),
		Results: results,
	}
}
