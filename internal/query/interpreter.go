// Package query turns free-text eligibility questions into structured
// filters: scheme, village, district and state.
package query

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/llm"
	"github.com/sells-group/fra-dss/internal/model"
)

// SchemeLister supplies stored scheme names for the fallback lookup.
type SchemeLister interface {
	ListSchemes(ctx context.Context) ([]model.Scheme, error)
}

// Config controls the interpreter.
type Config struct {
	// States lists the lower-case names that route a location phrase to the
	// state filter. Empty uses DefaultStates.
	States []string
	// UseLLM enables the language-model parser ahead of the keyword path.
	// It has no effect without WithLLM.
	UseLLM bool
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLLM sets the completer used when Config.UseLLM is true.
func WithLLM(c *llm.JSONCompleter) Option {
	return func(i *Interpreter) {
		i.llm = c
	}
}

// Interpreter parses eligibility questions.
type Interpreter struct {
	states  map[string]bool
	useLLM  bool
	llm     *llm.JSONCompleter
	schemes SchemeLister
}

var locationRe = regexp.MustCompile(`(?i)\bin ([A-Za-z ]+)`)

// NewInterpreter creates an Interpreter. schemes may be nil, which disables
// the stored-scheme fallback.
func NewInterpreter(cfg Config, schemes SchemeLister, opts ...Option) *Interpreter {
	states := cfg.States
	if len(states) == 0 {
		states = DefaultStates
	}
	i := &Interpreter{
		states:  make(map[string]bool, len(states)),
		useLLM:  cfg.UseLLM,
		schemes: schemes,
	}
	for _, s := range states {
		i.states[strings.ToLower(strings.TrimSpace(s))] = true
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Parse extracts filters from question. Fields that cannot be determined are
// nil; a nil Scheme means the question could not be interpreted. The only
// error returned is a cancelled context.
func (i *Interpreter) Parse(ctx context.Context, question string) (model.ParsedQuery, error) {
	if err := ctx.Err(); err != nil {
		return model.ParsedQuery{}, err
	}

	if i.useLLM && i.llm != nil {
		if pq, ok := i.parseLLM(ctx, question); ok {
			return pq, nil
		}
	}

	var pq model.ParsedQuery
	lower := strings.ToLower(question)

	pq.Scheme = model.String(MatchKeyword(lower))

	if m := locationRe.FindStringSubmatch(question); m != nil {
		loc := strings.TrimSpace(m[1])
		if i.states[strings.ToLower(loc)] {
			pq.State = model.String(loc)
		} else {
			pq.District = model.String(loc)
		}
	}

	if pq.Scheme == nil && i.schemes != nil {
		pq.Scheme = model.String(i.lookupStored(ctx, lower))
	}
	if pq.Scheme == nil {
		pq.Scheme = model.String(matchTable(broadKeywords, lower))
	}

	return pq, nil
}

// MatchKeyword returns the canonical scheme for the first keyword contained
// in the lower-cased question, or "".
func MatchKeyword(lower string) string {
	return matchTable(schemeKeywords, lower)
}

func matchTable(table []keywordScheme, lower string) string {
	for _, k := range table {
		if strings.Contains(lower, k.Keyword) {
			return k.Scheme
		}
	}
	return ""
}

func (i *Interpreter) lookupStored(ctx context.Context, lower string) string {
	schemes, err := i.schemes.ListSchemes(ctx)
	if err != nil {
		zap.L().Warn("query: list schemes for fallback", zap.Error(err))
		return ""
	}
	for _, s := range schemes {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name != "" && strings.Contains(lower, name) {
			return s.Name
		}
	}
	return ""
}
