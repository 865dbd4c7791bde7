package query

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/model"
)

const parsePrompt = `You extract structured filters from a natural-language question about government scheme eligibility.

Rules:
1. Extract scheme, village, district and state when present.
2. Use null for any field that is missing.
3. Output only a JSON object with the keys "scheme", "village", "district", "state". No explanation, no markdown.

Example:
Question: Who is eligible for Farm Support Scheme in Bhimganga?
Answer: {"scheme": "Farm Support Scheme", "village": "Bhimganga", "district": null, "state": null}`

// parseLLM asks the model for the filters. ok is false on any failure or
// when no scheme was identified, so the keyword path runs instead.
func (i *Interpreter) parseLLM(ctx context.Context, question string) (model.ParsedQuery, bool) {
	var raw model.ParsedQuery
	if err := i.llm.Complete(ctx, "query_parse", parsePrompt, "Question: "+question, &raw); err != nil {
		zap.L().Debug("query: llm parse failed, using keywords", zap.Error(err))
		return model.ParsedQuery{}, false
	}

	pq := model.ParsedQuery{
		Scheme:   clean(raw.Scheme),
		Village:  clean(raw.Village),
		District: clean(raw.District),
		State:    clean(raw.State),
	}
	if pq.Scheme == nil {
		return model.ParsedQuery{}, false
	}
	return pq, true
}

func clean(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if strings.EqualFold(v, "null") {
		return nil
	}
	return model.String(v)
}
