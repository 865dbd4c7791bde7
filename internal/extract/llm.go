package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const cleanPrompt = `You read OCR text of an Indian Forest Rights Act claim form and return its fields as one flat JSON object.

Use exactly these keys, with an empty string for anything not present:
"Patta-Holder Name", "Father/Husband Name", "Age", "Gender", "Address", "Village Name", "Block", "District", "State", "Total Area Claimed", "Coordinates", "Land Use", "Claim ID", "Date of Application", "Type of Claim", "Water bodies", "Forest cover", "Homestead", "Declaration".

Copy values as written; do not guess. Output only the JSON object. No explanation, no markdown.`

// prefillLLM fills f from the model's answer. Unknown keys and non-scalar
// values are dropped; on failure f is left for the regex pass.
func (e *Extractor) prefillLLM(ctx context.Context, text string, f Fields) {
	var raw map[string]any
	if err := e.llm.Complete(ctx, "field_clean", cleanPrompt, text, &raw); err != nil {
		zap.L().Debug("extract: llm clean failed, using patterns", zap.Error(err))
		return
	}

	known := make(map[string]bool, len(renderOrder))
	for _, l := range renderOrder {
		known[l] = true
	}
	for k, v := range raw {
		if !known[k] {
			continue
		}
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case float64, bool:
			s = fmt.Sprint(val)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" && !strings.EqualFold(s, "null") {
			f[k] = s
		}
	}
}
