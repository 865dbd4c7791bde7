// Package llm wraps the Anthropic client for the optional JSON-producing
// helpers: the eligibility question parser and the claim field cleaner.
package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fra-dss/internal/monitoring"
	"github.com/sells-group/fra-dss/pkg/anthropic"
)

// Config selects the model used for JSON completions.
type Config struct {
	Model     string
	MaxTokens int64
}

// JSONCompleter asks the model for a JSON object and decodes it.
type JSONCompleter struct {
	client anthropic.Client
	cfg    Config
}

// NewJSONCompleter returns nil when client is nil, so callers can treat a
// nil completer as "LLM disabled".
func NewJSONCompleter(client anthropic.Client, cfg Config) *JSONCompleter {
	if client == nil {
		return nil
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &JSONCompleter{client: client, cfg: cfg}
}

// Complete sends system and user prompts and unmarshals the answer into out.
// phase labels the log lines and token metrics.
func (c *JSONCompleter) Complete(ctx context.Context, phase, system, user string, out any) error {
	temp := 0.0
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      system,
		CacheTTL:    "1h",
		Prompt:      user,
		Temperature: &temp,
	})
	if err != nil {
		return eris.Wrapf(err, "llm: %s", phase)
	}

	u := resp.Usage
	monitoring.LLMTokens.WithLabelValues(phase, "input").Add(float64(u.InputTokens + u.CacheReadTokens + u.CacheWriteTokens))
	monitoring.LLMTokens.WithLabelValues(phase, "output").Add(float64(u.OutputTokens))
	zap.L().Debug("llm: completion",
		zap.String("phase", phase),
		zap.String("model", c.cfg.Model),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_read_tokens", u.CacheReadTokens),
	)
	if resp.Truncated() {
		zap.L().Warn("llm: answer hit max tokens", zap.String("phase", phase), zap.Int64("max_tokens", c.cfg.MaxTokens))
	}

	text := CleanJSON(resp.Text())
	if err := json.Unmarshal([]byte(text), out); err != nil {
		zap.L().Warn("llm: unparsable json answer", zap.String("phase", phase), zap.Error(err))
		return eris.Wrapf(err, "llm: %s: parse json", phase)
	}
	return nil
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

var quoteReplacer = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'")

// CleanJSON strips markdown fences, extracts the outermost JSON object,
// normalizes typographic quotes and drops trailing commas.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	text = quoteReplacer.Replace(text)
	text = trailingCommaRe.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
