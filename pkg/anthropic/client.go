// Package anthropic is a narrow client for single-turn prompts against the
// Messages API. The question parser and the claim field cleaner each send
// one static system prompt and one user turn, and expect JSON back.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Client sends one prompt and returns the model's answer.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// MessageRequest is a system prompt plus a single user turn.
type MessageRequest struct {
	Model     string
	MaxTokens int64
	System    string
	// CacheTTL marks System as a prompt-cache breakpoint ("5m" or "1h").
	// Empty leaves caching off.
	CacheTTL    string
	Prompt      string
	Temperature *float64
}

// MessageResponse is the model's answer.
type MessageResponse struct {
	Model      string
	Content    []ContentBlock
	StopReason string
	Usage      Usage
}

// ContentBlock is one block of an answer. Only text blocks carry Text.
type ContentBlock struct {
	Type string
	Text string
}

// Usage counts the tokens a call consumed.
type Usage struct {
	InputTokens      int64
	OutputTokens     int64
	CacheReadTokens  int64
	CacheWriteTokens int64
}

// Text concatenates the answer's text blocks.
func (r *MessageResponse) Text() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range r.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

// Truncated reports whether the answer stopped at the token limit.
func (r *MessageResponse) Truncated() bool {
	return r != nil && r.StopReason == string(sdk.StopReasonMaxTokens)
}

type sdkClient struct {
	client sdk.Client
}

// NewClient returns a Client backed by the official SDK. opts (base URL,
// HTTP client) are passed through.
func NewClient(apiKey string, opts ...option.RequestOption) Client {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &sdkClient{client: sdk.NewClient(opts...)}
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	msg, err := c.client.Messages.New(ctx, toParams(req))
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}
	return fromSDKMessage(msg), nil
}

func toParams(req MessageRequest) sdk.MessageNewParams {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
	}
	if req.System != "" {
		block := sdk.TextBlockParam{Text: req.System}
		if req.CacheTTL != "" {
			cc := sdk.NewCacheControlEphemeralParam()
			cc.TTL = sdk.CacheControlEphemeralTTL(req.CacheTTL)
			block.CacheControl = cc
		}
		params.System = []sdk.TextBlockParam{block}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	return params
}

func fromSDKMessage(msg *sdk.Message) *MessageResponse {
	blocks := make([]ContentBlock, 0, len(msg.Content))
	for _, b := range msg.Content {
		blocks = append(blocks, ContentBlock{Type: b.Type, Text: b.Text})
	}
	return &MessageResponse{
		Model:      string(msg.Model),
		Content:    blocks,
		StopReason: string(msg.StopReason),
		Usage: Usage{
			InputTokens:      msg.Usage.InputTokens,
			OutputTokens:     msg.Usage.OutputTokens,
			CacheReadTokens:  msg.Usage.CacheReadInputTokens,
			CacheWriteTokens: msg.Usage.CacheCreationInputTokens,
		},
	}
}
