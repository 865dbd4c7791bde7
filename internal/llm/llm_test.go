package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fra-dss/pkg/anthropic"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(s string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: s}}}
}

func TestNewJSONCompleter_NilClient(t *testing.T) {
	assert.Nil(t, NewJSONCompleter(nil, Config{}))
}

func TestJSONCompleter_Complete(t *testing.T) {
	mc := new(mockClient)
	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.MaxTokens == 1024 &&
			req.System == "sys" && req.CacheTTL == "1h" &&
			req.Prompt == "question"
	})).Return(textResponse("```json\n{\"scheme\": \"PDS\",}\n```"), nil)

	c := NewJSONCompleter(mc, Config{Model: "claude-haiku-4-5-20251001"})

	var out struct {
		Scheme string `json:"scheme"`
	}
	require.NoError(t, c.Complete(context.Background(), "query_parse", "sys", "question", &out))
	assert.Equal(t, "PDS", out.Scheme)
	mc.AssertExpectations(t)
}

func TestJSONCompleter_ClientError(t *testing.T) {
	mc := new(mockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	c := NewJSONCompleter(mc, Config{Model: "m"})
	var out map[string]any
	err := c.Complete(context.Background(), "field_clean", "sys", "text", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm: field_clean")
}

func TestJSONCompleter_BadJSON(t *testing.T) {
	mc := new(mockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("I cannot help with that"), nil)

	c := NewJSONCompleter(mc, Config{Model: "m"})
	var out map[string]any
	err := c.Complete(context.Background(), "query_parse", "sys", "q", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse json")
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around", `Here you go: {"a": 1} hope that helps`, `{"a": 1}`},
		{"smart quotes", "{“a”: “b”}", `{"a": "b"}`},
		{"trailing comma", `{"a": [1, 2,], "b": 3,}`, `{"a": [1, 2], "b": 3}`},
		{"no object", "nothing", "nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}
