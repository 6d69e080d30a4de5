package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnthropicResultFromResponse(t *testing.T) {
	t.Run("concatenates text blocks before JSON extraction", func(t *testing.T) {
		resp := &anthropicResponse{
			ID: "msg_1",
			Content: []anthropicContent{
				{Type: "text", Text: `{"pattern`},
				{Type: "text", Text: `Description":"rotate"}`},
			},
			Usage: &anthropicUsage{InputTokens: 10, OutputTokens: 5},
		}
		result := anthropicResultFromResponse(resp)
		assert.Equal(t, `{"patternDescription":"rotate"}`, result.RawText)
		assert.Equal(t, 10, result.Usage.InputTokens)
	})

	t.Run("extracts tool_use blocks", func(t *testing.T) {
		input := map[string]any{"x": float64(1)}
		resp := &anthropicResponse{
			Content: []anthropicContent{
				{Type: "tool_use", ID: "call_1", Name: "move", Input: &input},
			},
		}
		result := anthropicResultFromResponse(resp)
		assert.Len(t, result.ToolCalls, 1)
		assert.Equal(t, "move", result.ToolCalls[0].Name)
	})

	t.Run("max_tokens stop reason marks incomplete", func(t *testing.T) {
		resp := &anthropicResponse{StopReason: "max_tokens"}
		result := anthropicResultFromResponse(resp)
		assert.Equal(t, StatusIncomplete, result.Status)
	})
}
