package provider

import (
	"testing"

	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIAdapter_BuildRequest_Continuation(t *testing.T) {
	adapter := NewOpenAI(config.ProviderConfig{Family: config.FamilyOpenAI, APIKey: "sk-test"}, nil)

	t.Run("continuation omits system prompt and prior turns", func(t *testing.T) {
		req := Request{
			Model:  "gpt-5",
			System: "this should not be re-sent",
			User:   "continue please",
			Options: Options{
				PreviousResponseID: "resp_123",
			},
		}
		body, err := adapter.buildRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "resp_123", body.PreviousResponseID)
		assert.Empty(t, body.Instructions)
		require.Len(t, body.Input, 1)
		assert.Equal(t, "user", body.Input[0].Role)
	})

	t.Run("initial call carries full system and user prompt", func(t *testing.T) {
		req := Request{Model: "gpt-5", System: "system prompt", User: "user prompt"}
		body, err := adapter.buildRequest(req)
		require.NoError(t, err)
		assert.Empty(t, body.PreviousResponseID)
		assert.Equal(t, "system prompt", body.Instructions)
	})

	t.Run("reasoning model sets reasoning config, not temperature", func(t *testing.T) {
		req := Request{Model: "o3-mini", User: "solve this", Temperature: 0.7}
		body, err := adapter.buildRequest(req)
		require.NoError(t, err)
		require.NotNil(t, body.Reasoning)
		assert.Nil(t, body.Temperature)
	})

	t.Run("non-reasoning model sets temperature", func(t *testing.T) {
		req := Request{Model: "gpt-4.1", User: "solve this", Temperature: 0.7}
		body, err := adapter.buildRequest(req)
		require.NoError(t, err)
		require.NotNil(t, body.Temperature)
		assert.Equal(t, 0.7, *body.Temperature)
	})
}

func TestProcessResponsesResponse(t *testing.T) {
	resp := &openAIResponsesResponse{
		ID: "resp_abc",
		Output: []openAIOutputItem{
			{Type: "message", Content: []openAIOutputContentPart{{Type: "output_text", Text: `{"predictedOutput":[[1,2]]}`}}},
		},
		Usage: &openAIUsage{InputTokens: 100, OutputTokens: 50, OutputTokensDetails: &openAIOutputTokenDetail{ReasoningTokens: 20}},
	}
	result := processResponsesResponse(resp)
	assert.Equal(t, "resp_abc", result.ProviderResponseID)
	assert.Equal(t, StatusComplete, result.Status)
	assert.JSONEq(t, `{"predictedOutput":[[1,2]]}`, result.RawText)
	assert.Equal(t, 100, result.Usage.InputTokens)
	assert.Equal(t, 20, result.Usage.ReasoningTokens)
}

func TestIsOpenAIReasoningModel(t *testing.T) {
	assert.True(t, isOpenAIReasoningModel("o3-mini"))
	assert.True(t, isOpenAIReasoningModel("gpt-5"))
	assert.True(t, isOpenAIReasoningModel("o4-mini-high"))
	assert.False(t, isOpenAIReasoningModel("gpt-4.1"))
	assert.False(t, isOpenAIReasoningModel("gpt-4o"))
}
