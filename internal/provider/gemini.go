// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package provider

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/observability"
)

// GeminiAdapter implements Adapter over the official google.golang.org/genai
// SDK rather than raw HTTP, since Gemini's API shape (camelCase JSON,
// thought-signature continuity) is awkward to hand-roll and the SDK already
// handles it. Like Anthropic, Gemini has no previous-response-id store, so
// every call carries the full prompt.
type GeminiAdapter struct {
	cfg     config.ProviderConfig
	metrics *observability.Metrics
}

func NewGemini(cfg config.ProviderConfig, metrics *observability.Metrics) *GeminiAdapter {
	return &GeminiAdapter{cfg: cfg, metrics: metrics}
}

func (a *GeminiAdapter) Capabilities() Capabilities {
	return Capabilities{
		Family:                   config.FamilyGemini,
		SupportsServerSideState:  false,
		SupportsStructuredOutput: true,
		SupportsStreaming:        true,
		SupportsTools:            true,
		SupportsVision:           true,
	}
}

func (a *GeminiAdapter) apiKey(req Request) string {
	if req.Options.UserAPIKey != "" {
		return req.Options.UserAPIKey
	}
	return a.cfg.APIKey
}

func (a *GeminiAdapter) Analyze(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: a.apiKey(req)})
	if err != nil {
		return nil, apperrors.ProviderAuth("gemini", err)
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.User}},
	}}

	genConfig := &genai.GenerateContentConfig{}
	if req.System != "" {
		genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	temp := float32(req.Temperature)
	genConfig.Temperature = &temp
	if req.Options.MaxOutputTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.Options.MaxOutputTokens)
	}
	if spec := req.Options.StructuredOutput; spec != nil && spec.Schema != nil {
		genConfig.ResponseSchema = toGenaiSchema(spec.Schema)
		genConfig.ResponseMIMEType = "application/json"
	}
	for _, t := range req.Options.Tools {
		genConfig.Tools = append(genConfig.Tools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGenaiSchema(t.Parameters),
			}},
		})
	}

	var result *Result
	if req.Options.StreamHandler != nil {
		result, err = a.generateStream(ctx, client, req.Model, contents, genConfig, req.Options.StreamHandler)
	} else {
		result, err = a.generateOnce(ctx, client, req.Model, contents, genConfig)
	}
	duration := time.Since(started)
	if result != nil {
		result.Duration = duration
	}
	if a.metrics != nil {
		inTok, outTok := 0, 0
		if result != nil {
			inTok, outTok = result.Usage.InputTokens, result.Usage.OutputTokens
		}
		a.metrics.RecordProviderCall(req.Model, string(StatusComplete), duration, inTok, outTok, 0, err)
		if err != nil {
			a.metrics.RecordProviderError(req.Model, errorKind(err))
		}
	}
	return result, err
}

func (a *GeminiAdapter) generateOnce(ctx context.Context, client *genai.Client, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*Result, error) {
	resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.ProviderTimeout("gemini", err)
		}
		return nil, apperrors.ProviderProtocol("gemini", err)
	}
	return geminiResultFromResponse(resp), nil
}

// generateStream consumes the SDK's streaming iterator, emitting text and
// function-call chunks as they arrive and assembling the final Result once
// the stream completes.
func (a *GeminiAdapter) generateStream(ctx context.Context, client *genai.Client, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig, handler StreamHandler) (*Result, error) {
	result := &Result{Status: StatusComplete}
	var text, thinking string

	for resp, err := range client.Models.GenerateContentStream(ctx, model, contents, cfg) {
		if err != nil {
			if ctx.Err() != nil {
				return nil, apperrors.ProviderTimeout("gemini", err)
			}
			return nil, apperrors.ProviderProtocol("gemini", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			switch {
			case part.Text != "" && part.Thought:
				thinking += part.Text
				if handler != nil {
					_ = handler(StreamChunk{Type: StreamEventReasoningDelta, Text: part.Text})
				}
			case part.Text != "":
				text += part.Text
				if handler != nil {
					_ = handler(StreamChunk{Type: StreamEventTextDelta, Text: part.Text})
				}
			case part.FunctionCall != nil:
				tc := ToolCall{ID: part.FunctionCall.ID, Name: part.FunctionCall.Name, Arguments: part.FunctionCall.Args}
				result.ToolCalls = append(result.ToolCalls, tc)
				if handler != nil {
					_ = handler(StreamChunk{Type: StreamEventToolCall, ToolCall: &tc})
				}
			}
		}
		if resp.UsageMetadata != nil {
			result.Usage = TokenUsage{
				InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
				OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			}
		}
	}

	result.RawText = text
	result.ReasoningLog = thinking
	if thinking != "" {
		result.ReasoningItems = []string{thinking}
	}
	if handler != nil {
		_ = handler(StreamChunk{Type: StreamEventDone})
	}
	return result, nil
}

func geminiResultFromResponse(resp *genai.GenerateContentResponse) *Result {
	result := &Result{Status: StatusComplete}
	if len(resp.Candidates) == 0 {
		return result
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonMaxTokens {
		result.Status = StatusIncomplete
		result.IncompleteReason = "max_tokens"
	}

	if candidate.Content != nil {
		var text, thinking string
		for _, part := range candidate.Content.Parts {
			switch {
			case part.Text != "" && part.Thought:
				thinking += part.Text
			case part.Text != "":
				text += part.Text
			case part.FunctionCall != nil:
				raw := fmt.Sprintf("%v", part.FunctionCall.Args)
				result.ToolCalls = append(result.ToolCalls, ToolCall{
					ID:        part.FunctionCall.ID,
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
					RawJSON:   raw,
				})
			}
		}
		result.RawText = text
		result.ReasoningLog = thinking
		if thinking != "" {
			result.ReasoningItems = []string{thinking}
		}
	}

	if resp.UsageMetadata != nil {
		result.Usage = TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return result
}

// toGenaiSchema converts the wire-level JSON-schema map shape used
// elsewhere in this package into the genai SDK's typed Schema.
func toGenaiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}
	s := &genai.Schema{}
	if t, ok := schema["type"].(string); ok {
		s.Type = genai.Type(t)
	}
	if desc, ok := schema["description"].(string); ok {
		s.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(propMap)
			}
		}
	}
	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if rs, ok := r.(string); ok {
				s.Required = append(s.Required, rs)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	if enum, ok := schema["enum"].([]any); ok {
		for _, e := range enum {
			if es, ok := e.(string); ok {
				s.Enum = append(s.Enum, es)
			}
		}
	}
	return s
}
