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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/httpclient"
	"github.com/82deutschmark/arc-explainer/internal/observability"
)

// ChatCompletionsAdapter implements Adapter over the OpenAI Chat Completions
// wire shape, used by both OpenRouter (a routing proxy in front of dozens of
// upstream models) and DeepSeek (a native Chat Completions API). Neither has
// a previous-response-id store, so every call carries the full prompt.
type ChatCompletionsAdapter struct {
	cfg          config.ProviderConfig
	client       *httpclient.Client
	metrics      *observability.Metrics
	family       config.ProviderFamily
	extraHeaders map[string]string
}

func NewOpenRouter(cfg config.ProviderConfig, metrics *observability.Metrics) *ChatCompletionsAdapter {
	return &ChatCompletionsAdapter{
		cfg:     cfg,
		client:  httpclient.New(httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders)),
		metrics: metrics,
		family:  config.FamilyOpenRouter,
		extraHeaders: map[string]string{
			"HTTP-Referer": "https://github.com/82deutschmark/arc-explainer",
			"X-Title":      "arc-explainer",
		},
	}
}

func NewDeepSeek(cfg config.ProviderConfig, metrics *observability.Metrics) *ChatCompletionsAdapter {
	return &ChatCompletionsAdapter{
		cfg:     cfg,
		client:  httpclient.New(httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders)),
		metrics: metrics,
		family:  config.FamilyDeepSeek,
	}
}

func (a *ChatCompletionsAdapter) Capabilities() Capabilities {
	return Capabilities{
		Family:                   a.family,
		SupportsServerSideState:  false,
		SupportsStructuredOutput: a.family == config.FamilyOpenRouter,
		SupportsStreaming:        true,
		SupportsTools:            true,
		SupportsVision:           a.family == config.FamilyOpenRouter,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatCompletionsRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Tools          []chatTool      `json:"tools,omitempty"`
}

type responseFormat struct {
	Type   string         `json:"type"`
	Schema map[string]any `json:"schema,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatCompletionsResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (a *ChatCompletionsAdapter) endpoint() string {
	return strings.TrimRight(a.cfg.BaseURL, "/") + "/chat/completions"
}

func (a *ChatCompletionsAdapter) apiKey(req Request) string {
	if req.Options.UserAPIKey != "" {
		return req.Options.UserAPIKey
	}
	return a.cfg.APIKey
}

func (a *ChatCompletionsAdapter) Analyze(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	body := chatCompletionsRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.Options.MaxOutputTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.User})

	if spec := req.Options.StructuredOutput; spec != nil && a.Capabilities().SupportsStructuredOutput {
		body.ResponseFormat = &responseFormat{Type: "json_object", Schema: spec.Schema}
	}
	for _, t := range req.Options.Tools {
		body.Tools = append(body.Tools, chatTool{
			Type: "function",
			Function: chatFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}

	stream := req.Options.StreamHandler != nil
	body.Stream = stream

	var result *Result
	var err error
	if stream {
		result, err = a.callStreaming(ctx, req, body)
	} else {
		result, err = a.callOnce(ctx, req, body)
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

func (a *ChatCompletionsAdapter) newHTTPRequest(ctx context.Context, req Request, payload []byte) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey(req))
	for k, v := range a.extraHeaders {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

func (a *ChatCompletionsAdapter) callOnce(ctx context.Context, req Request, body chatCompletionsRequest) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.ProviderProtocol(string(a.family), err)
	}
	httpReq, err := a.newHTTPRequest(ctx, req, payload)
	if err != nil {
		return nil, apperrors.ProviderProtocol(string(a.family), err)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.ProviderTimeout(string(a.family), err)
		}
		return nil, apperrors.ProviderProtocol(string(a.family), err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, apperrors.ProviderAuth(string(a.family), fmt.Errorf("%s", string(data)))
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.ProviderRateLimit(string(a.family), 2*time.Second, fmt.Errorf("%s", string(data)))
	}
	if resp.StatusCode != http.StatusOK {
		lower := strings.ToLower(string(data))
		if strings.Contains(lower, "grammar") || strings.Contains(lower, "schema") {
			return nil, apperrors.ProviderSchema(string(a.family), fmt.Errorf("%s", string(data)))
		}
		return nil, apperrors.ProviderProtocol(string(a.family), fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data)))
	}

	var out chatCompletionsResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, apperrors.ProviderProtocol(string(a.family), err)
	}
	if out.Error != nil {
		return nil, apperrors.ProviderProtocol(string(a.family), fmt.Errorf("%s", out.Error.Message))
	}
	if len(out.Choices) == 0 {
		return nil, apperrors.ProviderProtocol(string(a.family), fmt.Errorf("no choices in response"))
	}

	result := &Result{ProviderResponseID: out.ID, Status: StatusComplete}
	choice := out.Choices[0]
	if choice.FinishReason == "length" {
		result.Status = StatusIncomplete
		result.IncompleteReason = "length"
	}
	result.RawText = choice.Message.Content
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID: tc.ID, Name: tc.Function.Name, Arguments: args, RawJSON: tc.Function.Arguments,
		})
	}
	if out.Usage != nil {
		result.Usage = TokenUsage{InputTokens: out.Usage.PromptTokens, OutputTokens: out.Usage.CompletionTokens}
	}
	return result, nil
}

// callStreaming reads the Chat Completions SSE stream ("data: {...}" lines
// terminated by a literal "data: [DONE]") and accumulates deltas.
func (a *ChatCompletionsAdapter) callStreaming(ctx context.Context, req Request, body chatCompletionsRequest) (*Result, error) {
	handler := req.Options.StreamHandler
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.ProviderProtocol(string(a.family), err)
	}
	httpReq, err := a.newHTTPRequest(ctx, req, payload)
	if err != nil {
		return nil, apperrors.ProviderProtocol(string(a.family), err)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.ProviderTimeout(string(a.family), err)
		}
		return nil, apperrors.ProviderProtocol(string(a.family), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, apperrors.ProviderProtocol(string(a.family), fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data)))
	}

	result := &Result{Status: StatusComplete}
	var text strings.Builder
	toolArgs := map[string]*strings.Builder{}
	toolNames := map[string]string{}
	var toolOrder []string

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		chunk := strings.TrimPrefix(line, "data: ")
		if chunk == "[DONE]" {
			break
		}

		var ev struct {
			Choices []struct {
				Delta struct {
					Content   string `json:"content"`
					ToolCalls []struct {
						ID       string `json:"id"`
						Function struct {
							Name      string `json:"name"`
							Arguments string `json:"arguments"`
						} `json:"function"`
					} `json:"tool_calls"`
				} `json:"delta"`
			} `json:"choices"`
			Usage *struct {
				PromptTokens     int `json:"prompt_tokens"`
				CompletionTokens int `json:"completion_tokens"`
			} `json:"usage"`
		}
		if json.Unmarshal([]byte(chunk), &ev) != nil {
			continue
		}
		if ev.Usage != nil {
			result.Usage = TokenUsage{InputTokens: ev.Usage.PromptTokens, OutputTokens: ev.Usage.CompletionTokens}
		}
		if len(ev.Choices) == 0 {
			continue
		}
		delta := ev.Choices[0].Delta
		if delta.Content != "" {
			text.WriteString(delta.Content)
			if handler != nil {
				_ = handler(StreamChunk{Type: StreamEventTextDelta, Text: delta.Content})
			}
		}
		for _, tc := range delta.ToolCalls {
			id := tc.ID
			if id == "" && len(toolOrder) > 0 {
				id = toolOrder[len(toolOrder)-1]
			}
			if _, ok := toolArgs[id]; !ok {
				toolArgs[id] = &strings.Builder{}
				toolOrder = append(toolOrder, id)
			}
			if tc.Function.Name != "" {
				toolNames[id] = tc.Function.Name
			}
			toolArgs[id].WriteString(tc.Function.Arguments)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.ProviderProtocol(string(a.family), err)
	}

	for _, id := range toolOrder {
		raw := toolArgs[id].String()
		var args map[string]any
		_ = json.Unmarshal([]byte(raw), &args)
		tc := ToolCall{ID: id, Name: toolNames[id], Arguments: args, RawJSON: raw}
		result.ToolCalls = append(result.ToolCalls, tc)
		if handler != nil {
			_ = handler(StreamChunk{Type: StreamEventToolCall, ToolCall: &tc})
		}
	}

	result.RawText = text.String()
	if handler != nil {
		_ = handler(StreamChunk{Type: StreamEventDone})
	}
	return result, nil
}
