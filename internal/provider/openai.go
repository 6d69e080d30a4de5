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
	"strconv"
	"strings"
	"time"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/httpclient"
	"github.com/82deutschmark/arc-explainer/internal/observability"
)

// OpenAIAdapter implements Adapter over the OpenAI Responses API. Grok uses
// the same wire shape (see grok.go), so most of the request/response types
// here are shared by both.
type OpenAIAdapter struct {
	cfg     config.ProviderConfig
	client  *httpclient.Client
	metrics *observability.Metrics
	family  config.ProviderFamily
}

// NewOpenAI builds an adapter bound to cfg. metrics may be nil.
func NewOpenAI(cfg config.ProviderConfig, metrics *observability.Metrics) *OpenAIAdapter {
	return &OpenAIAdapter{
		cfg:     cfg,
		client:  httpclient.New(httpclient.WithHeaderParser(httpclient.ParseOpenAIHeaders)),
		metrics: metrics,
		family:  config.FamilyOpenAI,
	}
}

func (a *OpenAIAdapter) Capabilities() Capabilities {
	return Capabilities{
		Family:                   a.family,
		SupportsServerSideState:  true,
		SupportsStructuredOutput: true,
		SupportsStreaming:        true,
		SupportsTools:            true,
		SupportsVision:           true,
	}
}

// --- Responses API wire types -----------------------------------------

type openAIResponsesRequest struct {
	Model              string                  `json:"model"`
	Input              []openAIInputItem       `json:"input"`
	Instructions       string                  `json:"instructions,omitempty"`
	MaxOutputTokens    int                     `json:"max_output_tokens,omitempty"`
	Temperature        *float64                `json:"temperature,omitempty"`
	Tools              []openAIResponsesTool   `json:"tools,omitempty"`
	ToolChoice         string                  `json:"tool_choice,omitempty"`
	Reasoning          *openAIReasoningConfig  `json:"reasoning,omitempty"`
	Include            []string                `json:"include,omitempty"`
	PreviousResponseID string                  `json:"previous_response_id,omitempty"`
	Store              bool                    `json:"store"`
	Stream             bool                    `json:"stream,omitempty"`
	Text               *openAITextFormat       `json:"text,omitempty"`
}

type openAITextFormat struct {
	Format *openAIJSONSchemaFormat `json:"format,omitempty"`
}

type openAIJSONSchemaFormat struct {
	Type   string         `json:"type"`
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type openAIReasoningConfig struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type openAIResponsesTool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Strict      bool           `json:"strict,omitempty"`
}

// openAIInputItem models the three variants the Responses API input array
// carries: a role/content message, a function_call (assistant turn), and a
// function_call_output (tool result fed back in).
type openAIInputItem struct {
	Type      string `json:"type,omitempty"`
	ID        string `json:"id,omitempty"`
	Role      string `json:"role,omitempty"`
	Content   []openAIContentPart `json:"content,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    *string `json:"output,omitempty"`
}

type openAIContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type openAIResponsesResponse struct {
	ID                 string                `json:"id"`
	Object             string                `json:"object"`
	CreatedAt          float64               `json:"created_at"`
	Status             string                `json:"status"`
	Error              *openAIResponseError  `json:"error,omitempty"`
	IncompleteDetails  *openAIIncomplete     `json:"incomplete_details,omitempty"`
	Model              string                `json:"model"`
	Output             []openAIOutputItem    `json:"output"`
	Reasoning          *openAIReasoningEcho  `json:"reasoning,omitempty"`
	Usage              *openAIUsage          `json:"usage,omitempty"`
	PreviousResponseID string                `json:"previous_response_id,omitempty"`
}

type openAIResponseError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type openAIIncomplete struct {
	Reason string `json:"reason"`
}

type openAIReasoningEcho struct {
	Summary []openAIReasoningSummaryItem `json:"summary,omitempty"`
}

type openAIReasoningSummaryItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openAIOutputItem struct {
	Type      string                       `json:"type"`
	ID        string                       `json:"id,omitempty"`
	Status    string                       `json:"status,omitempty"`
	Role      string                       `json:"role,omitempty"`
	Content   []openAIOutputContentPart    `json:"content,omitempty"`
	Summary   []openAIReasoningSummaryItem `json:"summary,omitempty"`
	CallID    string                       `json:"call_id,omitempty"`
	Name      string                       `json:"name,omitempty"`
	Arguments string                       `json:"arguments,omitempty"`
}

type openAIOutputContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openAIUsage struct {
	InputTokens         int                      `json:"input_tokens"`
	OutputTokens        int                      `json:"output_tokens"`
	TotalTokens         int                      `json:"total_tokens"`
	OutputTokensDetails *openAIOutputTokenDetail `json:"output_tokens_details,omitempty"`
}

type openAIOutputTokenDetail struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

// SSE event type names the Responses API streams.
const (
	eventOutputTextDelta         = "response.output_text.delta"
	eventFunctionCallArgsDelta   = "response.function_call_arguments.delta"
	eventFunctionCallArgsDone    = "response.function_call_arguments.done"
	eventReasoningSummaryDelta   = "response.reasoning_summary_text.delta"
	eventOutputItemDone          = "response.output_item.done"
	eventResponseCompleted       = "response.completed"
	eventResponseFailed          = "response.failed"
)

// reasoningModelPrefixes names OpenAI model families that use the
// reasoning-effort knob instead of temperature.
var reasoningModelPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

func isOpenAIReasoningModel(model string) bool {
	lower := strings.ToLower(model)
	for _, prefix := range reasoningModelPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// Analyze issues one Responses API call, streaming if req.Options.StreamHandler
// is set, and returns the normalized Result.
func (a *OpenAIAdapter) Analyze(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	body, err := a.buildRequest(req)
	if err != nil {
		return nil, err
	}

	stream := req.Options.StreamHandler != nil
	body.Stream = stream

	result, err := a.call(ctx, body, stream, req.Options.StreamHandler, a.apiKey(req))
	duration := time.Since(started)
	if result != nil {
		result.Duration = duration
	}

	if a.metrics != nil {
		var status string
		if result != nil {
			status = string(result.Status)
		}
		inTok, outTok, reasonTok := 0, 0, 0
		if result != nil {
			inTok, outTok, reasonTok = result.Usage.InputTokens, result.Usage.OutputTokens, result.Usage.ReasoningTokens
		}
		a.metrics.RecordProviderCall(req.Model, status, duration, inTok, outTok, reasonTok, err)
		if err != nil {
			a.metrics.RecordProviderError(req.Model, errorKind(err))
		}
	}
	return result, err
}

func (a *OpenAIAdapter) buildRequest(req Request) (*openAIResponsesRequest, error) {
	body := &openAIResponsesRequest{
		Model: req.Model,
		Store: true,
	}

	if req.Options.PreviousResponseID != "" {
		body.PreviousResponseID = req.Options.PreviousResponseID
		// Continuation contract (spec.md §4.1): input carries only the new
		// user message, never the system prompt or prior turns.
		body.Input = []openAIInputItem{textMessageItem("user", req.User)}
	} else {
		if req.System != "" {
			body.Instructions = req.System
		}
		body.Input = []openAIInputItem{userInputItem(req.User, req.Images)}
	}

	if req.Options.MaxOutputTokens > 0 {
		body.MaxOutputTokens = req.Options.MaxOutputTokens
	}

	if isOpenAIReasoningModel(req.Model) {
		reasoning := &openAIReasoningConfig{Effort: string(req.Options.ReasoningEffort)}
		if reasoning.Effort == "" {
			reasoning.Effort = string(config.ReasoningEffortMedium)
		}
		if req.Options.ReasoningSummary != "" && req.Options.ReasoningSummary != config.ReasoningSummaryNone {
			reasoning.Summary = string(req.Options.ReasoningSummary)
		}
		body.Reasoning = reasoning
		body.Include = []string{"reasoning.encrypted_content"}
	} else {
		temp := req.Temperature
		body.Temperature = &temp
	}

	for _, t := range req.Options.Tools {
		body.Tools = append(body.Tools, openAIResponsesTool{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}

	if spec := req.Options.StructuredOutput; spec != nil {
		body.Text = &openAITextFormat{
			Format: &openAIJSONSchemaFormat{
				Type:   "json_schema",
				Name:   spec.Name,
				Strict: spec.Strict,
				Schema: spec.Schema,
			},
		}
	}

	return body, nil
}

func textMessageItem(role, text string) openAIInputItem {
	return openAIInputItem{
		Type: "message",
		Role: role,
		Content: []openAIContentPart{{Type: "input_text", Text: text}},
	}
}

func userInputItem(text string, images []ImageContent) openAIInputItem {
	parts := []openAIContentPart{{Type: "input_text", Text: text}}
	for _, img := range images {
		if img.URL != "" {
			parts = append(parts, openAIContentPart{Type: "input_image", ImageURL: img.URL})
		}
	}
	return openAIInputItem{Type: "message", Role: "user", Content: parts}
}

func (a *OpenAIAdapter) endpoint() string {
	return strings.TrimRight(a.cfg.BaseURL, "/") + "/responses"
}

func (a *OpenAIAdapter) apiKey(req Request) string {
	if req.Options.UserAPIKey != "" {
		return req.Options.UserAPIKey
	}
	return a.cfg.APIKey
}

func (a *OpenAIAdapter) call(ctx context.Context, body *openAIResponsesRequest, stream bool, handler StreamHandler, apiKey string) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.ProviderProtocol("openai", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.ProviderProtocol("openai", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.ProviderTimeout("openai", err)
		}
		return nil, apperrors.ProviderProtocol("openai", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, a.handleErrorResponse(resp)
	}

	if stream {
		return a.consumeStream(resp.Body, handler)
	}

	var out openAIResponsesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperrors.ProviderProtocol("openai", err)
	}
	return processResponsesResponse(&out), nil
}

func (a *OpenAIAdapter) handleErrorResponse(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	bodyStr := string(data)

	if resp.StatusCode == http.StatusUnauthorized {
		return apperrors.ProviderAuth("openai", fmt.Errorf("%s", bodyStr))
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header)
		return apperrors.ProviderRateLimit("openai", retryAfter, fmt.Errorf("%s", bodyStr))
	}
	lower := strings.ToLower(bodyStr)
	if strings.Contains(lower, "grammar") || strings.Contains(lower, "schema") {
		return apperrors.ProviderSchema("openai", fmt.Errorf("%s", bodyStr))
	}
	return apperrors.ProviderProtocol("openai", fmt.Errorf("HTTP %d: %s", resp.StatusCode, bodyStr))
}

func parseRetryAfter(h http.Header) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return 2 * time.Second
}

// processResponsesResponse extracts the normalized Result fields from a
// completed (non-streamed) Responses API payload.
func processResponsesResponse(resp *openAIResponsesResponse) *Result {
	result := &Result{
		ProviderResponseID: resp.ID,
		Status:             StatusComplete,
	}
	if resp.IncompleteDetails != nil {
		result.Status = StatusIncomplete
		result.IncompleteReason = resp.IncompleteDetails.Reason
	}

	var text strings.Builder
	var reasoningItems []string
	for _, item := range resp.Output {
		switch item.Type {
		case "message":
			for _, part := range item.Content {
				if part.Type == "output_text" {
					text.WriteString(part.Text)
				}
			}
		case "function_call":
			var args map[string]any
			_ = json.Unmarshal([]byte(item.Arguments), &args)
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        item.CallID,
				Name:      item.Name,
				Arguments: args,
				RawJSON:   item.Arguments,
			})
		case "reasoning":
			for _, s := range item.Summary {
				reasoningItems = append(reasoningItems, s.Text)
			}
		}
	}
	if resp.Reasoning != nil {
		for _, s := range resp.Reasoning.Summary {
			reasoningItems = append(reasoningItems, s.Text)
		}
	}
	result.ReasoningItems = reasoningItems
	result.ReasoningLog = strings.Join(reasoningItems, "\n\n")
	result.RawText = text.String()

	if resp.Usage != nil {
		result.Usage = TokenUsage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		}
		if resp.Usage.OutputTokensDetails != nil {
			result.Usage.ReasoningTokens = resp.Usage.OutputTokensDetails.ReasoningTokens
		}
	}
	return result
}

// consumeStream reads the Responses API SSE stream line by line using a
// bufio.Reader (not bufio.Scanner — reasoning summaries can exceed the
// scanner's 64KB token limit) and assembles the same Result shape the
// non-streaming path produces, invoking handler for each delta.
func (a *OpenAIAdapter) consumeStream(body io.Reader, handler StreamHandler) (*Result, error) {
	reader := bufio.NewReader(body)
	var text strings.Builder
	var reasoning strings.Builder
	result := &Result{Status: StatusComplete}
	emittedCallIDs := map[string]bool{}
	functionCallID, functionCallName := "", ""
	var functionArgs strings.Builder

	flushFunctionCall := func() {
		if functionCallID == "" || emittedCallIDs[functionCallID] {
			return
		}
		emittedCallIDs[functionCallID] = true
		var args map[string]any
		_ = json.Unmarshal([]byte(functionArgs.String()), &args)
		tc := ToolCall{ID: functionCallID, Name: functionCallName, Arguments: args, RawJSON: functionArgs.String()}
		result.ToolCalls = append(result.ToolCalls, tc)
		if handler != nil {
			_ = handler(StreamChunk{Type: StreamEventToolCall, ToolCall: &tc})
		}
		functionCallID, functionCallName = "", ""
		functionArgs.Reset()
	}

	var currentEvent string
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			trimmed := strings.TrimRight(string(line), "\r\n")
			switch {
			case strings.HasPrefix(trimmed, "event:"):
				currentEvent = strings.TrimSpace(strings.TrimPrefix(trimmed, "event:"))
			case strings.HasPrefix(trimmed, "data:"):
				data := strings.TrimSpace(strings.TrimPrefix(trimmed, "data:"))
				if data == "" {
					break
				}
				switch currentEvent {
				case eventOutputTextDelta:
					var ev struct {
						Delta string `json:"delta"`
					}
					if json.Unmarshal([]byte(data), &ev) == nil {
						text.WriteString(ev.Delta)
						if handler != nil {
							_ = handler(StreamChunk{Type: StreamEventTextDelta, Text: ev.Delta})
						}
					}
				case eventReasoningSummaryDelta:
					var ev struct {
						Delta string `json:"delta"`
					}
					if json.Unmarshal([]byte(data), &ev) == nil {
						reasoning.WriteString(ev.Delta)
						if handler != nil {
							_ = handler(StreamChunk{Type: StreamEventReasoningDelta, Text: ev.Delta})
						}
					}
				case eventFunctionCallArgsDelta:
					var ev struct {
						ItemID string `json:"item_id"`
						Delta  string `json:"delta"`
					}
					if json.Unmarshal([]byte(data), &ev) == nil {
						if functionCallID == "" {
							functionCallID = ev.ItemID
						}
						functionArgs.WriteString(ev.Delta)
					}
				case eventOutputItemDone:
					var ev struct {
						Item openAIOutputItem `json:"item"`
					}
					if json.Unmarshal([]byte(data), &ev) == nil && ev.Item.Type == "function_call" {
						functionCallID = ev.Item.CallID
						functionCallName = ev.Item.Name
						functionArgs.Reset()
						functionArgs.WriteString(ev.Item.Arguments)
						flushFunctionCall()
					}
				case eventResponseCompleted:
					var ev struct {
						Response openAIResponsesResponse `json:"response"`
					}
					if json.Unmarshal([]byte(data), &ev) == nil {
						result.ProviderResponseID = ev.Response.ID
						if ev.Response.Usage != nil {
							result.Usage = TokenUsage{
								InputTokens:  ev.Response.Usage.InputTokens,
								OutputTokens: ev.Response.Usage.OutputTokens,
							}
							if ev.Response.Usage.OutputTokensDetails != nil {
								result.Usage.ReasoningTokens = ev.Response.Usage.OutputTokensDetails.ReasoningTokens
							}
						}
						if ev.Response.IncompleteDetails != nil {
							result.Status = StatusIncomplete
							result.IncompleteReason = ev.Response.IncompleteDetails.Reason
						}
					}
				case eventResponseFailed:
					if handler != nil {
						_ = handler(StreamChunk{Type: StreamEventError, Err: fmt.Errorf("response.failed: %s", data)})
					}
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, apperrors.ProviderProtocol("openai", err)
		}
	}

	flushFunctionCall()
	result.RawText = text.String()
	result.ReasoningLog = reasoning.String()
	if result.ReasoningLog != "" {
		result.ReasoningItems = []string{result.ReasoningLog}
	}
	if handler != nil {
		_ = handler(StreamChunk{Type: StreamEventDone})
	}
	return result, nil
}

func errorKind(err error) string {
	var ae *apperrors.Error
	if e, ok := err.(*apperrors.Error); ok {
		ae = e
	}
	if ae != nil {
		return string(ae.Kind)
	}
	return "unknown"
}
