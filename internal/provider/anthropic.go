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
	"encoding/base64"
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

// AnthropicAdapter implements Adapter over the Messages API. Anthropic has
// no server-side conversation store reachable by id, so the continuation
// contract's "no native chaining" branch (spec.md §4.1 point 4) always
// applies: every call carries the full prompt.
type AnthropicAdapter struct {
	cfg     config.ProviderConfig
	client  *httpclient.Client
	metrics *observability.Metrics
}

func NewAnthropic(cfg config.ProviderConfig, metrics *observability.Metrics) *AnthropicAdapter {
	return &AnthropicAdapter{
		cfg:     cfg,
		client:  httpclient.New(httpclient.WithHeaderParser(httpclient.ParseAnthropicHeaders)),
		metrics: metrics,
	}
}

func (a *AnthropicAdapter) Capabilities() Capabilities {
	return Capabilities{
		Family:                   config.FamilyAnthropic,
		SupportsServerSideState:  false,
		SupportsStructuredOutput: true, // via system-prompt schema instructions, not native
		SupportsStreaming:        true,
		SupportsTools:            true,
		SupportsVision:           true,
	}
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     *map[string]any `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	Source    *anthropicImageSource `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Stream      bool               `json:"stream,omitempty"`
	System      string             `json:"system,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
}

type anthropicResponse struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      *anthropicUsage    `json:"usage"`
	Error      *anthropicError    `json:"error"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type anthropicStreamResponse struct {
	Type         string                `json:"type"`
	Index        int                   `json:"index"`
	ContentBlock *anthropicContent     `json:"content_block,omitempty"`
	Delta        *anthropicStreamDelta `json:"delta,omitempty"`
	Usage        *anthropicUsage       `json:"usage,omitempty"`
	Message      *anthropicResponse    `json:"message,omitempty"`
}

type anthropicStreamDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
}

// Analyze builds the full prompt (continuation is never possible) and
// issues a Messages API call, streaming if a handler is set.
func (a *AnthropicAdapter) Analyze(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	body := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.Options.MaxOutputTokens,
		Temperature: req.Temperature,
		System:      a.buildSystem(req),
		Messages:    []anthropicMessage{a.buildUserMessage(req)},
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = 8192
	}
	for _, t := range req.Options.Tools {
		body.Tools = append(body.Tools, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: t.Parameters})
	}

	stream := req.Options.StreamHandler != nil
	body.Stream = stream

	var result *Result
	var err error
	if stream {
		result, err = a.callStreaming(ctx, body, req.Options.StreamHandler)
	} else {
		result, err = a.callOnce(ctx, body)
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

// buildSystem prepends schema instructions when structured output was
// requested, since Anthropic has no native JSON-schema constraint.
func (a *AnthropicAdapter) buildSystem(req Request) string {
	system := req.System
	if spec := req.Options.StructuredOutput; spec != nil && spec.Schema != nil {
		schemaJSON, err := json.MarshalIndent(spec.Schema, "", "  ")
		if err == nil {
			instructions := fmt.Sprintf("You must respond with valid JSON matching this exact schema:\n\n%s\n\nOutput ONLY valid JSON, no other text.", string(schemaJSON))
			if system != "" {
				system = system + "\n\n" + instructions
			} else {
				system = instructions
			}
		}
	}
	return system
}

func (a *AnthropicAdapter) buildUserMessage(req Request) anthropicMessage {
	content := []anthropicContent{{Type: "text", Text: req.User}}
	for _, img := range req.Images {
		if len(img.Data) == 0 {
			continue
		}
		content = append(content, anthropicContent{
			Type: "image",
			Source: &anthropicImageSource{
				Type:      "base64",
				MediaType: img.MimeType,
				Data:      base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	return anthropicMessage{Role: "user", Content: content}
}

func (a *AnthropicAdapter) endpoint() string {
	return strings.TrimRight(a.cfg.BaseURL, "/") + "/messages"
}

func (a *AnthropicAdapter) newHTTPRequest(ctx context.Context, payload []byte, apiKey string) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	return httpReq, nil
}

func (a *AnthropicAdapter) callOnce(ctx context.Context, body anthropicRequest) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.ProviderProtocol("anthropic", err)
	}
	httpReq, err := a.newHTTPRequest(ctx, payload, a.cfg.APIKey)
	if err != nil {
		return nil, apperrors.ProviderProtocol("anthropic", err)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.ProviderTimeout("anthropic", err)
		}
		return nil, apperrors.ProviderProtocol("anthropic", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, apperrors.ProviderAuth("anthropic", fmt.Errorf("%s", string(data)))
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.ProviderRateLimit("anthropic", 2*time.Second, fmt.Errorf("%s", string(data)))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ProviderProtocol("anthropic", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data)))
	}

	var out anthropicResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, apperrors.ProviderProtocol("anthropic", err)
	}
	if out.Error != nil {
		return nil, apperrors.ProviderProtocol("anthropic", fmt.Errorf("%s: %s", out.Error.Type, out.Error.Message))
	}

	return anthropicResultFromResponse(&out), nil
}

// anthropicResultFromResponse concatenates text content blocks (spec.md
// §4.3 point 3: content-block providers join text before JSON extraction)
// and extracts tool_use blocks.
func anthropicResultFromResponse(resp *anthropicResponse) *Result {
	result := &Result{ProviderResponseID: resp.ID, Status: StatusComplete}
	if resp.StopReason == "max_tokens" {
		result.Status = StatusIncomplete
		result.IncompleteReason = "max_tokens"
	}

	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			var args map[string]any
			if block.Input != nil {
				args = *block.Input
			}
			raw, _ := json.Marshal(args)
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
				RawJSON:   string(raw),
			})
		}
	}
	result.RawText = text.String()
	if resp.Usage != nil {
		result.Usage = TokenUsage{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens}
	}
	return result
}

// callStreaming reads the Messages API's SSE stream (content_block_start /
// content_block_delta / content_block_stop / message_delta / message_stop)
// and assembles the same Result shape, buffering fragmented tool-argument
// JSON deltas per content-block index until the block closes.
func (a *AnthropicAdapter) callStreaming(ctx context.Context, body anthropicRequest, handler StreamHandler) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.ProviderProtocol("anthropic", err)
	}
	httpReq, err := a.newHTTPRequest(ctx, payload, a.cfg.APIKey)
	if err != nil {
		return nil, apperrors.ProviderProtocol("anthropic", err)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.ProviderTimeout("anthropic", err)
		}
		return nil, apperrors.ProviderProtocol("anthropic", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, apperrors.ProviderProtocol("anthropic", fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data)))
	}

	result := &Result{Status: StatusComplete}
	var text strings.Builder
	toolMeta := map[int]*ToolCall{}
	toolJSON := map[int]*strings.Builder{}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var ev anthropicStreamResponse
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}

		switch ev.Type {
		case "content_block_start":
			if ev.ContentBlock != nil && ev.ContentBlock.Type == "tool_use" {
				toolMeta[ev.Index] = &ToolCall{ID: ev.ContentBlock.ID, Name: ev.ContentBlock.Name}
				toolJSON[ev.Index] = &strings.Builder{}
			}
		case "content_block_delta":
			if ev.Delta == nil {
				continue
			}
			if ev.Delta.Text != "" {
				text.WriteString(ev.Delta.Text)
				if handler != nil {
					_ = handler(StreamChunk{Type: StreamEventTextDelta, Text: ev.Delta.Text})
				}
			}
			if ev.Delta.Type == "input_json_delta" && ev.Delta.PartialJSON != "" {
				if buf, ok := toolJSON[ev.Index]; ok {
					buf.WriteString(ev.Delta.PartialJSON)
				}
			}
		case "content_block_stop":
			if tc, ok := toolMeta[ev.Index]; ok {
				if buf, ok := toolJSON[ev.Index]; ok && buf.Len() > 0 {
					var args map[string]any
					if json.Unmarshal([]byte(buf.String()), &args) == nil {
						tc.Arguments = args
					}
					tc.RawJSON = buf.String()
				}
				result.ToolCalls = append(result.ToolCalls, *tc)
				if handler != nil {
					_ = handler(StreamChunk{Type: StreamEventToolCall, ToolCall: tc})
				}
			}
		case "message_delta":
			if ev.Usage != nil {
				result.Usage.OutputTokens = ev.Usage.OutputTokens
			}
		case "message_stop":
			if handler != nil {
				_ = handler(StreamChunk{Type: StreamEventDone})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.ProviderProtocol("anthropic", err)
	}

	result.RawText = text.String()
	return result, nil
}
