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

// Package provider implements the adapter layer over OpenAI, xAI Grok,
// Anthropic, Gemini, OpenRouter, and DeepSeek. Every adapter satisfies
// Adapter; callers never branch on concrete provider type.
package provider

import (
	"context"
	"time"

	"github.com/82deutschmark/arc-explainer/internal/config"
)

// Message is one turn in a conversation sent to a provider. Role is one of
// "system", "user", "assistant", or "tool".
type Message struct {
	Role       string
	Content    string
	Images     []ImageContent
	ToolCallID string
	ToolName   string
}

// ImageContent is an inline or referenced image attached to a message, used
// by the ARC-3 agent runner to hand a rendered frame to a vision-capable
// model.
type ImageContent struct {
	MimeType string
	Data     []byte
	URL      string
}

// ReasoningEffort, ReasoningVerbosity, ReasoningSummary re-export the
// config package's enums so callers only need to import provider.
type (
	ReasoningEffort    = config.ReasoningEffort
	ReasoningVerbosity = config.ReasoningVerbosity
	ReasoningSummary   = config.ReasoningSummary
)

// StructuredOutputSpec describes the JSON schema a caller wants the
// provider to constrain its output to. Adapters that cannot honor schemas
// natively fall back to prompt-level JSON instructions.
type StructuredOutputSpec struct {
	Name   string
	Schema map[string]any
	Strict bool
}

// Options carries every per-call knob spec.md §4.1 enumerates for analyze.
type Options struct {
	PreviousResponseID  string
	OriginalExplanation *PriorExplanation
	PreviousAnalysis    *PriorExplanation
	ReasoningEffort     ReasoningEffort
	ReasoningVerbosity  ReasoningVerbosity
	ReasoningSummary    ReasoningSummary
	MaxOutputTokens     int
	StreamSessionID     string
	UserAPIKey          string
	Temperature         float64
	StructuredOutput    *StructuredOutputSpec
	Tools               []ToolDefinition
	StreamHandler       StreamHandler
}

// PriorExplanation is the subset of a prior analysis the prompt assembler
// and debate/retry modes need: the original pattern/strategy/hints text.
type PriorExplanation struct {
	PatternDescription string
	SolvingStrategy    string
	Hints              []string
	ChallengeText      string
}

// ToolDefinition is a callable tool surfaced to the model, used by the
// ARC-3 agent runner.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a model-issued invocation of one ToolDefinition.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
	RawJSON   string
}

// StreamEventType enumerates the kinds of events an adapter emits while
// streaming, mirrored onto the streaming bus's envelope types.
type StreamEventType string

const (
	StreamEventTextDelta      StreamEventType = "text_delta"
	StreamEventReasoningDelta StreamEventType = "reasoning_delta"
	StreamEventToolCall       StreamEventType = "tool_call"
	StreamEventDone           StreamEventType = "done"
	StreamEventError          StreamEventType = "error"
)

// StreamChunk is one incremental update during a streaming call.
type StreamChunk struct {
	Type     StreamEventType
	Text     string
	ToolCall *ToolCall
	Err      error
}

// StreamHandler receives StreamChunks as they arrive. Returning an error
// aborts the stream.
type StreamHandler func(StreamChunk) error

// Status is the completion state of an analysis call.
type Status string

const (
	StatusComplete   Status = "complete"
	StatusIncomplete Status = "incomplete"
)

// TokenUsage reports input/output/reasoning token counts for cost
// estimation and metrics.
type TokenUsage struct {
	InputTokens     int
	OutputTokens    int
	ReasoningTokens int
}

// Result is the normalized shape every adapter returns from Analyze,
// before response parsing extracts the puzzle-specific prediction fields.
// RawText/RawJSON feed internal/parser; everything else is threaded
// straight through to persistence.
type Result struct {
	RawText          string
	RawJSON          string
	ToolCalls        []ToolCall
	ReasoningLog     string
	ReasoningItems   []string
	Usage            TokenUsage
	Status           Status
	IncompleteReason string
	ProviderResponseID string
	Duration         time.Duration
}

// Capabilities reports what a provider family supports. The analysis
// orchestrator reads SupportsStructuredOutput to decide whether to attach a
// JSON schema; prompt assembly and the continuation check key off the
// provider family instead.
type Capabilities struct {
	Family                  config.ProviderFamily
	SupportsServerSideState bool
	SupportsStructuredOutput bool
	SupportsStreaming       bool
	SupportsTools           bool
	SupportsVision          bool
}

// Request bundles everything an adapter needs for one Analyze call. The
// caller (the analysis orchestrator) has already run prompt assembly;
// System/User are the finished strings.
type Request struct {
	Model       string
	System      string
	User        string
	Images      []ImageContent
	Temperature float64
	Options     Options
}

// Adapter is the polymorphic provider contract spec.md §4.1 names:
// initial-call, continuation-call, parse-response, and
// report-capabilities all fold into Analyze (continuation is controlled
// via Options.PreviousResponseID) and Capabilities.
type Adapter interface {
	// Analyze issues one provider call and returns a normalized Result.
	Analyze(ctx context.Context, req Request) (*Result, error)

	// Capabilities reports this adapter's provider family and feature set.
	Capabilities() Capabilities
}
