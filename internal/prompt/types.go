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

// Package prompt assembles the (systemPrompt, userPrompt) pair for one
// provider call, pattern-driven rather than imperative concatenation: a
// PromptContext selects an ordered list of section keys from the pattern
// table, and each section renders independently.
package prompt

import (
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

// Mode selects the system-role framing and task directive. Custom mode
// bypasses section assembly entirely and uses a raw user-provided system
// prompt.
type Mode string

const (
	ModeSolver            Mode = "solver"
	ModeExplanation       Mode = "explanation"
	ModeDebate            Mode = "debate"
	ModeDiscussion        Mode = "discussion"
	ModeAlienCommunication Mode = "alien-communication"
	ModeGepa              Mode = "gepa"
	ModeGrover            Mode = "grover"
	ModeCustom            Mode = "custom"
)

// ConversationState distinguishes the first turn of a chain from a
// continuation, which elides sections the provider's stored context
// already covers.
type ConversationState string

const (
	StateInitial      ConversationState = "initial"
	StateContinuation ConversationState = "continuation"
)

// ModeSpec declares a mode's required/optional input fields and behavior
// flags, consulted before assembly to fail fast on missing inputs.
type ModeSpec struct {
	RequiredFields      []string
	OptionalFields      []string
	RequiresEmojis      bool
	AllowsContinuation  bool
}

// modeRegistry enumerates every mode's contract. Custom intentionally
// allows nothing beyond the raw prompt it ships with.
var modeRegistry = map[Mode]ModeSpec{
	ModeSolver: {
		RequiredFields: []string{"puzzle"},
		OptionalFields: []string{"previousAnalysis"},
		AllowsContinuation: true,
	},
	ModeExplanation: {
		RequiredFields: []string{"puzzle"},
		OptionalFields: []string{"previousAnalysis"},
		AllowsContinuation: true,
	},
	ModeDebate: {
		RequiredFields: []string{"puzzle", "originalExplanation"},
		OptionalFields: []string{"customChallenge"},
		AllowsContinuation: true,
	},
	ModeDiscussion: {
		RequiredFields: []string{"puzzle", "previousAnalysis"},
		AllowsContinuation: true,
	},
	ModeAlienCommunication: {
		RequiredFields: []string{"puzzle"},
		RequiresEmojis: true,
		AllowsContinuation: true,
	},
	ModeGepa: {
		RequiredFields: []string{"puzzle"},
		AllowsContinuation: true,
	},
	// ModeGrover is never passed to Assemble — the Grover solver builds its
	// own iteration prompts (spec.md §4.5) — but it is a registered mode so
	// persisted explanations and the service factory's dispatch table can
	// validate and label it like any other.
	ModeGrover: {
		RequiredFields: []string{"puzzle"},
		AllowsContinuation: true,
	},
	ModeCustom: {
		RequiredFields: []string{"systemPrompt"},
		AllowsContinuation: false,
	},
}

// ModeSpecFor returns the registered spec for mode, or false if mode is
// unrecognized.
func ModeSpecFor(mode Mode) (ModeSpec, bool) {
	spec, ok := modeRegistry[mode]
	return spec, ok
}

// Context is the deterministic key the pattern table is built on:
// (mode, conversation-state, provider-family, is-multi-test,
// has-original-explanation, has-previous-analysis, emoji-mode).
type Context struct {
	Mode                Mode
	State               ConversationState
	ProviderFamily      config.ProviderFamily
	Puzzle              *puzzle.Puzzle
	OriginalExplanation *provider.PriorExplanation
	PreviousAnalysis    *provider.PriorExplanation
	OmitAnswer          bool

	// CustomSystemPrompt is used verbatim when Mode == ModeCustom.
	CustomSystemPrompt string
}

// chainCapable reports whether the context's provider family supports
// server-side reasoning continuity (spec.md §4.1 point 4): Anthropic and
// Gemini always get the full initial pattern regardless of state.
func (c Context) chainCapable() bool {
	return c.ProviderFamily.SupportsServerSideState()
}

func (c Context) isMultiTest() bool {
	return c.Puzzle != nil && c.Puzzle.IsMultiTest()
}
