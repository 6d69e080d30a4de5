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

// Package explanation defines the Analysis/Explanation domain record
// (spec.md §3): the append-only, mutable-only-by-new-row result of one
// (model, puzzle, prompt-mode, turn) execution.
package explanation

import (
	"time"

	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/prompt"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

// GroverProgramResult is one candidate program's score from one Grover
// iteration (spec.md §4.5 point 2).
type GroverProgramResult struct {
	Code  string
	Score float64
	Error string
}

// GroverIteration is one pass of the iterative code-search loop, recording
// every program attempted and its training-set score.
type GroverIteration struct {
	Index    int
	Programs []GroverProgramResult
}

// Explanation is the mutable record persisted after one analysis run.
// Explanations are append-only: corrections create a new row linked back
// via RebuttingExplanationID, never an update to an existing row.
type Explanation struct {
	ID        int64
	PuzzleID  string
	ModelKey  string
	Mode      prompt.Mode

	Temperature        float64
	ReasoningEffort     config.ReasoningEffort
	ReasoningVerbosity  config.ReasoningVerbosity
	ReasoningSummary    config.ReasoningSummary

	InputTokens     int
	OutputTokens    int
	ReasoningTokens int
	TotalTokens     int
	Cost            float64

	PredictedOutput          puzzle.Grid
	MultiplePredictedOutputs bool
	MultiTestPredictionGrids []puzzle.Grid

	IsPredictionCorrect bool
	MultiTestAllCorrect bool
	PerTestCorrect      []bool

	Confidence         int
	PatternDescription string
	SolvingStrategy    string
	Hints              []string

	// ProviderResponseID is the opaque id returned by the provider, used to
	// chain a continuation request. Historically the single most damaging
	// field to drop silently (spec.md §4.1) — every write path must set it.
	ProviderResponseID string

	// RebuttingExplanationID optionally links this explanation to the one
	// it challenges or refines (debate/discussion modes).
	RebuttingExplanationID *int64

	// GroverIterationCount, GroverIterations, and GroverBestProgram are set
	// only when Mode's underlying model key is Grover-wrapped.
	GroverIterationCount int
	GroverIterations     []GroverIteration
	GroverBestProgram    string

	SystemPrompt string
	UserPrompt   string
	RawResponse  string

	CreatedAt time.Time
}

// SameProviderChain reports whether child may legally continue parent's
// response chain: both must share a provider family, derived from each
// explanation's ModelKey via config.ResolveFamily.
func SameProviderChain(parent, child *Explanation) bool {
	if parent.ProviderResponseID == "" {
		return true
	}
	parentFamily, err := config.ResolveFamily(parent.ModelKey)
	if err != nil {
		return false
	}
	childFamily, err := config.ResolveFamily(child.ModelKey)
	if err != nil {
		return false
	}
	return parentFamily == childFamily
}
