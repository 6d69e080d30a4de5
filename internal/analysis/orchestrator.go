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

// Package analysis implements the single-shot analysis pipeline (spec.md
// §4.4): assemble a prompt, call the resolved provider, parse its
// response, score correctness, and estimate cost. The orchestrator
// returns a fully populated explanation.Explanation; persisting it is the
// caller's job, the same division grover.Solver and arc3.Runner use.
package analysis

import (
	"context"
	"time"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/cost"
	"github.com/82deutschmark/arc-explainer/internal/explanation"
	"github.com/82deutschmark/arc-explainer/internal/parser"
	"github.com/82deutschmark/arc-explainer/internal/prompt"
	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
	"github.com/82deutschmark/arc-explainer/internal/validator"
)

// adapterResolver mirrors the narrowed dependency grover.Solver and
// arc3.Runner take, so tests can inject a scripted adapter.
type adapterResolver interface {
	Resolve(modelKey string) (provider.Adapter, config.ProviderFamily, error)
}

// Orchestrator wires prompt assembly, provider dispatch, response parsing,
// and correctness validation into one call.
type Orchestrator struct {
	registry adapterResolver
}

func NewOrchestrator(registry *provider.Registry) *Orchestrator {
	return &Orchestrator{registry: registry}
}

// Request carries every per-call input spec.md §6's analyze endpoint body
// names, already decoded from JSON by the HTTP layer.
type Request struct {
	Mode                prompt.Mode
	Temperature         float64
	OmitAnswer          bool
	PreviousResponseID  string
	ChainProviderFamily config.ProviderFamily // family that produced PreviousResponseID, "" if none
	OriginalExplanation *provider.PriorExplanation
	PreviousAnalysis    *provider.PriorExplanation
	ReasoningEffort     config.ReasoningEffort
	ReasoningVerbosity  config.ReasoningVerbosity
	ReasoningSummary    config.ReasoningSummary
	CustomSystemPrompt  string
	UserAPIKey          string
}

// Analyze runs one provider call against p and returns the resulting
// explanation row, unpersisted.
func (o *Orchestrator) Analyze(ctx context.Context, p *puzzle.Puzzle, modelKey string, req Request) (*explanation.Explanation, error) {
	adapter, family, err := o.registry.Resolve(modelKey)
	if err != nil {
		return nil, err
	}

	if req.PreviousResponseID != "" {
		if err := provider.CheckContinuation(req.ChainProviderFamily, family); err != nil {
			return nil, err
		}
	}

	state := prompt.StateInitial
	if req.PreviousResponseID != "" {
		state = prompt.StateContinuation
	}

	promptCtx := prompt.Context{
		Mode:                req.Mode,
		State:               state,
		ProviderFamily:      family,
		Puzzle:              p,
		OriginalExplanation: req.OriginalExplanation,
		PreviousAnalysis:    req.PreviousAnalysis,
		OmitAnswer:          req.OmitAnswer,
		CustomSystemPrompt:  req.CustomSystemPrompt,
	}

	system, user, err := prompt.Assemble(promptCtx)
	if err != nil {
		return nil, err
	}

	var structuredOutput *provider.StructuredOutputSpec
	if adapter.Capabilities().SupportsStructuredOutput {
		structuredOutput = provider.BuildStructuredOutputSpec("arc_analysis", p)
	}

	providerReq := provider.Request{
		Model:       modelKey,
		System:      system,
		User:        user,
		Temperature: req.Temperature,
		Options: provider.Options{
			PreviousResponseID: req.PreviousResponseID,
			OriginalExplanation: req.OriginalExplanation,
			PreviousAnalysis:    req.PreviousAnalysis,
			ReasoningEffort:     req.ReasoningEffort,
			ReasoningVerbosity:  req.ReasoningVerbosity,
			ReasoningSummary:    req.ReasoningSummary,
			UserAPIKey:          req.UserAPIKey,
			Temperature:         req.Temperature,
			StructuredOutput:    structuredOutput,
		},
	}

	result, err := adapter.Analyze(ctx, providerReq)
	if err != nil {
		return nil, err
	}

	exp := &explanation.Explanation{
		PuzzleID:           p.ID,
		ModelKey:           modelKey,
		Mode:                req.Mode,
		Temperature:         req.Temperature,
		ReasoningEffort:     req.ReasoningEffort,
		ReasoningVerbosity:  req.ReasoningVerbosity,
		ReasoningSummary:    req.ReasoningSummary,
		InputTokens:         result.Usage.InputTokens,
		OutputTokens:        result.Usage.OutputTokens,
		ReasoningTokens:     result.Usage.ReasoningTokens,
		TotalTokens:         result.Usage.InputTokens + result.Usage.OutputTokens + result.Usage.ReasoningTokens,
		ProviderResponseID:  result.ProviderResponseID,
		SystemPrompt:        system,
		UserPrompt:          user,
		RawResponse:         result.RawText,
		CreatedAt:           time.Now(),
	}
	exp.Cost = cost.Compute(modelKey, result.Usage)

	a, err := parser.Parse(result.RawJSON, result.RawText, p)
	if err != nil {
		// A parse failure is not persisted as a crash: the caller still gets
		// an explanation row with usage/cost recorded and a nil prediction,
		// matching spec.md §7's ParseError handling (proceed with a null
		// prediction rather than discard the whole call).
		return exp, apperrors.Parse(result.RawText, err)
	}

	exp.PatternDescription = a.PatternDescription
	exp.SolvingStrategy = a.SolvingStrategy
	exp.Hints = a.Hints
	exp.Confidence = a.Confidence
	exp.PredictedOutput = a.PredictedOutput
	exp.MultiplePredictedOutputs = a.MultiplePredictedOutputs
	exp.MultiTestPredictionGrids = a.MultiTestPredictionGrids

	verdict := validator.Validate(a, p)
	exp.IsPredictionCorrect = verdict.IsPredictionCorrect
	exp.MultiTestAllCorrect = verdict.MultiTestAllCorrect
	exp.PerTestCorrect = verdict.PerTestCorrect

	return exp, nil
}
