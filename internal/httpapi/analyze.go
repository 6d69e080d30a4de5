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

package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/82deutschmark/arc-explainer/internal/analysis"
	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/explanation"
	"github.com/82deutschmark/arc-explainer/internal/prompt"
	"github.com/82deutschmark/arc-explainer/internal/provider"
)

// analyzeRequestBody is the JSON body for POST /api/puzzle/analyze/{puzzleId}/{modelKey}.
type analyzeRequestBody struct {
	PromptID            string   `json:"promptId"`
	Temperature         float64  `json:"temperature"`
	OmitAnswer          bool     `json:"omitAnswer"`
	PreviousResponseID  string   `json:"previousResponseId"`
	PreviousModelKey    string   `json:"previousModelKey"`
	CustomChallenge     string   `json:"customChallenge"`
	CustomSystemPrompt  string   `json:"customSystemPrompt"`
	ReasoningEffort     string   `json:"reasoningEffort"`
	ReasoningVerbosity  string   `json:"reasoningVerbosity"`
	ReasoningSummary    string   `json:"reasoningSummary"`
	UserAPIKey          string   `json:"userApiKey"`
	OriginalExplanation *priorExplanationBody `json:"originalExplanation"`
	PreviousAnalysis    *priorExplanationBody `json:"previousAnalysis"`
}

type priorExplanationBody struct {
	PatternDescription string   `json:"patternDescription"`
	SolvingStrategy    string   `json:"solvingStrategy"`
	Hints              []string `json:"hints"`
}

func (b *priorExplanationBody) toPrior(challengeText string) *provider.PriorExplanation {
	if b == nil {
		return nil
	}
	return &provider.PriorExplanation{
		PatternDescription: b.PatternDescription,
		SolvingStrategy:    b.SolvingStrategy,
		Hints:              b.Hints,
		ChallengeText:      challengeText,
	}
}

// analysisResponseBody is the JSON shape returned for a completed (or
// parse-failed) analysis, matching spec.md §6's AnalysisResponse.
type analysisResponseBody struct {
	ExplanationID       int64    `json:"explanationId,omitempty"`
	PuzzleID            string   `json:"puzzleId"`
	ModelKey            string   `json:"modelKey"`
	Mode                string   `json:"mode"`
	PatternDescription  string   `json:"patternDescription,omitempty"`
	SolvingStrategy     string   `json:"solvingStrategy,omitempty"`
	Hints               []string `json:"hints,omitempty"`
	Confidence          int      `json:"confidence,omitempty"`
	IsPredictionCorrect bool     `json:"isPredictionCorrect"`
	MultiTestAllCorrect bool     `json:"multiTestAllCorrect,omitempty"`
	InputTokens         int      `json:"inputTokens"`
	OutputTokens        int      `json:"outputTokens"`
	ReasoningTokens     int      `json:"reasoningTokens"`
	Cost                float64  `json:"cost"`
	ProviderResponseID  string   `json:"providerResponseId,omitempty"`
}

func toAnalysisResponseBody(id int64, exp *explanation.Explanation) analysisResponseBody {
	return analysisResponseBody{
		ExplanationID:       id,
		PuzzleID:            exp.PuzzleID,
		ModelKey:             exp.ModelKey,
		Mode:                 string(exp.Mode),
		PatternDescription:   exp.PatternDescription,
		SolvingStrategy:      exp.SolvingStrategy,
		Hints:                exp.Hints,
		Confidence:           exp.Confidence,
		IsPredictionCorrect:  exp.IsPredictionCorrect,
		MultiTestAllCorrect:  exp.MultiTestAllCorrect,
		InputTokens:          exp.InputTokens,
		OutputTokens:         exp.OutputTokens,
		ReasoningTokens:      exp.ReasoningTokens,
		Cost:                 exp.Cost,
		ProviderResponseID:   exp.ProviderResponseID,
	}
}

// handleAnalyze runs one single-shot analysis pipeline call (spec.md §4.4)
// and persists its result, even when the provider's response fails to
// parse (spec.md §7 ParseError: still save a row with a null prediction).
func (deps *Deps) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	puzzleID := chi.URLParam(r, "puzzleId")
	modelKey := chi.URLParam(r, "modelKey")

	var body analyzeRequestBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}

	p, err := deps.Puzzles.Load(puzzleID)
	if err != nil {
		respondError(w, apperrors.InputValidation("unknown puzzle %q", puzzleID))
		return
	}

	var chainFamily config.ProviderFamily
	if body.PreviousResponseID != "" && body.PreviousModelKey != "" {
		chainFamily, err = config.ResolveFamily(body.PreviousModelKey)
		if err != nil {
			respondError(w, apperrors.InputValidation("unrecognized previousModelKey %q", body.PreviousModelKey))
			return
		}
	}

	req := analysis.Request{
		Mode:                prompt.Mode(body.PromptID),
		Temperature:         body.Temperature,
		OmitAnswer:          body.OmitAnswer,
		PreviousResponseID:  body.PreviousResponseID,
		ChainProviderFamily: chainFamily,
		OriginalExplanation: body.OriginalExplanation.toPrior(body.CustomChallenge),
		PreviousAnalysis:    body.PreviousAnalysis.toPrior(""),
		ReasoningEffort:     config.ReasoningEffort(body.ReasoningEffort),
		ReasoningVerbosity:  config.ReasoningVerbosity(body.ReasoningVerbosity),
		ReasoningSummary:    config.ReasoningSummary(body.ReasoningSummary),
		CustomSystemPrompt:  body.CustomSystemPrompt,
		UserAPIKey:          body.UserAPIKey,
	}
	if req.Mode == "" {
		req.Mode = prompt.ModeSolver
	}

	exp, err := deps.Orchestrator.Analyze(r.Context(), p, modelKey, req)
	if exp == nil {
		respondError(w, err)
		return
	}

	id, saveErr := deps.Store.Explanations().SaveExplanation(r.Context(), exp)
	if saveErr != nil {
		respondError(w, apperrors.Persistence(saveErr))
		return
	}

	var parseErr *apperrors.Error
	if err != nil && errors.As(err, &parseErr) && parseErr.Kind == apperrors.KindParse {
		// Persisted with a null prediction; still tell the caller the
		// response didn't parse rather than pretending it succeeded.
		respondJSON(w, http.StatusOK, struct {
			analysisResponseBody
			ParseError string `json:"parseError"`
		}{toAnalysisResponseBody(id, exp), parseErr.Message})
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toAnalysisResponseBody(id, exp))
}

// handleSaveExplained persists a batch of already-computed analyses keyed
// by model, the /save-explained endpoint the frontend uses after running
// several models client-side against one puzzle.
func (deps *Deps) handleSaveExplained(w http.ResponseWriter, r *http.Request) {
	puzzleID := chi.URLParam(r, "puzzleId")

	var body struct {
		Explanations map[string]analyzeRequestBody `json:"explanations"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, err)
		return
	}

	p, err := deps.Puzzles.Load(puzzleID)
	if err != nil {
		respondError(w, apperrors.InputValidation("unknown puzzle %q", puzzleID))
		return
	}

	ids := make(map[string]int64, len(body.Explanations))
	for modelKey, entry := range body.Explanations {
		req := analysis.Request{
			Mode:                prompt.Mode(entry.PromptID),
			Temperature:         entry.Temperature,
			OmitAnswer:          entry.OmitAnswer,
			OriginalExplanation: entry.OriginalExplanation.toPrior(entry.CustomChallenge),
			PreviousAnalysis:    entry.PreviousAnalysis.toPrior(""),
			ReasoningEffort:     config.ReasoningEffort(entry.ReasoningEffort),
			ReasoningVerbosity:  config.ReasoningVerbosity(entry.ReasoningVerbosity),
			ReasoningSummary:    config.ReasoningSummary(entry.ReasoningSummary),
			UserAPIKey:          entry.UserAPIKey,
		}
		if req.Mode == "" {
			req.Mode = prompt.ModeSolver
		}

		exp, analyzeErr := deps.Orchestrator.Analyze(r.Context(), p, modelKey, req)
		if exp == nil {
			respondError(w, analyzeErr)
			return
		}
		id, saveErr := deps.Store.Explanations().SaveExplanation(r.Context(), exp)
		if saveErr != nil {
			respondError(w, apperrors.Persistence(saveErr))
			return
		}
		ids[modelKey] = id
	}

	respondJSON(w, http.StatusOK, map[string]any{"saved": ids})
}

// handleListExplanations returns every explanation row for a puzzle.
func (deps *Deps) handleListExplanations(w http.ResponseWriter, r *http.Request) {
	puzzleID := chi.URLParam(r, "puzzleId")
	list, err := deps.Store.Explanations().ListForPuzzle(r.Context(), puzzleID)
	if err != nil {
		respondError(w, apperrors.Persistence(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"explanations": list})
}
