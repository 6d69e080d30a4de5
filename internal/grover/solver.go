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

package grover

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"log/slog"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/cost"
	"github.com/82deutschmark/arc-explainer/internal/explanation"
	"github.com/82deutschmark/arc-explainer/internal/parser"
	"github.com/82deutschmark/arc-explainer/internal/prompt"
	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
	"github.com/82deutschmark/arc-explainer/internal/sandbox"
	"github.com/82deutschmark/arc-explainer/internal/streaming"
	"github.com/82deutschmark/arc-explainer/internal/validator"
)

// defaultMaxIterations is spec.md §4.5's "N (default 5)".
const defaultMaxIterations = 5

// defaultTopK is the amplification width: how many of the current
// iteration's candidates survive into the next prompt. spec.md leaves this
// unspecified ("treat as a tuning knob" — §Open Questions); DESIGN.md
// records the choice.
const defaultTopK = 3

// perfectScore is the training-set score (out of maxScore) that ends the
// loop early.
const perfectScore = maxScore

// Options configures one Run call. MaxIterations is taken literally: 0
// means zero iterations (spec.md invariant: "Grover with maxIterations=0
// → returns empty programs list, persists zero-iteration explanation"), a
// positive value runs exactly that many, and a negative value selects
// defaultMaxIterations. The HTTP layer is responsible for turning an
// omitted request field into the negative sentinel, since an int alone
// can't distinguish "omitted" from "explicitly zero".
type Options struct {
	MaxIterations int
	Temperature   float64
	UserAPIKey    string
}

// adapterResolver is the slice of provider.Registry the solver needs —
// narrowed to a role interface so tests can substitute a scripted adapter
// without configuring real provider credentials.
type adapterResolver interface {
	Resolve(modelKey string) (provider.Adapter, config.ProviderFamily, error)
}

// Solver drives the generate/score/amplify loop over a provider adapter
// and a Python sandbox.
type Solver struct {
	registry adapterResolver
	exec     *sandbox.Executor
}

func NewSolver(registry *provider.Registry, exec *sandbox.Executor) *Solver {
	return &Solver{registry: registry, exec: exec}
}

// Run executes spec.md §4.5 end to end and returns the explanation row to
// persist. modelKey carries the "grover-" prefix (e.g. "grover-gpt-5-nano");
// the wrapped base model is what's actually sent to the provider.
func (s *Solver) Run(ctx context.Context, p *puzzle.Puzzle, modelKey string, opts Options) (*explanation.Explanation, error) {
	maxIterations := opts.MaxIterations
	if maxIterations < 0 {
		maxIterations = defaultMaxIterations
	}

	baseModel := strings.TrimPrefix(modelKey, "grover-")
	adapter, _, err := s.registry.Resolve(modelKey)
	if err != nil {
		return nil, err
	}

	exp := &explanation.Explanation{
		PuzzleID:    p.ID,
		ModelKey:    modelKey,
		Mode:        prompt.ModeGrover,
		Temperature: opts.Temperature,
		CreatedAt:   time.Now(),
	}

	var (
		iterations     []explanation.GroverIteration
		previousRespID string
		bestOverall    explanation.GroverProgramResult
		haveBest       bool
		carriedForward []explanation.GroverProgramResult
	)

	for i := 0; i < maxIterations; i++ {
		select {
		case <-ctx.Done():
			return nil, apperrors.Cancellation()
		default:
		}

		var system, user string
		if i == 0 {
			system, user = buildInitialPrompt(p)
		} else {
			system, user = buildContinuationPrompt(carriedForward)
		}

		streaming.Progress(ctx, "grover", i, map[string]any{
			"event":        "prompt_sent",
			"promptLength": len(user),
			"promptPreview": preview(user, 200),
		})

		req := provider.Request{
			Model:       baseModel,
			System:      system,
			User:        user,
			Temperature: opts.Temperature,
			Options: provider.Options{
				PreviousResponseID: previousRespID,
				UserAPIKey:         opts.UserAPIKey,
			},
		}

		result, err := adapter.Analyze(ctx, req)
		if err != nil {
			return nil, err
		}
		previousRespID = result.ProviderResponseID
		exp.InputTokens += result.Usage.InputTokens
		exp.OutputTokens += result.Usage.OutputTokens
		exp.ReasoningTokens += result.Usage.ReasoningTokens

		streaming.Progress(ctx, "grover", i, map[string]any{
			"event":        "llm_response_received",
			"inputTokens":  result.Usage.InputTokens,
			"outputTokens": result.Usage.OutputTokens,
		})

		programs := extractPrograms(result.RawText)
		streaming.Progress(ctx, "grover", i, map[string]any{
			"event": "programs_extracted",
			"count": len(programs),
		})

		scored := scorePrograms(ctx, s.exec, programs, p.Train)
		streaming.Progress(ctx, "grover", i, map[string]any{
			"event":    "execution_complete",
			"programs": scored,
		})

		iterations = append(iterations, explanation.GroverIteration{Index: i, Programs: scored})

		for _, prog := range scored {
			if !haveBest || prog.Score > bestOverall.Score {
				bestOverall = prog
				haveBest = true
			}
		}

		if haveBest && bestOverall.Score >= perfectScore {
			break
		}

		carriedForward = topKAmplified(scored, defaultTopK)
		if len(carriedForward) == 0 {
			// No programs were extracted from this iteration's response —
			// nothing to amplify into a continuation prompt, so stop rather
			// than loop on an empty hand.
			break
		}
	}

	exp.TotalTokens = exp.InputTokens + exp.OutputTokens + exp.ReasoningTokens
	exp.Cost = cost.Compute(modelKey, provider.TokenUsage{
		InputTokens:     exp.InputTokens,
		OutputTokens:    exp.OutputTokens,
		ReasoningTokens: exp.ReasoningTokens,
	})
	exp.ProviderResponseID = previousRespID
	exp.GroverIterationCount = len(iterations)
	exp.GroverIterations = iterations

	if !haveBest {
		return exp, nil
	}
	exp.GroverBestProgram = bestOverall.Code

	if err := s.predict(ctx, exp, bestOverall.Code, p); err != nil {
		// A best-scoring training program that fails on the test input is a
		// real (if disappointing) outcome, not an error: persist what we
		// have with no prediction rather than discarding the whole run.
		streaming.Log(ctx, slog.LevelWarn, "grover best program failed on test input", "error", err.Error())
		return exp, nil
	}

	return exp, nil
}

// predict executes the best program against every test input and fills in
// the explanation's predicted-grid fields, delegating correctness scoring
// to internal/validator exactly as the single-shot pipeline does.
func (s *Solver) predict(ctx context.Context, exp *explanation.Explanation, code string, p *puzzle.Puzzle) error {
	grids := make([]puzzle.Grid, len(p.Test))
	for i, tc := range p.Test {
		out, err := s.exec.RunTransform(ctx, code, tc.Input)
		if err != nil {
			return err
		}
		var grid puzzle.Grid
		if err := json.Unmarshal([]byte(out), &grid); err != nil {
			return apperrors.Sandbox("decode-prediction", err)
		}
		grids[i] = grid
	}

	analysis := &parser.Analysis{}
	if p.IsMultiTest() {
		analysis.MultiplePredictedOutputs = true
		analysis.MultiTestPredictionGrids = grids
		exp.MultiplePredictedOutputs = true
		exp.MultiTestPredictionGrids = grids
	} else if len(grids) > 0 {
		analysis.PredictedOutput = grids[0]
		exp.PredictedOutput = grids[0]
	}

	verdict := validator.Validate(analysis, p)
	exp.IsPredictionCorrect = verdict.IsPredictionCorrect
	exp.MultiTestAllCorrect = verdict.MultiTestAllCorrect
	exp.PerTestCorrect = verdict.PerTestCorrect
	return nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
