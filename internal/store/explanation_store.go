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

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/explanation"
	"github.com/82deutschmark/arc-explainer/internal/parser"
	"github.com/82deutschmark/arc-explainer/internal/prompt"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

// ExplanationStore is the repository for the append-only Explanation
// table. Explanations are never updated in place; SaveExplanation is
// idempotent only with respect to the (puzzle_id, model_key,
// provider_response_id) dedupe index — a genuinely new analysis run
// always inserts a new row.
type ExplanationStore struct{ *Store }

func (s *Store) Explanations() *ExplanationStore { return &ExplanationStore{s} }

// SaveExplanation inserts exp, returning its assigned id. If a row already
// exists for (puzzleId, modelKey, providerResponseId) — the idempotent
// save-explained contract (SPEC_FULL.md §4) — the existing row's id is
// returned instead and no new row is written. ProviderResponseID is stored
// as SQL NULL when empty so providers without server-side chaining (which
// always report an empty id) don't collide with each other under the
// unique index: SQL treats NULL as distinct from every other NULL.
func (s *ExplanationStore) SaveExplanation(ctx context.Context, exp *explanation.Explanation) (int64, error) {
	predictedOutput, err := json.Marshal(exp.PredictedOutput)
	if err != nil {
		return 0, fmt.Errorf("marshal predicted_output: %w", err)
	}
	multiGrids, err := json.Marshal(exp.MultiTestPredictionGrids)
	if err != nil {
		return 0, fmt.Errorf("marshal multi_test_prediction_grids: %w", err)
	}
	perTestCorrect, err := json.Marshal(exp.PerTestCorrect)
	if err != nil {
		return 0, fmt.Errorf("marshal per_test_correct: %w", err)
	}
	hints, err := json.Marshal(exp.Hints)
	if err != nil {
		return 0, fmt.Errorf("marshal hints: %w", err)
	}
	groverIterations, err := json.Marshal(exp.GroverIterations)
	if err != nil {
		return 0, fmt.Errorf("marshal grover_iterations: %w", err)
	}

	responseID := sql.NullString{String: exp.ProviderResponseID, Valid: exp.ProviderResponseID != ""}
	var rebuttingID sql.NullInt64
	if exp.RebuttingExplanationID != nil {
		rebuttingID = sql.NullInt64{Int64: *exp.RebuttingExplanationID, Valid: true}
	}

	existingID, found, err := s.findDuplicate(ctx, exp.PuzzleID, exp.ModelKey, responseID)
	if err != nil {
		return 0, fmt.Errorf("check explanation dedupe: %w", err)
	}
	if found {
		return existingID, nil
	}

	query := fmt.Sprintf(`INSERT INTO explanations (
    puzzle_id, model_key, mode, temperature, reasoning_effort, reasoning_verbosity, reasoning_summary,
    input_tokens, output_tokens, reasoning_tokens, total_tokens, cost,
    predicted_output, multiple_predicted_outputs, multi_test_prediction_grids,
    is_prediction_correct, multi_test_all_correct, per_test_correct,
    confidence, pattern_description, solving_strategy, hints,
    provider_response_id, rebutting_explanation_id,
    grover_iteration_count, grover_iterations, grover_best_program,
    system_prompt, user_prompt, raw_response, created_at
) VALUES (%s)`, placeholderList(s, 31))

	args := []any{
		exp.PuzzleID, exp.ModelKey, string(exp.Mode), exp.Temperature,
		string(exp.ReasoningEffort), string(exp.ReasoningVerbosity), string(exp.ReasoningSummary),
		exp.InputTokens, exp.OutputTokens, exp.ReasoningTokens, exp.TotalTokens, exp.Cost,
		string(predictedOutput), exp.MultiplePredictedOutputs, string(multiGrids),
		exp.IsPredictionCorrect, exp.MultiTestAllCorrect, string(perTestCorrect),
		exp.Confidence, exp.PatternDescription, exp.SolvingStrategy, string(hints),
		responseID, rebuttingID,
		exp.GroverIterationCount, string(groverIterations), exp.GroverBestProgram,
		exp.SystemPrompt, exp.UserPrompt, exp.RawResponse, exp.CreatedAt,
	}

	// lib/pq doesn't implement Result.LastInsertId (postgres has no
	// universal equivalent); use RETURNING and QueryRow instead. sqlite3
	// and mysql both support LastInsertId directly.
	if s.dialect == "postgres" {
		var id int64
		if err := s.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert explanation: %w", err)
		}
		return id, nil
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert explanation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted explanation id: %w", err)
	}
	return id, nil
}

func (s *ExplanationStore) findDuplicate(ctx context.Context, puzzleID, modelKey string, responseID sql.NullString) (int64, bool, error) {
	if !responseID.Valid {
		return 0, false, nil
	}
	query := fmt.Sprintf(`SELECT id FROM explanations WHERE puzzle_id = %s AND model_key = %s AND provider_response_id = %s`,
		s.placeholder(1), s.placeholder(2), s.placeholder(3))
	var id int64
	err := s.db.QueryRowContext(ctx, query, puzzleID, modelKey, responseID.String).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// GetExplanation loads one explanation by id, sanitizing grid columns on
// read per spec.md §4.3's "same rule on the read path" requirement.
func (s *ExplanationStore) GetExplanation(ctx context.Context, id int64) (*explanation.Explanation, error) {
	query := fmt.Sprintf(`SELECT
    id, puzzle_id, model_key, mode, temperature, reasoning_effort, reasoning_verbosity, reasoning_summary,
    input_tokens, output_tokens, reasoning_tokens, total_tokens, cost,
    predicted_output, multiple_predicted_outputs, multi_test_prediction_grids,
    is_prediction_correct, multi_test_all_correct, per_test_correct,
    confidence, pattern_description, solving_strategy, hints,
    provider_response_id, rebutting_explanation_id,
    grover_iteration_count, grover_iterations, grover_best_program,
    system_prompt, user_prompt, raw_response, created_at
FROM explanations WHERE id = %s`, s.placeholder(1))

	row := s.db.QueryRowContext(ctx, query, id)
	return scanExplanation(row)
}

// ListForPuzzle returns every explanation recorded for puzzleID, newest
// first.
func (s *ExplanationStore) ListForPuzzle(ctx context.Context, puzzleID string) ([]*explanation.Explanation, error) {
	query := fmt.Sprintf(`SELECT
    id, puzzle_id, model_key, mode, temperature, reasoning_effort, reasoning_verbosity, reasoning_summary,
    input_tokens, output_tokens, reasoning_tokens, total_tokens, cost,
    predicted_output, multiple_predicted_outputs, multi_test_prediction_grids,
    is_prediction_correct, multi_test_all_correct, per_test_correct,
    confidence, pattern_description, solving_strategy, hints,
    provider_response_id, rebutting_explanation_id,
    grover_iteration_count, grover_iterations, grover_best_program,
    system_prompt, user_prompt, raw_response, created_at
FROM explanations WHERE puzzle_id = %s ORDER BY created_at DESC`, s.placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, puzzleID)
	if err != nil {
		return nil, fmt.Errorf("query explanations: %w", err)
	}
	defer rows.Close()

	var out []*explanation.Explanation
	for rows.Next() {
		exp, err := scanExplanationRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

// ListEligibleForDiscussion returns explanations with a non-null
// providerResponseId recorded within maxAge, restricted to provider
// families that keep server-side reasoning state — the population
// spec.md §6's discussion-eligible endpoint serves, since only those
// chains can actually be continued. The 30-day retention window itself
// is enforced by the provider, not this query (spec.md §Open Questions);
// maxAge is a pre-filter so obviously-expired rows are never offered.
func (s *ExplanationStore) ListEligibleForDiscussion(ctx context.Context, maxAge time.Duration) ([]*explanation.Explanation, error) {
	query := fmt.Sprintf(`SELECT
    id, puzzle_id, model_key, mode, temperature, reasoning_effort, reasoning_verbosity, reasoning_summary,
    input_tokens, output_tokens, reasoning_tokens, total_tokens, cost,
    predicted_output, multiple_predicted_outputs, multi_test_prediction_grids,
    is_prediction_correct, multi_test_all_correct, per_test_correct,
    confidence, pattern_description, solving_strategy, hints,
    provider_response_id, rebutting_explanation_id,
    grover_iteration_count, grover_iterations, grover_best_program,
    system_prompt, user_prompt, raw_response, created_at
FROM explanations
WHERE provider_response_id IS NOT NULL AND created_at >= %s
ORDER BY created_at DESC`, s.placeholder(1))

	cutoff := time.Now().Add(-maxAge)
	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query discussion-eligible explanations: %w", err)
	}
	defer rows.Close()

	var out []*explanation.Explanation
	for rows.Next() {
		exp, err := scanExplanationRows(rows)
		if err != nil {
			return nil, err
		}
		family, err := config.ResolveFamily(exp.ModelKey)
		if err != nil || !family.SupportsServerSideState() {
			continue
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

// ListForModel returns every explanation for modelKey across all puzzles
// (callers filter by puzzle), used to bucket a dataset's puzzles into correct/incorrect/
// not-attempted for the model-dataset performance endpoint.
func (s *ExplanationStore) ListForModel(ctx context.Context, modelKey string) ([]*explanation.Explanation, error) {
	query := fmt.Sprintf(`SELECT
    id, puzzle_id, model_key, mode, temperature, reasoning_effort, reasoning_verbosity, reasoning_summary,
    input_tokens, output_tokens, reasoning_tokens, total_tokens, cost,
    predicted_output, multiple_predicted_outputs, multi_test_prediction_grids,
    is_prediction_correct, multi_test_all_correct, per_test_correct,
    confidence, pattern_description, solving_strategy, hints,
    provider_response_id, rebutting_explanation_id,
    grover_iteration_count, grover_iterations, grover_best_program,
    system_prompt, user_prompt, raw_response, created_at
FROM explanations WHERE model_key = %s ORDER BY created_at DESC`, s.placeholder(1))

	rows, err := s.db.QueryContext(ctx, query, modelKey)
	if err != nil {
		return nil, fmt.Errorf("query explanations for model: %w", err)
	}
	defer rows.Close()

	var out []*explanation.Explanation
	for rows.Next() {
		exp, err := scanExplanationRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExplanation(row rowScanner) (*explanation.Explanation, error) {
	return scanExplanationRows(row)
}

func scanExplanationRows(row rowScanner) (*explanation.Explanation, error) {
	var (
		exp                                                     explanation.Explanation
		mode, reasoningEffort, reasoningVerbosity, reasoningSum  string
		predictedOutputJSON, multiGridsJSON, perTestJSON, hintsJSON, groverIterationsJSON string
		responseID                                              sql.NullString
		rebuttingID                                              sql.NullInt64
	)

	if err := row.Scan(
		&exp.ID, &exp.PuzzleID, &exp.ModelKey, &mode, &exp.Temperature, &reasoningEffort, &reasoningVerbosity, &reasoningSum,
		&exp.InputTokens, &exp.OutputTokens, &exp.ReasoningTokens, &exp.TotalTokens, &exp.Cost,
		&predictedOutputJSON, &exp.MultiplePredictedOutputs, &multiGridsJSON,
		&exp.IsPredictionCorrect, &exp.MultiTestAllCorrect, &perTestJSON,
		&exp.Confidence, &exp.PatternDescription, &exp.SolvingStrategy, &hintsJSON,
		&responseID, &rebuttingID,
		&exp.GroverIterationCount, &groverIterationsJSON, &exp.GroverBestProgram,
		&exp.SystemPrompt, &exp.UserPrompt, &exp.RawResponse, &exp.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan explanation: %w", err)
	}

	exp.Mode = prompt.Mode(mode)
	if responseID.Valid {
		exp.ProviderResponseID = responseID.String
	}
	if rebuttingID.Valid {
		exp.RebuttingExplanationID = &rebuttingID.Int64
	}

	if grid, ok := sanitizeJSONGrid(predictedOutputJSON); ok {
		exp.PredictedOutput = grid
	}
	if grids, ok := sanitizeJSONGridList(multiGridsJSON); ok {
		exp.MultiTestPredictionGrids = grids
	}
	_ = json.Unmarshal([]byte(perTestJSON), &exp.PerTestCorrect)
	_ = json.Unmarshal([]byte(hintsJSON), &exp.Hints)
	_ = json.Unmarshal([]byte(groverIterationsJSON), &exp.GroverIterations)

	return &exp, nil
}

func sanitizeJSONGrid(raw string) (puzzle.Grid, bool) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, false
	}
	return parser.SanitizeGrid(decoded)
}

func sanitizeJSONGridList(raw string) ([]puzzle.Grid, bool) {
	var decoded []any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, false
	}
	grids := make([]puzzle.Grid, 0, len(decoded))
	for _, item := range decoded {
		grid, ok := parser.SanitizeGrid(item)
		if !ok {
			return nil, false
		}
		grids = append(grids, grid)
	}
	return grids, true
}

func placeholderList(s *Store, n int) string {
	out := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			out += ", "
		}
		out += s.placeholder(i)
	}
	return out
}
