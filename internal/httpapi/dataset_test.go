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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/82deutschmark/arc-explainer/internal/explanation"
	"github.com/82deutschmark/arc-explainer/internal/prompt"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
	"github.com/82deutschmark/arc-explainer/internal/store"
)

func TestHandleModelDatasetPerformanceBucketsPuzzles(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Puzzles().SavePuzzleMetadata(ctx, store.PuzzleMetadata{
		ID: "solved", Source: "evaluation", TrainCount: 2, TestCount: 1,
	}))
	require.NoError(t, st.Puzzles().SavePuzzleMetadata(ctx, store.PuzzleMetadata{
		ID: "missed", Source: "evaluation", TrainCount: 2, TestCount: 1,
	}))
	require.NoError(t, st.Puzzles().SavePuzzleMetadata(ctx, store.PuzzleMetadata{
		ID: "untried", Source: "evaluation", TrainCount: 2, TestCount: 1,
	}))
	require.NoError(t, st.Puzzles().SavePuzzleMetadata(ctx, store.PuzzleMetadata{
		ID: "other-dataset", Source: "training", TrainCount: 2, TestCount: 1,
	}))

	_, err := st.Explanations().SaveExplanation(ctx, &explanation.Explanation{
		PuzzleID: "solved", ModelKey: "gpt-5", Mode: prompt.ModeSolver,
		PredictedOutput: puzzle.Grid{{1}}, IsPredictionCorrect: true,
	})
	require.NoError(t, err)
	_, err = st.Explanations().SaveExplanation(ctx, &explanation.Explanation{
		PuzzleID: "missed", ModelKey: "gpt-5", Mode: prompt.ModeSolver,
		PredictedOutput: puzzle.Grid{{9}}, IsPredictionCorrect: false,
	})
	require.NoError(t, err)
	// a different model's attempt must not count toward gpt-5's bucket.
	_, err = st.Explanations().SaveExplanation(ctx, &explanation.Explanation{
		PuzzleID: "untried", ModelKey: "claude-sonnet-4", Mode: prompt.ModeSolver,
		PredictedOutput: puzzle.Grid{{1}}, IsPredictionCorrect: true,
	})
	require.NoError(t, err)

	deps := &Deps{Store: st}
	r := chi.NewRouter()
	r.Get("/api/puzzle/performance-stats/{modelName}/{datasetName}", deps.handleModelDatasetPerformance)

	req := httptest.NewRequest(http.MethodGet, "/api/puzzle/performance-stats/gpt-5/evaluation", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body modelDatasetPerformanceBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"solved"}, body.Correct)
	require.Equal(t, []string{"missed"}, body.Incorrect)
	require.Equal(t, []string{"untried"}, body.NotAttempted)
}
