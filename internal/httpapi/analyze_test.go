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
)

func TestPriorExplanationBodyToPriorNilReceiver(t *testing.T) {
	var b *priorExplanationBody
	require.Nil(t, b.toPrior("some challenge"))
}

func TestPriorExplanationBodyToPriorCarriesChallengeText(t *testing.T) {
	b := &priorExplanationBody{
		PatternDescription: "rows flip",
		SolvingStrategy:    "mirror vertically",
		Hints:              []string{"look at symmetry"},
	}
	prior := b.toPrior("puzzle was about reflection")
	require.Equal(t, "rows flip", prior.PatternDescription)
	require.Equal(t, "mirror vertically", prior.SolvingStrategy)
	require.Equal(t, []string{"look at symmetry"}, prior.Hints)
	require.Equal(t, "puzzle was about reflection", prior.ChallengeText)
}

func TestToAnalysisResponseBodyCopiesExplanationFields(t *testing.T) {
	exp := &explanation.Explanation{
		PuzzleID:            "0a1b2c3d",
		ModelKey:            "gpt-5",
		Mode:                prompt.ModeSolver,
		PatternDescription:  "doubles each cell",
		SolvingStrategy:     "multiply by 2",
		Confidence:          80,
		IsPredictionCorrect: true,
		InputTokens:         100,
		OutputTokens:        50,
		Cost:                0.01,
		ProviderResponseID:  "resp-1",
	}
	body := toAnalysisResponseBody(42, exp)
	require.Equal(t, int64(42), body.ExplanationID)
	require.Equal(t, "0a1b2c3d", body.PuzzleID)
	require.Equal(t, "gpt-5", body.ModelKey)
	require.Equal(t, "doubles each cell", body.PatternDescription)
	require.True(t, body.IsPredictionCorrect)
	require.Equal(t, "resp-1", body.ProviderResponseID)
}

func TestHandleListExplanationsReturnsSavedRows(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Explanations().SaveExplanation(ctx, &explanation.Explanation{
		PuzzleID: "0a1b2c3d", ModelKey: "gpt-5", Mode: prompt.ModeSolver,
		PredictedOutput: puzzle.Grid{{1}},
	})
	require.NoError(t, err)

	deps := &Deps{Store: st}
	r := chi.NewRouter()
	r.Get("/api/puzzle/{puzzleId}/explanations", deps.handleListExplanations)

	req := httptest.NewRequest(http.MethodGet, "/api/puzzle/0a1b2c3d/explanations", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Explanations []*explanation.Explanation `json:"explanations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Explanations, 1)
	require.Equal(t, "gpt-5", body.Explanations[0].ModelKey)
}
