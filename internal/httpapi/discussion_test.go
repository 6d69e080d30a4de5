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

	"github.com/stretchr/testify/require"

	"github.com/82deutschmark/arc-explainer/internal/explanation"
	"github.com/82deutschmark/arc-explainer/internal/prompt"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

func TestHandleDiscussionEligibleOnlyListsServerSideStateProviders(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// openai: keeps server-side reasoning state, has a response id -> eligible.
	_, err := st.Explanations().SaveExplanation(ctx, &explanation.Explanation{
		PuzzleID: "p1", ModelKey: "gpt-5", Mode: prompt.ModeSolver,
		PredictedOutput: puzzle.Grid{{1}}, ProviderResponseID: "resp-openai-1",
	})
	require.NoError(t, err)
	// anthropic: no server-side state, even with a response id -> not eligible.
	_, err = st.Explanations().SaveExplanation(ctx, &explanation.Explanation{
		PuzzleID: "p2", ModelKey: "claude-sonnet-4", Mode: prompt.ModeSolver,
		PredictedOutput: puzzle.Grid{{1}}, ProviderResponseID: "resp-anthropic-1",
	})
	require.NoError(t, err)

	deps := &Deps{Store: st}
	req := httptest.NewRequest(http.MethodGet, "/api/discussion/eligible", nil)
	rec := httptest.NewRecorder()
	deps.handleDiscussionEligible(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Explanations []*explanation.Explanation `json:"explanations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Explanations, 1)
	require.Equal(t, "p1", body.Explanations[0].PuzzleID)
}
