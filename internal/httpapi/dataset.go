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
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
)

type modelDatasetPerformanceBody struct {
	ModelName    string   `json:"modelName"`
	DatasetName  string   `json:"datasetName"`
	Correct      []string `json:"correct"`
	Incorrect    []string `json:"incorrect"`
	NotAttempted []string `json:"notAttempted"`
}

// handleModelDatasetPerformance buckets every puzzle in a named dataset
// (a puzzle's stored Source) into correct/incorrect/not-attempted for one
// model, by joining the stored puzzle metadata (the puzzles table) with
// that model's saved explanations.
func (deps *Deps) handleModelDatasetPerformance(w http.ResponseWriter, r *http.Request) {
	modelName := chi.URLParam(r, "modelName")
	datasetName := chi.URLParam(r, "datasetName")

	metadata, err := deps.Store.Puzzles().ListPuzzleMetadata(r.Context())
	if err != nil {
		respondError(w, apperrors.Persistence(err))
		return
	}

	inDataset := make(map[string]bool)
	for _, m := range metadata {
		if m.Source == datasetName {
			inDataset[m.ID] = true
		}
	}

	explanations, err := deps.Store.Explanations().ListForModel(r.Context(), modelName)
	if err != nil {
		respondError(w, apperrors.Persistence(err))
		return
	}

	attempted := make(map[string]bool, len(explanations))
	var correct, incorrect []string
	for _, exp := range explanations {
		if !inDataset[exp.PuzzleID] || attempted[exp.PuzzleID] {
			continue
		}
		attempted[exp.PuzzleID] = true
		if exp.IsPredictionCorrect || exp.MultiTestAllCorrect {
			correct = append(correct, exp.PuzzleID)
		} else {
			incorrect = append(incorrect, exp.PuzzleID)
		}
	}

	var notAttempted []string
	for id := range inDataset {
		if !attempted[id] {
			notAttempted = append(notAttempted, id)
		}
	}

	respondJSON(w, http.StatusOK, modelDatasetPerformanceBody{
		ModelName:    modelName,
		DatasetName:  datasetName,
		Correct:      correct,
		Incorrect:    incorrect,
		NotAttempted: notAttempted,
	})
}
