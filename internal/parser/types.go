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

// Package parser extracts a normalized prediction record from heterogeneous
// provider output (spec.md §4.3): structured-output JSON when the provider
// supplied it, else best-effort extraction from free text, then grid
// sanitization shared by both the parse path and the persistence read path.
package parser

import "github.com/82deutschmark/arc-explainer/internal/puzzle"

// Analysis is the normalized record extracted from one provider response,
// before correctness validation and cost computation are layered on.
type Analysis struct {
	PatternDescription string
	SolvingStrategy    string
	Hints              []string
	Confidence         int

	// PredictedOutput is set for single-test puzzles.
	PredictedOutput puzzle.Grid

	// MultiplePredictedOutputs and MultiTestPredictionGrids are set for
	// multi-test puzzles. MultiTestPredictionGrids has length equal to the
	// puzzle's test count; entries the model did not predict are nil.
	MultiplePredictedOutputs bool
	MultiTestPredictionGrids []puzzle.Grid
}
