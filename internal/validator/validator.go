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

// Package validator computes correctness verdicts for a parsed analysis
// against a puzzle's ground truth (spec.md §4.4). Correctness is computed
// once, at analysis time, and stored on the explanation row — it is never
// recomputed lazily by a reader.
package validator

import (
	"github.com/82deutschmark/arc-explainer/internal/parser"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

// Verdict is the correctness outcome for one analysis.
type Verdict struct {
	// IsPredictionCorrect is set for single-test puzzles.
	IsPredictionCorrect bool

	// MultiTestAllCorrect and PerTestCorrect are set for multi-test
	// puzzles. PerTestCorrect has one entry per test case.
	MultiTestAllCorrect bool
	PerTestCorrect      []bool
}

// Validate compares a's predicted grid(s) to p's ground truth via deep
// structural equality. Test cases with no ground truth (Output == nil)
// cannot be scored and count as incorrect.
func Validate(a *parser.Analysis, p *puzzle.Puzzle) Verdict {
	if !p.IsMultiTest() {
		return Verdict{IsPredictionCorrect: singleCorrect(a.PredictedOutput, p)}
	}

	n := len(p.Test)
	per := make([]bool, n)
	allCorrect := true
	for i, tc := range p.Test {
		var predicted puzzle.Grid
		if i < len(a.MultiTestPredictionGrids) {
			predicted = a.MultiTestPredictionGrids[i]
		}
		correct := tc.Output != nil && predicted != nil && predicted.Equal(tc.Output)
		per[i] = correct
		if !correct {
			allCorrect = false
		}
	}
	return Verdict{MultiTestAllCorrect: allCorrect, PerTestCorrect: per}
}

func singleCorrect(predicted puzzle.Grid, p *puzzle.Puzzle) bool {
	if len(p.Test) == 0 {
		return false
	}
	expected := p.Test[0].Output
	if expected == nil || predicted == nil {
		return false
	}
	return predicted.Equal(expected)
}
