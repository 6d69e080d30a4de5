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

// Package puzzle defines the read-only ARC puzzle domain type and its
// on-disk loader. Puzzles are immutable singletons: the store never writes
// grid data, only metadata referencing a puzzle id.
package puzzle

import "fmt"

// Grid is a 2D integer array. Values are in [0,9] for ARC-1/2 puzzles and
// [0,15] for ARC-3 frames. Rows must be non-null and of equal length; the
// loader and the parser's sanitizer both enforce this before a Grid leaves
// their boundary.
type Grid [][]int

// Dims returns (rows, cols), or (0, 0) for an empty grid.
func (g Grid) Dims() (int, int) {
	if len(g) == 0 {
		return 0, 0
	}
	return len(g), len(g[0])
}

// Equal reports deep structural equality: same dimensions, same integers.
func (g Grid) Equal(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for i := range g {
		if len(g[i]) != len(other[i]) {
			return false
		}
		for j := range g[i] {
			if g[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// Pair is one training example: an input grid and its expected output.
type Pair struct {
	Input  Grid `json:"input"`
	Output Grid `json:"output"`
}

// TestCase is a test example. Output is nil when the puzzle is presented
// without ground truth (the common case for a held-out evaluation set).
type TestCase struct {
	Input  Grid `json:"input"`
	Output Grid `json:"output,omitempty"`
}

// Puzzle is the immutable unit of work: an 8-char hex id, ordered training
// pairs, and ordered test cases.
type Puzzle struct {
	ID    string     `json:"id"`
	Train []Pair     `json:"train"`
	Test  []TestCase `json:"test"`
}

// IsMultiTest reports whether the puzzle has two or more test cases, which
// changes both prompt assembly (multiplePredictedOutputs instructions) and
// parsing (predictedOutput1..N fields).
func (p *Puzzle) IsMultiTest() bool {
	return len(p.Test) >= 2
}

// HasGroundTruth reports whether every test case carries an expected output,
// i.e. the puzzle can be scored without an external answer key.
func (p *Puzzle) HasGroundTruth() bool {
	for _, tc := range p.Test {
		if tc.Output == nil {
			return false
		}
	}
	return len(p.Test) > 0
}

func (p *Puzzle) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("puzzle: missing id")
	}
	if len(p.Train) == 0 {
		return fmt.Errorf("puzzle %s: no training examples", p.ID)
	}
	if len(p.Test) == 0 {
		return fmt.Errorf("puzzle %s: no test cases", p.ID)
	}
	for i, pair := range p.Train {
		if err := validateGrid(pair.Input); err != nil {
			return fmt.Errorf("puzzle %s: train[%d] input: %w", p.ID, i, err)
		}
		if err := validateGrid(pair.Output); err != nil {
			return fmt.Errorf("puzzle %s: train[%d] output: %w", p.ID, i, err)
		}
	}
	for i, tc := range p.Test {
		if err := validateGrid(tc.Input); err != nil {
			return fmt.Errorf("puzzle %s: test[%d] input: %w", p.ID, i, err)
		}
		if tc.Output != nil {
			if err := validateGrid(tc.Output); err != nil {
				return fmt.Errorf("puzzle %s: test[%d] output: %w", p.ID, i, err)
			}
		}
	}
	return nil
}

func validateGrid(g Grid) error {
	if len(g) == 0 {
		return fmt.Errorf("empty grid")
	}
	width := len(g[0])
	for i, row := range g {
		if row == nil {
			return fmt.Errorf("row %d is null", i)
		}
		if len(row) != width {
			return fmt.Errorf("row %d has length %d, want %d", i, len(row), width)
		}
	}
	return nil
}
