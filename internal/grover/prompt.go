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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/82deutschmark/arc-explainer/internal/explanation"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

const systemPrompt = `You are searching for a Python program that solves an ARC-AGI puzzle.

Write one or more Python functions named transform(grid) that take a 2D list of integers (the input grid) and return a 2D list of integers (the predicted output grid). Your code may only use numpy, scipy.ndimage, math, itertools, and collections — no file or network access, no exec/eval.

Return each candidate as its own fenced python code block. Favor several distinct hypotheses over one block with many variants.`

// renderGridPlain renders a grid as whitespace-separated integers. Grover
// prompts never use the alien-communication emoji palette.
func renderGridPlain(g puzzle.Grid) string {
	var b strings.Builder
	for _, row := range g {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = strconv.Itoa(v)
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}
	return b.String()
}

// buildInitialPrompt is iteration 0 of spec.md §4.5 step 1: the puzzle's
// training examples plus the task description.
func buildInitialPrompt(p *puzzle.Puzzle) (system, user string) {
	var b strings.Builder
	b.WriteString("Training examples:\n\n")
	for i, pair := range p.Train {
		b.WriteString(fmt.Sprintf("Example %d input:\n%s\n", i+1, renderGridPlain(pair.Input)))
		b.WriteString(fmt.Sprintf("Example %d output:\n%s\n", i+1, renderGridPlain(pair.Output)))
	}
	b.WriteString("\nProduce Python programs that transform each input into its matching output.\n")
	return systemPrompt, b.String()
}

// topKAmplified sorts programs by score ascending and keeps the last k —
// the highest scorers — so that when rendered in that same ascending
// order, the best program lands last in the prompt (spec.md §4.5 step 3:
// "amplification — the LLM pays most attention to the tail of its
// conversation"). k is the tuning knob spec.md leaves unspecified;
// DESIGN.md records the chosen default.
func topKAmplified(programs []explanation.GroverProgramResult, k int) []explanation.GroverProgramResult {
	sorted := make([]explanation.GroverProgramResult, len(programs))
	copy(sorted, programs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })

	if len(sorted) <= k {
		return sorted
	}
	return sorted[len(sorted)-k:]
}

// buildContinuationPrompt is spec.md §4.5 step 4: reference the previous
// iteration's best programs and their scores, worst first, best last, and
// ask for refined candidates.
func buildContinuationPrompt(best []explanation.GroverProgramResult) (system, user string) {
	var b strings.Builder
	b.WriteString("Here are your previous candidate programs, ordered worst to best by training score (out of 10):\n\n")
	for _, prog := range best {
		b.WriteString(fmt.Sprintf("Score %.1f:\n```python\n%s\n```\n", prog.Score, prog.Code))
		if prog.Error != "" {
			b.WriteString(fmt.Sprintf("Error: %s\n", prog.Error))
		}
		b.WriteString("\n")
	}
	b.WriteString("Refine the best-scoring program above, or propose a new hypothesis that fixes what the others got wrong. Return updated candidates as fenced python blocks.\n")
	return systemPrompt, b.String()
}
