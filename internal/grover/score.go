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

	"golang.org/x/sync/errgroup"

	"github.com/82deutschmark/arc-explainer/internal/explanation"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
	"github.com/82deutschmark/arc-explainer/internal/sandbox"
)

// maxScore is the top of the [0,10] scale spec.md §4.5 scores programs on.
const maxScore = 10.0

// scorePrograms runs every candidate concurrently (one sandbox subprocess
// each) and returns one GroverProgramResult per candidate, in the same
// order as codes.
func scorePrograms(ctx context.Context, exec *sandbox.Executor, codes []string, train []puzzle.Pair) []explanation.GroverProgramResult {
	results := make([]explanation.GroverProgramResult, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			results[i] = scoreProgram(gctx, exec, code, train)
			return nil
		})
	}
	_ = g.Wait() // scoreProgram never returns an error; failures are captured per-result

	return results
}

// scoreProgram runs code against every training pair and scores it as the
// fraction of pairs whose transform(input) deep-equals the expected
// output, scaled to [0, maxScore]. A sandbox failure on any pair (syntax
// error, forbidden import, runtime exception, timeout) zeroes the score
// and records the error text; later pairs are not attempted.
func scoreProgram(ctx context.Context, exec *sandbox.Executor, code string, train []puzzle.Pair) explanation.GroverProgramResult {
	result := explanation.GroverProgramResult{Code: code}

	if len(train) == 0 {
		return result
	}

	matches := 0
	for _, pair := range train {
		out, err := exec.RunTransform(ctx, code, pair.Input)
		if err != nil {
			result.Score = 0
			result.Error = err.Error()
			return result
		}

		var got puzzle.Grid
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			result.Score = 0
			result.Error = "program output was not a valid grid: " + err.Error()
			return result
		}

		if got.Equal(pair.Output) {
			matches++
		}
	}

	result.Score = (float64(matches) / float64(len(train))) * maxScore
	return result
}
