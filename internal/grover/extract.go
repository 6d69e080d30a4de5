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

// Package grover implements the iterative code-search solver (spec.md
// §4.5): generate candidate Python `transform(grid)` programs, score them
// against a puzzle's training pairs in the sandbox, and amplify the best
// programs into the next prompt.
package grover

import "regexp"

// pythonFenceRe extracts fenced ```python blocks from a provider's raw
// text response. Unlike internal/parser's JSON extraction, Grover never
// runs the structured-output pipeline — step 1 of spec.md §4.5 is explicit
// that programs come from the raw text, not the JSON payload.
var pythonFenceRe = regexp.MustCompile("(?s)```python\\s*\\n?(.*?)\\n?```")

// extractPrograms returns every fenced python block in text, in the order
// they appear.
func extractPrograms(text string) []string {
	matches := pythonFenceRe.FindAllStringSubmatch(text, -1)
	programs := make([]string, 0, len(matches))
	for _, m := range matches {
		programs = append(programs, m[1])
	}
	return programs
}
