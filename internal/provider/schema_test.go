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

package provider

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

func TestBuildStructuredOutputSpecSingleTestPuzzle(t *testing.T) {
	p := &puzzle.Puzzle{
		ID:   "0a1b2c3d",
		Test: []puzzle.TestCase{{Input: puzzle.Grid{{1}}}},
	}

	spec := BuildStructuredOutputSpec("arc_analysis", p)
	require.NotNil(t, spec)
	require.Equal(t, "arc_analysis", spec.Name)
	require.True(t, spec.Strict)

	properties, ok := spec.Schema["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, properties, "predictedOutput")
	require.Contains(t, properties, "patternDescription")
	require.Contains(t, properties, "solvingStrategy")
	require.Contains(t, properties, "confidence")
	require.NotContains(t, properties, "predictedOutput1")
	require.NotContains(t, properties, "multiplePredictedOutputs")

	required, ok := spec.Schema["required"].([]any)
	require.True(t, ok)
	require.Contains(t, required, "predictedOutput")
	require.False(t, spec.Schema["additionalProperties"].(bool))
}

func TestBuildStructuredOutputSpecMultiTestPuzzle(t *testing.T) {
	p := &puzzle.Puzzle{
		ID: "0a1b2c3d",
		Test: []puzzle.TestCase{
			{Input: puzzle.Grid{{1}}},
			{Input: puzzle.Grid{{2}}},
		},
	}

	spec := BuildStructuredOutputSpec("arc_analysis", p)
	require.NotNil(t, spec)

	properties, ok := spec.Schema["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, properties, "predictedOutput1")
	require.Contains(t, properties, "predictedOutput2")
	require.Contains(t, properties, "multiplePredictedOutputs")
	require.NotContains(t, properties, "predictedOutput")

	required, ok := spec.Schema["required"].([]any)
	require.True(t, ok)
	require.Contains(t, required, "predictedOutput1")
	require.Contains(t, required, "predictedOutput2")
	require.Contains(t, required, "multiplePredictedOutputs")
}
