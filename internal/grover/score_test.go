package grover

import (
	"context"
	"os/exec"
	"testing"

	"github.com/82deutschmark/arc-explainer/internal/puzzle"
	"github.com/82deutschmark/arc-explainer/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available in this environment")
	}
}

func TestScoreProgramPerfectMatch(t *testing.T) {
	requirePython(t)
	train := []puzzle.Pair{
		{Input: puzzle.Grid{{1, 2}}, Output: puzzle.Grid{{1, 2}}},
		{Input: puzzle.Grid{{3, 4}}, Output: puzzle.Grid{{3, 4}}},
	}
	result := scoreProgram(context.Background(), sandbox.NewExecutor(), "def transform(grid):\n    return grid\n", train)
	require.Empty(t, result.Error)
	assert.Equal(t, 10.0, result.Score)
}

func TestScoreProgramPartialMatch(t *testing.T) {
	requirePython(t)
	train := []puzzle.Pair{
		{Input: puzzle.Grid{{1, 2}}, Output: puzzle.Grid{{1, 2}}},
		{Input: puzzle.Grid{{3, 4}}, Output: puzzle.Grid{{9, 9}}},
	}
	result := scoreProgram(context.Background(), sandbox.NewExecutor(), "def transform(grid):\n    return grid\n", train)
	assert.Equal(t, 5.0, result.Score)
}

func TestScoreProgramCapturesSandboxError(t *testing.T) {
	train := []puzzle.Pair{{Input: puzzle.Grid{{1}}, Output: puzzle.Grid{{1}}}}
	result := scoreProgram(context.Background(), sandbox.NewExecutor(), "import os\n\ndef transform(grid):\n    return grid\n", train)
	assert.Equal(t, 0.0, result.Score)
	assert.NotEmpty(t, result.Error)
}

func TestScoreProgramsPreservesOrder(t *testing.T) {
	requirePython(t)
	train := []puzzle.Pair{{Input: puzzle.Grid{{1}}, Output: puzzle.Grid{{1}}}}
	codes := []string{
		"def transform(grid):\n    return grid\n",
		"import os\n\ndef transform(grid):\n    return grid\n",
	}
	results := scorePrograms(context.Background(), sandbox.NewExecutor(), codes, train)
	require.Len(t, results, 2)
	assert.Equal(t, 10.0, results[0].Score)
	assert.Equal(t, 0.0, results[1].Score)
}
