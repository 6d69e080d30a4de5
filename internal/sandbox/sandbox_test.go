package sandbox

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requirePython skips the test when no python3 interpreter is available —
// these tests exercise the real subprocess path, not just Go-side logic.
func requirePython(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(pythonBinary); err != nil {
		t.Skip("python3 not available in this environment")
	}
}

func TestRunTransformIdentity(t *testing.T) {
	requirePython(t)
	e := NewExecutor()
	out, err := e.RunTransform(context.Background(), "def transform(grid):\n    return grid\n", [][]int{{1, 2}, {3, 4}})
	require.NoError(t, err)

	var got [][]int
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, got)
}

func TestRunTransformRejectsForbiddenImport(t *testing.T) {
	e := NewExecutor()
	_, err := e.RunTransform(context.Background(), "import socket\n\ndef transform(grid):\n    return grid\n", [][]int{{1}})
	assert.Error(t, err)
}

func TestRunAnalysisColorCounts(t *testing.T) {
	requirePython(t)
	e := NewExecutor()
	out, err := e.RunAnalysis(context.Background(), "print(json.dumps(color_counts(grid)))",
		map[string]any{"grid": [][]int{{0, 1}, {1, 1}}, "current_layer": 0})
	require.NoError(t, err)
	assert.Contains(t, out, `"1": 3`)
}

func TestRunTimesOut(t *testing.T) {
	requirePython(t)
	e := NewExecutor()
	_, err := e.RunTransform(context.Background(),
		"def transform(grid):\n    while True:\n        pass\n", [][]int{{1}})
	assert.Error(t, err)
}
