package grover

import (
	"context"
	"testing"

	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
	"github.com/82deutschmark/arc-explainer/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAdapter struct {
	rawTexts []string
	calls    int
}

func (a *scriptedAdapter) Analyze(ctx context.Context, req provider.Request) (*provider.Result, error) {
	text := a.rawTexts[a.calls%len(a.rawTexts)]
	a.calls++
	return &provider.Result{
		RawText:            text,
		ProviderResponseID: "resp-1",
		Usage:              provider.TokenUsage{InputTokens: 10, OutputTokens: 20},
	}, nil
}

func (a *scriptedAdapter) Capabilities() provider.Capabilities {
	return provider.Capabilities{Family: config.FamilyOpenAI}
}

type fakeResolver struct{ adapter provider.Adapter }

func (f fakeResolver) Resolve(modelKey string) (provider.Adapter, config.ProviderFamily, error) {
	return f.adapter, config.FamilyOpenAI, nil
}

func identityPuzzle() *puzzle.Puzzle {
	return &puzzle.Puzzle{
		ID:    "identity1",
		Train: []puzzle.Pair{{Input: puzzle.Grid{{1, 2}}, Output: puzzle.Grid{{1, 2}}}},
		Test:  []puzzle.TestCase{{Input: puzzle.Grid{{5, 6}}, Output: puzzle.Grid{{5, 6}}}},
	}
}

const identityProgram = "Candidate:\n```python\ndef transform(grid):\n    return grid\n```\n"

func TestRunMaxIterationsZeroPersistsEmptyExplanation(t *testing.T) {
	adapter := &scriptedAdapter{rawTexts: []string{identityProgram}}
	solver := &Solver{registry: fakeResolver{adapter}, exec: sandbox.NewExecutor()}

	exp, err := solver.Run(context.Background(), identityPuzzle(), "grover-gpt-5", Options{MaxIterations: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, exp.GroverIterationCount)
	assert.Empty(t, exp.GroverIterations)
	assert.Empty(t, exp.GroverBestProgram)
	assert.Equal(t, 0, adapter.calls)
}

func TestRunTerminatesEarlyOnPerfectScore(t *testing.T) {
	requirePython(t)
	adapter := &scriptedAdapter{rawTexts: []string{identityProgram}}
	solver := &Solver{registry: fakeResolver{adapter}, exec: sandbox.NewExecutor()}

	exp, err := solver.Run(context.Background(), identityPuzzle(), "grover-gpt-5", Options{MaxIterations: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, exp.GroverIterationCount)
	assert.Contains(t, exp.GroverBestProgram, "return grid")
	assert.True(t, exp.IsPredictionCorrect)
	assert.Equal(t, "resp-1", exp.ProviderResponseID)
	assert.Equal(t, 30, exp.TotalTokens)
}

func TestRunExhaustsIterationsWithoutPerfectScore(t *testing.T) {
	requirePython(t)
	imperfect := "Candidate:\n```python\ndef transform(grid):\n    return [[0 for _ in row] for row in grid]\n```\n"
	adapter := &scriptedAdapter{rawTexts: []string{imperfect}}
	solver := &Solver{registry: fakeResolver{adapter}, exec: sandbox.NewExecutor()}

	exp, err := solver.Run(context.Background(), identityPuzzle(), "grover-gpt-5", Options{MaxIterations: -1})
	require.NoError(t, err)
	assert.Equal(t, defaultMaxIterations, exp.GroverIterationCount)
	assert.Equal(t, defaultMaxIterations, adapter.calls)
	assert.False(t, exp.IsPredictionCorrect)
}

func TestRunNoProgramsExtractedStopsEarly(t *testing.T) {
	adapter := &scriptedAdapter{rawTexts: []string{"I couldn't find a pattern."}}
	solver := &Solver{registry: fakeResolver{adapter}, exec: sandbox.NewExecutor()}

	exp, err := solver.Run(context.Background(), identityPuzzle(), "grover-gpt-5", Options{MaxIterations: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, exp.GroverIterationCount)
	assert.Equal(t, 1, adapter.calls)
	assert.Empty(t, exp.GroverBestProgram)
}
