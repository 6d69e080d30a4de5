package parser

import (
	"testing"

	"github.com/82deutschmark/arc-explainer/internal/puzzle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func singleTestPuzzle() *puzzle.Puzzle {
	return &puzzle.Puzzle{
		ID:    "abc12345",
		Train: []puzzle.Pair{{Input: puzzle.Grid{{1}}, Output: puzzle.Grid{{1}}}},
		Test:  []puzzle.TestCase{{Input: puzzle.Grid{{1}}}},
	}
}

func multiTestPuzzle(n int) *puzzle.Puzzle {
	p := &puzzle.Puzzle{
		ID:    "abc12345",
		Train: []puzzle.Pair{{Input: puzzle.Grid{{1}}, Output: puzzle.Grid{{1}}}},
	}
	for i := 0; i < n; i++ {
		p.Test = append(p.Test, puzzle.TestCase{Input: puzzle.Grid{{1}}})
	}
	return p
}

func TestParseDirectJSON(t *testing.T) {
	raw := `{"patternDescription":"rotate","solvingStrategy":"look at corners","hints":["h1","h2"],"confidence":80,"predictedOutput":[[1,2],[3,4]]}`
	a, err := Parse("", raw, singleTestPuzzle())
	require.NoError(t, err)
	assert.Equal(t, "rotate", a.PatternDescription)
	assert.Equal(t, 80, a.Confidence)
	assert.Equal(t, []string{"h1", "h2"}, a.Hints)
	assert.Equal(t, puzzle.Grid{{1, 2}, {3, 4}}, a.PredictedOutput)
}

func TestParseScansForBalancedObject(t *testing.T) {
	raw := "Here is my answer:\n" + `{"patternDescription":"flip","predictedOutput":[[1]]}` + "\nHope that helps!"
	a, err := Parse("", raw, singleTestPuzzle())
	require.NoError(t, err)
	assert.Equal(t, "flip", a.PatternDescription)
}

func TestParseExtractsFencedBlock(t *testing.T) {
	raw := "```json\n" + `{"patternDescription":"mirror","predictedOutput":[[5]]}` + "\n```"
	a, err := Parse("", raw, singleTestPuzzle())
	require.NoError(t, err)
	assert.Equal(t, "mirror", a.PatternDescription)
	assert.Equal(t, puzzle.Grid{{5}}, a.PredictedOutput)
}

func TestParseRawJSONTrustedFirst(t *testing.T) {
	structured := `{"patternDescription":"from output_parsed","predictedOutput":[[9]]}`
	a, err := Parse(structured, "garbage that is not json", singleTestPuzzle())
	require.NoError(t, err)
	assert.Equal(t, "from output_parsed", a.PatternDescription)
}

func TestParseFailsOnUnparsable(t *testing.T) {
	_, err := Parse("", "not json at all, no braces here", singleTestPuzzle())
	assert.Error(t, err)
}

func TestParseMultiTestIndexedPredictions(t *testing.T) {
	raw := `{"multiplePredictedOutputs":true,"predictedOutput1":[[1]],"predictedOutput2":[[2]]}`
	a, err := Parse("", raw, multiTestPuzzle(2))
	require.NoError(t, err)
	require.Len(t, a.MultiTestPredictionGrids, 2)
	assert.Equal(t, puzzle.Grid{{1}}, a.MultiTestPredictionGrids[0])
	assert.Equal(t, puzzle.Grid{{2}}, a.MultiTestPredictionGrids[1])
}

func TestParseMultiTestSinglePredictionIsPartial(t *testing.T) {
	raw := `{"predictedOutput":[[7]]}`
	a, err := Parse("", raw, multiTestPuzzle(3))
	require.NoError(t, err)
	require.Len(t, a.MultiTestPredictionGrids, 3)
	assert.Equal(t, puzzle.Grid{{7}}, a.MultiTestPredictionGrids[0])
	assert.Nil(t, a.MultiTestPredictionGrids[1])
	assert.Nil(t, a.MultiTestPredictionGrids[2])
}

func TestSanitizeGridDropsNullRows(t *testing.T) {
	raw := []any{
		[]any{float64(1), float64(2)},
		nil,
		[]any{float64(3), float64(4)},
	}
	grid, ok := SanitizeGrid(raw)
	require.True(t, ok)
	assert.Equal(t, puzzle.Grid{{1, 2}, {3, 4}}, grid)
}

func TestSanitizeGridRejectsUnequalRowLengths(t *testing.T) {
	raw := []any{
		[]any{float64(1), float64(2)},
		[]any{float64(3)},
	}
	_, ok := SanitizeGrid(raw)
	assert.False(t, ok)
}

func TestSanitizeGridRejectsAllNullRows(t *testing.T) {
	raw := []any{nil, nil}
	_, ok := SanitizeGrid(raw)
	assert.False(t, ok)
}
