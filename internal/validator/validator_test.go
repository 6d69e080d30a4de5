package validator

import (
	"testing"

	"github.com/82deutschmark/arc-explainer/internal/parser"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
	"github.com/stretchr/testify/assert"
)

func TestValidateSingleTest(t *testing.T) {
	p := &puzzle.Puzzle{Test: []puzzle.TestCase{{Output: puzzle.Grid{{1, 2}}}}}

	t.Run("correct prediction", func(t *testing.T) {
		a := &parser.Analysis{PredictedOutput: puzzle.Grid{{1, 2}}}
		assert.True(t, Validate(a, p).IsPredictionCorrect)
	})

	t.Run("incorrect prediction", func(t *testing.T) {
		a := &parser.Analysis{PredictedOutput: puzzle.Grid{{1, 3}}}
		assert.False(t, Validate(a, p).IsPredictionCorrect)
	})

	t.Run("nil prediction is incorrect", func(t *testing.T) {
		a := &parser.Analysis{}
		assert.False(t, Validate(a, p).IsPredictionCorrect)
	})
}

func TestValidateMultiTest(t *testing.T) {
	p := &puzzle.Puzzle{Test: []puzzle.TestCase{
		{Output: puzzle.Grid{{1}}},
		{Output: puzzle.Grid{{2}}},
	}}

	t.Run("all correct", func(t *testing.T) {
		a := &parser.Analysis{MultiTestPredictionGrids: []puzzle.Grid{{{1}}, {{2}}}}
		v := Validate(a, p)
		assert.True(t, v.MultiTestAllCorrect)
		assert.Equal(t, []bool{true, true}, v.PerTestCorrect)
	})

	t.Run("partial is not all correct", func(t *testing.T) {
		a := &parser.Analysis{MultiTestPredictionGrids: []puzzle.Grid{{{1}}, nil}}
		v := Validate(a, p)
		assert.False(t, v.MultiTestAllCorrect)
		assert.Equal(t, []bool{true, false}, v.PerTestCorrect)
	})
}
