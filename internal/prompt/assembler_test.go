package prompt

import (
	"strings"
	"testing"

	"github.com/82deutschmark/arc-explainer/internal/config"
	"github.com/82deutschmark/arc-explainer/internal/provider"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPuzzle(t *testing.T, nTests int) *puzzle.Puzzle {
	t.Helper()
	p := &puzzle.Puzzle{
		ID:    "abc12345",
		Train: []puzzle.Pair{{Input: puzzle.Grid{{1, 2}}, Output: puzzle.Grid{{2, 1}}}},
	}
	for i := 0; i < nTests; i++ {
		p.Test = append(p.Test, puzzle.TestCase{Input: puzzle.Grid{{0, 1}}})
	}
	require.NoError(t, p.Validate())
	return p
}

func TestAssembleSolverInitial(t *testing.T) {
	c := Context{
		Mode:           ModeSolver,
		State:          StateInitial,
		ProviderFamily: config.FamilyOpenAI,
		Puzzle:         testPuzzle(t, 1),
	}
	system, user, err := Assemble(c)
	require.NoError(t, err)
	assert.Contains(t, system, "ARC-AGI puzzles")
	assert.Contains(t, system, "predictedOutput")
	assert.Contains(t, user, "Training examples")
	assert.Contains(t, user, "Test 1 input")
}

func TestAssembleSolverContinuationElidesIntro(t *testing.T) {
	c := Context{
		Mode:           ModeSolver,
		State:          StateContinuation,
		ProviderFamily: config.FamilyOpenAI,
		Puzzle:         testPuzzle(t, 1),
	}
	system, _, err := Assemble(c)
	require.NoError(t, err)
	assert.NotContains(t, system, "ARC-AGI puzzles")
}

func TestAssembleNoNativeChainingAlwaysGetsFullPattern(t *testing.T) {
	c := Context{
		Mode:           ModeSolver,
		State:          StateContinuation,
		ProviderFamily: config.FamilyAnthropic,
		Puzzle:         testPuzzle(t, 1),
	}
	system, _, err := Assemble(c)
	require.NoError(t, err)
	assert.Contains(t, system, "ARC-AGI puzzles", "anthropic has no server-side state, so full pattern is always used")
}

func TestAssembleMultiTestInstructions(t *testing.T) {
	c := Context{
		Mode:           ModeSolver,
		State:          StateInitial,
		ProviderFamily: config.FamilyOpenAI,
		Puzzle:         testPuzzle(t, 3),
	}
	system, user, err := Assemble(c)
	require.NoError(t, err)
	assert.Contains(t, system, "predictedOutput1")
	assert.Contains(t, system, "predictedOutput3")
	assert.Contains(t, user, "Test 3 input")
}

func TestAssembleDebateRequiresOriginalExplanation(t *testing.T) {
	c := Context{
		Mode:           ModeDebate,
		State:          StateInitial,
		ProviderFamily: config.FamilyOpenAI,
		Puzzle:         testPuzzle(t, 1),
	}
	_, _, err := Assemble(c)
	assert.Error(t, err)
}

func TestAssembleDebateContinuationIsMinimalRefinement(t *testing.T) {
	c := Context{
		Mode:           ModeDebate,
		State:          StateContinuation,
		ProviderFamily: config.FamilyOpenAI,
		Puzzle:         testPuzzle(t, 1),
		OriginalExplanation: &provider.PriorExplanation{
			PatternDescription: "rotate 90",
			SolvingStrategy:    "look at corners",
		},
	}
	system, user, err := Assemble(c)
	require.NoError(t, err)
	assert.Contains(t, system, "rotate 90")
	assert.NotContains(t, user, "Training examples", "continuation turns should not re-send training data")
}

func TestAssembleCustomModeBypassesSections(t *testing.T) {
	c := Context{
		Mode:               ModeCustom,
		State:              StateInitial,
		ProviderFamily:     config.FamilyOpenAI,
		Puzzle:             testPuzzle(t, 1),
		CustomSystemPrompt: "you are a helpful assistant",
	}
	system, _, err := Assemble(c)
	require.NoError(t, err)
	assert.Equal(t, "you are a helpful assistant", system)
}

func TestAssembleAlienCommunicationUsesEmoji(t *testing.T) {
	c := Context{
		Mode:           ModeAlienCommunication,
		State:          StateInitial,
		ProviderFamily: config.FamilyOpenAI,
		Puzzle:         testPuzzle(t, 1),
	}
	_, user, err := Assemble(c)
	require.NoError(t, err)
	assert.True(t, strings.ContainsAny(user, "⬛🟦🟥🟩🟨🟧🟪🟫⬜🔵🔴🟢🟡🟠🟣🟤"))
}
