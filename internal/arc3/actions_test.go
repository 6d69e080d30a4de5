package arc3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeActionFromInt(t *testing.T) {
	a, ok := NormalizeAction(0)
	assert.True(t, ok)
	assert.Equal(t, ActionReset, a)

	a, ok = NormalizeAction(6)
	assert.True(t, ok)
	assert.Equal(t, Action6, a)
}

func TestNormalizeActionFromString(t *testing.T) {
	a, ok := NormalizeAction("action3")
	assert.True(t, ok)
	assert.Equal(t, Action3, a)

	a, ok = NormalizeAction("7")
	assert.True(t, ok)
	assert.Equal(t, Action7, a)
}

func TestNormalizeActionFromFloat64(t *testing.T) {
	a, ok := NormalizeAction(float64(2))
	assert.True(t, ok)
	assert.Equal(t, Action2, a)
}

func TestNormalizeActionUnrecognized(t *testing.T) {
	_, ok := NormalizeAction("JUMP")
	assert.False(t, ok)

	_, ok = NormalizeAction(99)
	assert.False(t, ok)
}

func TestNormalizeActionsDropsUnrecognized(t *testing.T) {
	out := NormalizeActions([]any{"RESET", "action1", "bogus", 3})
	assert.Equal(t, []Action{ActionReset, Action1, Action3}, out)
}

func TestNormalizeActionsEmptyInput(t *testing.T) {
	assert.Nil(t, NormalizeActions(nil))
}

func TestAllowedEmptyListMeansUnrestricted(t *testing.T) {
	assert.True(t, Allowed(nil, Action5))
}

func TestAllowedRejectsNotInList(t *testing.T) {
	assert.False(t, Allowed([]Action{Action1, Action2}, Action3))
	assert.True(t, Allowed([]Action{Action1, Action2}, Action1))
}

func TestValidateActionReturnsErrorForDisallowed(t *testing.T) {
	err := ValidateAction([]Action{Action1}, Action6)
	assert.Error(t, err)
}

func TestValidateCoordinateBounds(t *testing.T) {
	assert.NoError(t, ValidateCoordinate(ActionParams{X: 0, Y: 63}))
	assert.Error(t, ValidateCoordinate(ActionParams{X: -1, Y: 0}))
	assert.Error(t, ValidateCoordinate(ActionParams{X: 0, Y: 64}))
}
