package arc3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackFrames3DYieldsSingleSettledFrame(t *testing.T) {
	raw := rawFrame{
		FrameData3D:      [][][]int{{{1, 2}, {3, 4}}},
		State:            StateInProgress,
		Score:            5,
		AvailableActions: []any{"RESET", 1},
	}
	frames, err := unpackFrames(raw, 0)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Settled())
	assert.False(t, frames[0].IsAnimation)
	assert.Equal(t, StateInProgress, frames[0].State)
	require.NotNil(t, frames[0].Score)
	assert.Equal(t, 5, *frames[0].Score)
	assert.Equal(t, []Action{ActionReset, Action1}, frames[0].AvailableActs)
}

func TestUnpackFrames4DOnlyLastFrameSettled(t *testing.T) {
	raw := rawFrame{
		FrameData4D: [][][][]int{
			{{{1}}},
			{{{2}}},
			{{{3}}},
		},
		State: StateWin,
		Score: 10,
	}
	frames, err := unpackFrames(raw, 5)
	require.NoError(t, err)
	require.Len(t, frames, 3)

	for i := 0; i < 2; i++ {
		assert.True(t, frames[i].IsAnimation)
		assert.False(t, frames[i].IsLastAnimationFrame)
		assert.Equal(t, StateInProgress, frames[i].State)
		assert.Nil(t, frames[i].Score)
		assert.False(t, frames[i].Settled())
	}

	last := frames[2]
	assert.True(t, last.IsLastAnimationFrame)
	assert.True(t, last.Settled())
	assert.Equal(t, StateWin, last.State)
	require.NotNil(t, last.Score)
	assert.Equal(t, 10, *last.Score)

	assert.Equal(t, 5, frames[0].FrameNumber)
	assert.Equal(t, 6, frames[1].FrameNumber)
	assert.Equal(t, 7, frames[2].FrameNumber)
	assert.Equal(t, 3, frames[2].AnimationTotalFrames)
}

func TestUnpackFramesNeitherShapePresent(t *testing.T) {
	_, err := unpackFrames(rawFrame{}, 0)
	assert.Error(t, err)
}

func TestPixelsChangedCountsDifferences(t *testing.T) {
	prev := [][][]int{{{1, 1}, {1, 1}}}
	cur := [][][]int{{{1, 2}, {1, 9}}}
	assert.Equal(t, 2, pixelsChanged(prev, cur))
}

func TestPixelsChangedNilPrevIsZero(t *testing.T) {
	assert.Equal(t, 0, pixelsChanged(nil, [][][]int{{{1}}}))
}

func TestGameStateTerminal(t *testing.T) {
	assert.True(t, StateWin.Terminal())
	assert.True(t, StateGameOver.Terminal())
	assert.False(t, StateInProgress.Terminal())
}
