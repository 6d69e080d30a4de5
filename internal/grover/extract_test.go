package grover

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractProgramsFindsMultipleBlocks(t *testing.T) {
	text := "Here's my first idea:\n```python\ndef transform(grid):\n    return grid\n```\nAnd a second one:\n```python\ndef transform(grid):\n    return [row[::-1] for row in grid]\n```\n"
	programs := extractPrograms(text)
	assert.Len(t, programs, 2)
	assert.Contains(t, programs[0], "return grid")
	assert.Contains(t, programs[1], "row[::-1]")
}

func TestExtractProgramsIgnoresOtherFences(t *testing.T) {
	text := "```json\n{\"a\": 1}\n```\nNo python here.\n"
	assert.Empty(t, extractPrograms(text))
}

func TestExtractProgramsNoneFound(t *testing.T) {
	assert.Empty(t, extractPrograms("just prose, no code blocks"))
}
