package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

// alienPalette maps color values 0-15 to a fixed, positional emoji symbol
// set used only in ModeAlienCommunication, per spec.md §4.2's "16 symbols,
// positional" rule.
var alienPalette = [16]string{
	"⬛", "🟦", "🟥", "🟩", "🟨", "🟧", "🟪", "🟫",
	"⬜", "🔵", "🔴", "🟢", "🟡", "🟠", "🟣", "🟤",
}

// renderGrid renders a grid as text. useEmoji selects the alien-
// communication palette (indices beyond the palette fall back to the
// integer) over plain integers.
func renderGrid(g puzzle.Grid, useEmoji bool) string {
	var b strings.Builder
	for _, row := range g {
		cells := make([]string, len(row))
		for i, v := range row {
			if useEmoji && v >= 0 && v < len(alienPalette) {
				cells[i] = alienPalette[v]
			} else {
				cells[i] = strconv.Itoa(v)
			}
		}
		b.WriteString(strings.Join(cells, " "))
		b.WriteString("\n")
	}
	return b.String()
}

// buildUserPrompt renders the training examples and test cases into the
// user-turn prompt. For debate/discussion continuation turns on a
// chain-capable provider, training data is not re-sent — the provider
// already has it — and only a minimal refinement request is produced.
func buildUserPrompt(c Context) string {
	if c.State == StateContinuation && c.chainCapable() &&
		(c.Mode == ModeDebate || c.Mode == ModeDiscussion) {
		return refinementRequest(c)
	}

	spec, _ := ModeSpecFor(c.Mode)
	emoji := spec.RequiresEmojis

	var b strings.Builder
	b.WriteString("Training examples:\n\n")
	for i, pair := range c.Puzzle.Train {
		b.WriteString(fmt.Sprintf("Example %d input:\n%s\n", i+1, renderGrid(pair.Input, emoji)))
		b.WriteString(fmt.Sprintf("Example %d output:\n%s\n", i+1, renderGrid(pair.Output, emoji)))
	}

	b.WriteString("\nTest case(s):\n\n")
	for i, tc := range c.Puzzle.Test {
		b.WriteString(fmt.Sprintf("Test %d input:\n%s\n", i+1, renderGrid(tc.Input, emoji)))
		if !c.OmitAnswer && tc.Output != nil {
			b.WriteString(fmt.Sprintf("Test %d expected output (for verification only, do not echo):\n%s\n", i+1, renderGrid(tc.Output, emoji)))
		}
	}
	return b.String()
}

func refinementRequest(c Context) string {
	if c.Mode == ModeDebate {
		return "Reconsider the original explanation given the challenge above and produce a corrected answer."
	}
	return "Refine your previous analysis and produce an updated answer."
}
