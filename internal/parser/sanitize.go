package parser

import (
	"log/slog"

	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

// SanitizeGrid walks a raw decoded grid value (as produced by
// encoding/json, i.e. []any of []any of float64) and returns a clean
// puzzle.Grid per spec.md §4.3's read-path rules: filter out null/
// non-array rows with a warning log, reject the whole grid (return false)
// if zero rows survive or if surviving rows have unequal length.
//
// Used identically on the parse path (provider JSON) and the persistence
// read path (DB JSON column), so grid corruption is caught the same way
// regardless of source.
func SanitizeGrid(raw any) (puzzle.Grid, bool) {
	rows, ok := raw.([]any)
	if !ok {
		return nil, false
	}

	grid := make(puzzle.Grid, 0, len(rows))
	for i, rowRaw := range rows {
		if rowRaw == nil {
			slog.Warn("parser: dropping null row during grid sanitization", "row", i)
			continue
		}
		cellsRaw, ok := rowRaw.([]any)
		if !ok {
			slog.Warn("parser: dropping non-array row during grid sanitization", "row", i)
			continue
		}
		row := make([]int, 0, len(cellsRaw))
		for _, cellRaw := range cellsRaw {
			v, ok := cellRaw.(float64)
			if !ok {
				slog.Warn("parser: dropping non-numeric cell during grid sanitization", "row", i)
				continue
			}
			row = append(row, int(v))
		}
		grid = append(grid, row)
	}

	if len(grid) == 0 {
		return nil, false
	}

	width := len(grid[0])
	for _, row := range grid {
		if len(row) != width {
			slog.Warn("parser: grid has unequal row lengths, rejecting prediction")
			return nil, false
		}
	}
	return grid, true
}
