package parser

import (
	"fmt"

	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

// parsePredictions fills a.PredictedOutput or a.MultiplePredictedOutputs /
// a.MultiTestPredictionGrids from payload, following spec.md §4.3's
// multi-test handling rule.
func parsePredictions(payload map[string]any, p *puzzle.Puzzle, a *Analysis) error {
	if !p.IsMultiTest() {
		if raw, ok := payload["predictedOutput"]; ok {
			if grid, ok := SanitizeGrid(raw); ok {
				a.PredictedOutput = grid
			}
		}
		return nil
	}

	n := len(p.Test)
	multiFlag, _ := payload["multiplePredictedOutputs"].(bool)

	if multiFlag || hasIndexedPredictions(payload, n) {
		a.MultiplePredictedOutputs = true
		a.MultiTestPredictionGrids = make([]puzzle.Grid, n)
		for i := 1; i <= n; i++ {
			key := fmt.Sprintf("predictedOutput%d", i)
			if raw, ok := payload[key]; ok {
				if grid, ok := SanitizeGrid(raw); ok {
					a.MultiTestPredictionGrids[i-1] = grid
				}
			}
		}
		return nil
	}

	// Single predictedOutput present on a multi-test puzzle: treat as a
	// partial prediction for the first test case only.
	if raw, ok := payload["predictedOutput"]; ok {
		a.MultiplePredictedOutputs = false
		a.MultiTestPredictionGrids = make([]puzzle.Grid, n)
		if grid, ok := SanitizeGrid(raw); ok {
			a.MultiTestPredictionGrids[0] = grid
		}
	}
	return nil
}

func hasIndexedPredictions(payload map[string]any, n int) bool {
	for i := 1; i <= n; i++ {
		if _, ok := payload[fmt.Sprintf("predictedOutput%d", i)]; ok {
			return true
		}
	}
	return false
}
