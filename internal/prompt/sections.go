package prompt

import (
	"fmt"
	"strings"
)

// sectionKey names one entry in the section registry. Patterns are ordered
// lists of these keys.
type sectionKey string

const (
	sectionArcIntroduction sectionKey = "arcIntroduction"
	sectionModeRole        sectionKey = "modeRole"
	sectionModeTask        sectionKey = "modeTask"
	sectionJSONInstructions sectionKey = "jsonInstructions"
	sectionDebateContext   sectionKey = "debateContext"
	sectionRetryContext    sectionKey = "retryContext"
)

// sectionFunc renders one section for the given context. ok is false when
// the section has nothing to contribute (e.g. debateContext with no
// original explanation) and should be skipped rather than emit an empty
// paragraph.
type sectionFunc func(c Context) (text string, ok bool)

var sectionRegistry = map[sectionKey]sectionFunc{
	sectionArcIntroduction: renderArcIntroduction,
	sectionModeRole:        renderModeRole,
	sectionModeTask:        renderModeTask,
	sectionJSONInstructions: renderJSONInstructions,
	sectionDebateContext:   renderDebateContext,
	sectionRetryContext:    renderRetryContext,
}

func renderArcIntroduction(c Context) (string, bool) {
	return "ARC-AGI puzzles present a small number of training examples, each an " +
		"input grid transformed into an output grid by one consistent rule. " +
		"Grids are 2D arrays of small integers representing colors. Your job is " +
		"to infer the rule from the training examples and apply it to the test " +
		"input.", true
}

func renderModeRole(c Context) (string, bool) {
	switch c.Mode {
	case ModeDebate:
		return "You are challenging another AI's incorrect explanation of this puzzle. " +
			"Find the flaw in its reasoning and propose a better one.", true
	case ModeDiscussion:
		return "You are refining your own prior explanation of this puzzle in light of " +
			"new information. Be self-critical; do not merely restate the prior answer.", true
	case ModeAlienCommunication:
		return "You are decoding a message from an alien intelligence that communicates " +
			"entirely in colored symbols arranged on a grid.", true
	default:
		return "You are an expert puzzle solver specializing in abstract visual reasoning.", true
	}
}

func renderModeTask(c Context) (string, bool) {
	multi := c.isMultiTest()
	switch c.Mode {
	case ModeDebate:
		return "Review the original explanation and the challenge above, then produce a " +
			"corrected predicted output and a better pattern description.", true
	case ModeDiscussion:
		return "Reconsider your previous analysis and refine it: correct any mistakes, " +
			"sharpen the pattern description, and update the predicted output if needed.", true
	case ModeAlienCommunication:
		return "Decode the transformation rule using the emoji palette below and produce " +
			"the predicted output grid(s) for the test input(s).", true
	default:
		if multi {
			return "Solve each test case independently and return a predicted output grid " +
				"for every one.", true
		}
		return "Determine the transformation rule and return the predicted output grid for " +
			"the test input.", true
	}
}

func renderJSONInstructions(c Context) (string, bool) {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object containing:\n")
	b.WriteString("- \"patternDescription\": a concise description of the transformation rule\n")
	b.WriteString("- \"solvingStrategy\": the step-by-step strategy you used\n")
	b.WriteString("- \"hints\": an array of short hint strings\n")
	b.WriteString("- \"confidence\": an integer 1-100\n")
	if c.isMultiTest() {
		n := len(c.Puzzle.Test)
		b.WriteString(fmt.Sprintf(
			"- \"multiplePredictedOutputs\": true\n- \"predictedOutput1\" through \"predictedOutput%d\": one grid per test case, in order\n", n))
	} else {
		b.WriteString("- \"predictedOutput\": the predicted grid as a 2D array of integers\n")
	}
	b.WriteString("Output ONLY the JSON object, no surrounding prose.")
	return b.String(), true
}

func renderDebateContext(c Context) (string, bool) {
	if c.OriginalExplanation == nil {
		return "", false
	}
	e := c.OriginalExplanation
	var b strings.Builder
	b.WriteString("The explanation being challenged:\n")
	b.WriteString("Pattern: " + e.PatternDescription + "\n")
	b.WriteString("Strategy: " + e.SolvingStrategy + "\n")
	if len(e.Hints) > 0 {
		b.WriteString("Hints: " + strings.Join(e.Hints, "; ") + "\n")
	}
	if e.ChallengeText != "" {
		b.WriteString("Challenge: " + e.ChallengeText + "\n")
	}
	return b.String(), true
}

func renderRetryContext(c Context) (string, bool) {
	if c.PreviousAnalysis == nil {
		return "", false
	}
	e := c.PreviousAnalysis
	var b strings.Builder
	b.WriteString("Your previous analysis:\n")
	b.WriteString("Pattern: " + e.PatternDescription + "\n")
	b.WriteString("Strategy: " + e.SolvingStrategy + "\n")
	if len(e.Hints) > 0 {
		b.WriteString("Hints: " + strings.Join(e.Hints, "; ") + "\n")
	}
	return b.String(), true
}
