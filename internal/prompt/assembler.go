package prompt

import (
	"strings"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
)

// Assemble produces the (systemPrompt, userPrompt) pair for one provider
// call, deterministically from c. Custom mode bypasses section assembly
// and returns CustomSystemPrompt verbatim.
func Assemble(c Context) (systemPrompt, userPrompt string, err error) {
	spec, ok := ModeSpecFor(c.Mode)
	if !ok {
		return "", "", apperrors.InputValidation("prompt: unrecognized mode %q", c.Mode)
	}
	if err := checkRequiredFields(c, spec); err != nil {
		return "", "", err
	}

	if c.Mode == ModeCustom {
		return c.CustomSystemPrompt, buildUserPrompt(c), nil
	}

	sections := resolvePattern(c)
	var b strings.Builder
	for _, key := range sections {
		fn, ok := sectionRegistry[key]
		if !ok {
			continue
		}
		text, ok := fn(c)
		if !ok || text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}

	return b.String(), buildUserPrompt(c), nil
}

func checkRequiredFields(c Context, spec ModeSpec) error {
	for _, field := range spec.RequiredFields {
		switch field {
		case "puzzle":
			if c.Puzzle == nil {
				return apperrors.InputValidation("prompt: mode %q requires a puzzle", c.Mode)
			}
		case "originalExplanation":
			if c.OriginalExplanation == nil {
				return apperrors.InputValidation("prompt: mode %q requires an original explanation", c.Mode)
			}
		case "previousAnalysis":
			if c.PreviousAnalysis == nil {
				return apperrors.InputValidation("prompt: mode %q requires a previous analysis", c.Mode)
			}
		case "systemPrompt":
			if c.CustomSystemPrompt == "" {
				return apperrors.InputValidation("prompt: mode %q requires a custom system prompt", c.Mode)
			}
		}
	}
	if c.State == StateContinuation && !spec.AllowsContinuation {
		return apperrors.InputValidation("prompt: mode %q does not support continuation", c.Mode)
	}
	return nil
}
