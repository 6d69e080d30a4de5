package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/82deutschmark/arc-explainer/internal/apperrors"
	"github.com/82deutschmark/arc-explainer/internal/puzzle"
)

// jsonFenceRe extracts the contents of the first ``` code fence in a
// string, whether or not the fence carries a json tag. Grounded on the jgavinray-gpt-oss-executor intent parser's
// extractJSONCodeBlock.
var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// Parse extracts a normalized Analysis from a provider result's raw text,
// following spec.md §4.3's precedence order:
//  1. Trust rawJSON verbatim if the provider already returned structured
//     output (output_parsed equivalent).
//  2. Else attempt json.Unmarshal on rawText directly.
//  3. Else scan for the first balanced `{...}` substring and parse that.
//  4. Else extract a fenced ```json block and parse that.
//
// Content-block providers (Anthropic) have already concatenated their text
// blocks into rawText by the time Result reaches this package — see
// internal/provider/anthropic.go's anthropicResultFromResponse.
func Parse(rawJSON, rawText string, p *puzzle.Puzzle) (*Analysis, error) {
	payload, _, err := extractPayload(rawJSON, rawText)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		PatternDescription: stringField(payload, "patternDescription"),
		SolvingStrategy:    stringField(payload, "solvingStrategy"),
		Hints:              stringSliceField(payload, "hints"),
		Confidence:         clampConfidence(intField(payload, "confidence")),
	}

	if err := parsePredictions(payload, p, a); err != nil {
		return nil, err
	}
	return a, nil
}

// extractPayload implements the precedence order and returns the decoded
// top-level JSON object plus the raw string it was decoded from (for error
// reporting).
func extractPayload(rawJSON, rawText string) (map[string]any, string, error) {
	if strings.TrimSpace(rawJSON) != "" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(rawJSON), &payload); err == nil {
			return payload, rawJSON, nil
		}
		// Fall through: a provider that claimed structured output but sent
		// garbage still gets the best-effort text path below.
	}

	if payload, ok := tryUnmarshal(rawText); ok {
		return payload, rawText, nil
	}

	if candidate, ok := firstBalancedObject(rawText); ok {
		if payload, ok := tryUnmarshal(candidate); ok {
			return payload, candidate, nil
		}
	}

	if fenced := jsonFenceRe.FindStringSubmatch(rawText); len(fenced) == 2 {
		if payload, ok := tryUnmarshal(fenced[1]); ok {
			return payload, fenced[1], nil
		}
	}

	return nil, "", apperrors.Parse(rawText, nil)
}

func tryUnmarshal(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, false
	}
	return payload, true
}

// firstBalancedObject scans text for the first top-level `{`...`}` span,
// tracking brace depth and skipping over string literals so braces inside
// quoted strings don't confuse the scan.
func firstBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func intField(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func stringSliceField(payload map[string]any, key string) []string {
	raw, ok := payload[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// clampConfidence constrains a parsed confidence value into [1,100] per
// spec.md §3's explanation invariant. A missing field (intField's zero
// value) is left at 0 rather than forced into range, so callers can
// distinguish "not provided" from "provided as 1".
func clampConfidence(c int) int {
	if c == 0 {
		return 0
	}
	if c < 1 {
		return 1
	}
	if c > 100 {
		return 100
	}
	return c
}
