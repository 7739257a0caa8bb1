package bugreport

import (
	"encoding/json"
	"strings"

	"github.com/testgenie/testgenie/internal/contracts"
)

// coerceSteps normalizes the stepsToReproduce field. Models emit it as a
// JSON array or as one prose blob; both become a clean list of steps with
// enumerator prefixes stripped. The result is never nil.
func coerceSteps(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return cleanSteps(list), nil
	}

	var blob string
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, &Error{
			Code:       ErrorCodeSchemaValidation,
			ReasonCode: contracts.ReasonCodeSchemaValidation,
			Field:      "stepsToReproduce",
			Message:    "steps must be a list or a string",
		}
	}
	return cleanSteps(splitStepBlob(blob)), nil
}

// splitStepBlob breaks one prose blob into step candidates: on newlines
// when present, otherwise on inline enumerators like "2." or "3)" and
// inline bullet markers.
func splitStepBlob(blob string) []string {
	if strings.Contains(blob, "\n") {
		return strings.Split(blob, "\n")
	}

	parts := make([]string, 0, 4)
	remaining := blob
	for {
		cut := nextInlineEnumerator(remaining)
		if cut < 0 {
			parts = append(parts, remaining)
			return parts
		}
		parts = append(parts, remaining[:cut])
		remaining = remaining[cut:]
	}
}

// nextInlineEnumerator finds the offset of the next marker that starts a
// new step mid-string: a "N." or "N)" enumerator, or a "-", "*", or "•"
// bullet. The marker at position zero is skipped.
func nextInlineEnumerator(text string) int {
	for i := 1; i < len(text); i++ {
		if text[i-1] != ' ' {
			continue
		}
		switch {
		case text[i] >= '0' && text[i] <= '9':
			end := i
			for end < len(text) && text[end] >= '0' && text[end] <= '9' {
				end++
			}
			if end < len(text) && (text[end] == '.' || text[end] == ')') {
				return i
			}
		case strings.HasPrefix(text[i:], "- "), strings.HasPrefix(text[i:], "* "), strings.HasPrefix(text[i:], "• "):
			return i
		}
	}
	return -1
}

func cleanSteps(candidates []string) []string {
	steps := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		step := stripEnumerator(strings.TrimSpace(candidate))
		if step == "" {
			continue
		}
		steps = append(steps, step)
	}
	return steps
}

// stripEnumerator removes a leading "1.", "2)", "-", or bullet marker.
func stripEnumerator(step string) string {
	trimmed := strings.TrimSpace(step)

	for _, marker := range []string{"-", "*", "•"} {
		if rest, ok := strings.CutPrefix(trimmed, marker); ok {
			return strings.TrimSpace(rest)
		}
	}

	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i > 0 && i < len(trimmed) && (trimmed[i] == '.' || trimmed[i] == ')') {
		return strings.TrimSpace(trimmed[i+1:])
	}
	return trimmed
}
