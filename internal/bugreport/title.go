package bugreport

import "strings"

// componentSeparator joins a component prefix to a title. The legacy
// " > " spelling is rewritten to this form wherever it appears.
const componentSeparator = ": "

const legacySeparator = " > "

// PrefixTitle prefixes a title with its component, idempotently: a title
// that already carries the prefix, in the current spelling, the legacy
// " > " spelling, or bracketed as "[Component]", is normalized, never
// double-prefixed. Prefix detection is case-insensitive and every legacy
// separator in the result is rewritten.
func PrefixTitle(component string, title string) string {
	trimmedComponent := strings.TrimSpace(component)
	trimmedTitle := strings.TrimSpace(title)
	if trimmedComponent == "" {
		return normalizeSeparators(trimmedTitle)
	}

	for _, prefix := range []string{
		trimmedComponent + componentSeparator,
		trimmedComponent + legacySeparator,
		"[" + trimmedComponent + "]",
	} {
		if rest, ok := cutPrefixFold(trimmedTitle, prefix); ok {
			return normalizeSeparators(trimmedComponent + componentSeparator + strings.TrimSpace(rest))
		}
	}

	return normalizeSeparators(trimmedComponent + componentSeparator + trimmedTitle)
}

func cutPrefixFold(s string, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func normalizeSeparators(title string) string {
	return strings.ReplaceAll(title, legacySeparator, componentSeparator)
}
