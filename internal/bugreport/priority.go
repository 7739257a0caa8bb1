package bugreport

import (
	"strconv"
	"strings"

	"github.com/testgenie/testgenie/internal/contracts"
)

// The canonical five-level priority scale of the issue tracker.
const (
	PriorityHighest = "Highest"
	PriorityHigh    = "High"
	PriorityMedium  = "Medium"
	PriorityLow     = "Low"
	PriorityLowest  = "Lowest"
)

// prioritySynonyms maps the spellings models actually produce onto the
// canonical scale. Lookup is case-insensitive.
var prioritySynonyms = map[string]string{
	"highest": PriorityHighest,
	"blocker": PriorityHighest,
	"urgent":  PriorityHighest,
	"p0":      PriorityHighest,
	"p1":      PriorityHighest,

	"high":     PriorityHigh,
	"critical": PriorityHigh,

	"medium": PriorityMedium,
	"major":  PriorityMedium,
	"p2":     PriorityMedium,

	"low":   PriorityLow,
	"minor": PriorityLow,
	"p3":    PriorityLow,

	"lowest":  PriorityLowest,
	"trivial": PriorityLowest,
	"p4":      PriorityLowest,
}

// NormalizePriority maps a free-form priority label onto the canonical
// scale. An empty label defaults to Medium; an unrecognized one is a
// validation error rather than a silent default.
func NormalizePriority(label string) (string, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return PriorityMedium, nil
	}

	if canonical, ok := prioritySynonyms[strings.ToLower(trimmed)]; ok {
		return canonical, nil
	}

	return "", &Error{
		Code:       ErrorCodeSchemaValidation,
		ReasonCode: contracts.ReasonCodeSchemaValidation,
		Field:      "priority",
		Message:    "unrecognized priority " + strconv.Quote(trimmed),
	}
}
