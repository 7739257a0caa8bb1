package bugreport

import (
	"encoding/json"
	"strings"

	"github.com/testgenie/testgenie/internal/contracts"
)

// rawReport mirrors Report but defers the fields whose shape the model gets
// wrong most often: steps arrive as a list or as prose, priority as any
// synonym.
type rawReport struct {
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	StepsToReproduce json.RawMessage `json:"stepsToReproduce"`
	ExpectedResult   string          `json:"expectedResult"`
	ActualResult     string          `json:"actualResult"`
	Component        string          `json:"component"`
	Environment      string          `json:"environment"`
	Reproducibility  string          `json:"reproducibility"`
	Workaround       *string         `json:"workaround"`
	Impact           string          `json:"impact"`
	Priority         string          `json:"priority"`
}

// Extract locates, parses, and validates a bug report inside free-form
// model output. Parsing is two-stage: the whole output as JSON first, then
// the span from the first '{' to the last '}'. Everything past parsing is
// strict; a report that does not validate is an error, never a guess.
func Extract(output string) (Report, error) {
	raw, err := parseStructured(output)
	if err != nil {
		return Report{}, err
	}
	return validate(raw)
}

func parseStructured(output string) (rawReport, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return rawReport{}, &Error{
			Code:       ErrorCodeNotStructuredOutput,
			ReasonCode: contracts.ReasonCodeNotStructuredOutput,
			Message:    "model output is empty",
		}
	}

	var raw rawReport
	if err := json.Unmarshal([]byte(trimmed), &raw); err == nil {
		return raw, nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return rawReport{}, &Error{
			Code:       ErrorCodeNotStructuredOutput,
			ReasonCode: contracts.ReasonCodeNotStructuredOutput,
			Message:    "model output contains no JSON object",
		}
	}

	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &raw); err != nil {
		return rawReport{}, &Error{
			Code:       ErrorCodeNotStructuredOutput,
			ReasonCode: contracts.ReasonCodeNotStructuredOutput,
			Message:    "embedded JSON object is malformed",
			Err:        err,
		}
	}
	return raw, nil
}

func validate(raw rawReport) (Report, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return Report{}, &Error{
			Code:       ErrorCodeSchemaValidation,
			ReasonCode: contracts.ReasonCodeSchemaValidation,
			Field:      "title",
			Message:    "title must be set",
		}
	}

	steps, err := coerceSteps(raw.StepsToReproduce)
	if err != nil {
		return Report{}, err
	}

	priority, err := NormalizePriority(raw.Priority)
	if err != nil {
		return Report{}, err
	}

	var workaround *string
	if raw.Workaround != nil {
		if trimmed := strings.TrimSpace(*raw.Workaround); trimmed != "" {
			workaround = &trimmed
		}
	}

	return Report{
		Title:            title,
		Description:      strings.TrimSpace(raw.Description),
		StepsToReproduce: steps,
		ExpectedResult:   strings.TrimSpace(raw.ExpectedResult),
		ActualResult:     strings.TrimSpace(raw.ActualResult),
		Component:        strings.TrimSpace(raw.Component),
		Environment:      strings.TrimSpace(raw.Environment),
		Reproducibility:  strings.TrimSpace(raw.Reproducibility),
		Workaround:       workaround,
		Impact:           strings.TrimSpace(raw.Impact),
		Priority:         priority,
	}, nil
}
