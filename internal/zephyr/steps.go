package zephyr

import (
	"encoding/json"
	"sort"
	"strings"
)

// TestStep is one manual test step. Raw keeps the original entry for
// callers that need fields the projection drops.
type TestStep struct {
	ID      string          `json:"id"`
	Step    string          `json:"step"`
	Data    string          `json:"data,omitempty"`
	Result  string          `json:"result,omitempty"`
	OrderID int             `json:"orderId"`
	Raw     json.RawMessage `json:"-"`
}

// parseTestSteps maps a raw test step payload to ordered steps. The backend
// wraps the list in one of several keys and sometimes nests each entry
// under "teststep" or "testStep"; all of those shapes are accepted.
func parseTestSteps(raw json.RawMessage) ([]TestStep, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	entries, err := stepEntries(raw)
	if err != nil {
		return nil, err
	}

	steps := make([]TestStep, 0, len(entries))
	for _, entry := range entries {
		step, ok := parseStepEntry(entry)
		if !ok {
			continue
		}
		steps = append(steps, step)
	}

	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].OrderID != steps[j].OrderID {
			return steps[i].OrderID < steps[j].OrderID
		}
		return steps[i].ID < steps[j].ID
	})
	return steps, nil
}

func stepEntries(raw json.RawMessage) ([]json.RawMessage, error) {
	var direct []json.RawMessage
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	for _, key := range []string{"testSteps", "stepBeanCollection", "values", "results"} {
		inner, ok := wrapped[key]
		if !ok {
			continue
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(inner, &entries); err == nil {
			return entries, nil
		}
	}
	return nil, nil
}

func parseStepEntry(entry json.RawMessage) (TestStep, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return TestStep{}, false
	}

	// Some payloads nest the actual step under a wrapper key.
	for _, key := range []string{"teststep", "testStep"} {
		if inner, ok := fields[key]; ok {
			var innerFields map[string]json.RawMessage
			if err := json.Unmarshal(inner, &innerFields); err == nil {
				fields = innerFields
			}
			break
		}
	}

	step := TestStep{
		ID:      stringField(fields, "id"),
		Step:    stringField(fields, "step"),
		Data:    stringField(fields, "data"),
		Result:  stringField(fields, "result"),
		OrderID: intField(fields, "orderId"),
		Raw:     append(json.RawMessage(nil), entry...),
	}
	if step.Step == "" && step.ID == "" {
		return TestStep{}, false
	}
	return step, true
}

// stringField accepts both string and numeric JSON values, since entry IDs
// arrive as either.
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String()
	}
	return ""
}

func intField(fields map[string]json.RawMessage, key string) int {
	raw, ok := fields[key]
	if !ok {
		return 0
	}

	var number int
	if err := json.Unmarshal(raw, &number); err == nil {
		return number
	}
	return 0
}
