package zephyr

import (
	"encoding/json"
	"strings"
)

// Status is the normalized outcome of an issue's test executions.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusUnknown Status = "UNKNOWN"
)

// NormalizeExecutionStatus reduces a raw execution payload to one status.
// The backend has answered with several shapes over time; the walk is
// deliberately tolerant and collects every status label it can find. Any
// failing label dominates, then any passing one, otherwise UNKNOWN.
func NormalizeExecutionStatus(raw json.RawMessage) Status {
	if len(raw) == 0 {
		return StatusUnknown
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return StatusUnknown
	}

	labels := collectStatusLabels(payload)
	return reduceStatusLabels(labels)
}

func reduceStatusLabels(labels []string) Status {
	sawPass := false
	for _, label := range labels {
		lowered := strings.ToLower(label)
		if strings.Contains(lowered, "fail") {
			return StatusFail
		}
		if strings.Contains(lowered, "pass") {
			sawPass = true
		}
	}
	if sawPass {
		return StatusPass
	}
	return StatusUnknown
}

// collectStatusLabels walks the known payload shapes: a top-level object
// with an executions or values array, a bare array of executions, and
// execution entries that nest their status under an "execution" object.
// Status itself may be a string or an object with name/description.
func collectStatusLabels(payload any) []string {
	var labels []string

	switch value := payload.(type) {
	case []any:
		for _, item := range value {
			labels = append(labels, collectStatusLabels(item)...)
		}
	case map[string]any:
		for _, wrapper := range []string{"executions", "values", "results"} {
			if items, ok := value[wrapper].([]any); ok {
				for _, item := range items {
					labels = append(labels, collectStatusLabels(item)...)
				}
			}
		}
		if nested, ok := value["execution"].(map[string]any); ok {
			labels = append(labels, collectStatusLabels(nested)...)
		}
		for _, key := range []string{"status", "executionStatus", "statusName"} {
			if label := statusLabel(value[key]); label != "" {
				labels = append(labels, label)
			}
		}
	}

	return labels
}

func statusLabel(value any) string {
	switch status := value.(type) {
	case string:
		return strings.TrimSpace(status)
	case map[string]any:
		for _, key := range []string{"name", "description"} {
			if label, ok := status[key].(string); ok && strings.TrimSpace(label) != "" {
				return strings.TrimSpace(label)
			}
		}
	}
	return ""
}
