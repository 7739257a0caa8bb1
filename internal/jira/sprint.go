package jira

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// sprintFieldResolver memoizes the custom field ID that carries sprint data.
// A successful catalog lookup is cached for the lifetime of the client,
// including the "no sprint field exists" answer. A failed lookup leaves the
// resolver unresolved so the next call retries.
type sprintFieldResolver struct {
	mu       sync.Mutex
	resolved bool
	fieldID  string

	lookup func(ctx context.Context) ([]Field, error)
}

func newSprintFieldResolver(lookup func(ctx context.Context) ([]Field, error)) *sprintFieldResolver {
	return &sprintFieldResolver{lookup: lookup}
}

// Resolve returns the sprint field ID, or an empty string when the catalog
// has no sprint field. Only the error case is not memoized.
func (r *sprintFieldResolver) Resolve(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved {
		return r.fieldID, nil
	}

	fields, err := r.lookup(ctx)
	if err != nil {
		return "", err
	}

	r.resolved = true
	r.fieldID = findSprintFieldID(fields)
	return r.fieldID, nil
}

// seed pins the resolver to a known field ID, skipping the catalog lookup.
func (r *sprintFieldResolver) seed(fieldID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = true
	r.fieldID = fieldID
}

func findSprintFieldID(fields []Field) string {
	for _, field := range fields {
		if strings.EqualFold(field.Name, "Sprint") {
			return field.ID
		}
		if field.Custom && strings.Contains(field.Schema, "gh-sprint") {
			return field.ID
		}
	}
	return ""
}

// parseSprintValue extracts the active sprint from a raw sprint field value.
// The field arrives in one of two shapes: an array of sprint objects, or an
// array of legacy toString dumps like
// "com.atlassian.greenhopper.service.sprint.Sprint@1a[id=7,state=ACTIVE,name=Sprint 4,...]".
// The first entry whose state is ACTIVE wins; nil means no active sprint.
func parseSprintValue(raw json.RawMessage) *Sprint {
	if len(raw) == 0 {
		return nil
	}

	var objects []struct {
		Name  string `json:"name"`
		State string `json:"state"`
	}
	if err := json.Unmarshal(raw, &objects); err == nil && len(objects) > 0 && objects[0].Name != "" {
		for _, obj := range objects {
			if strings.EqualFold(obj.State, "ACTIVE") {
				return &Sprint{Name: obj.Name, State: strings.ToUpper(obj.State)}
			}
		}
		return nil
	}

	var legacy []string
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil
	}
	for _, entry := range legacy {
		sprint := parseLegacySprint(entry)
		if sprint != nil && strings.EqualFold(sprint.State, "ACTIVE") {
			return sprint
		}
	}
	return nil
}

func parseLegacySprint(entry string) *Sprint {
	start := strings.Index(entry, "[")
	end := strings.LastIndex(entry, "]")
	if start < 0 || end <= start {
		return nil
	}

	var sprint Sprint
	for _, pair := range strings.Split(entry[start+1:end], ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "name":
			sprint.Name = strings.TrimSpace(value)
		case "state":
			sprint.State = strings.ToUpper(strings.TrimSpace(value))
		}
	}
	if sprint.Name == "" {
		return nil
	}
	return &sprint
}
