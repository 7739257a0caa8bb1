package jira

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestFindSprintFieldID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields []Field
		want   string
	}{
		{
			name: "matches by name case-insensitively",
			fields: []Field{
				{ID: "customfield_10001", Name: "Story Points"},
				{ID: "customfield_10002", Name: "sprint"},
			},
			want: "customfield_10002",
		},
		{
			name: "matches by custom schema",
			fields: []Field{
				{ID: "customfield_10003", Name: "Iteration", Custom: true, Schema: "com.pyxis.greenhopper.jira:gh-sprint"},
			},
			want: "customfield_10003",
		},
		{
			name: "no sprint field",
			fields: []Field{
				{ID: "customfield_10001", Name: "Story Points"},
			},
			want: "",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := findSprintFieldID(tc.fields); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestSprintFieldResolverMemoizesSuccessAndAbsence(t *testing.T) {
	t.Parallel()

	lookups := 0
	resolver := newSprintFieldResolver(func(ctx context.Context) ([]Field, error) {
		lookups++
		return []Field{{ID: "customfield_10002", Name: "Sprint"}}, nil
	})

	for i := 0; i < 3; i++ {
		fieldID, err := resolver.Resolve(context.Background())
		if err != nil {
			t.Fatalf("expected resolve success, got %v", err)
		}
		if fieldID != "customfield_10002" {
			t.Fatalf("expected customfield_10002, got %q", fieldID)
		}
	}
	if lookups != 1 {
		t.Fatalf("expected one catalog lookup, got %d", lookups)
	}

	absent := newSprintFieldResolver(func(ctx context.Context) ([]Field, error) {
		lookups++
		return nil, nil
	})
	before := lookups
	for i := 0; i < 2; i++ {
		fieldID, err := absent.Resolve(context.Background())
		if err != nil {
			t.Fatalf("expected resolve success, got %v", err)
		}
		if fieldID != "" {
			t.Fatalf("expected empty field ID, got %q", fieldID)
		}
	}
	if lookups != before+1 {
		t.Fatalf("expected absence to be memoized, got %d extra lookups", lookups-before)
	}
}

func TestSprintFieldResolverRetriesAfterLookupFailure(t *testing.T) {
	t.Parallel()

	lookups := 0
	resolver := newSprintFieldResolver(func(ctx context.Context) ([]Field, error) {
		lookups++
		if lookups == 1 {
			return nil, errors.New("catalog unavailable")
		}
		return []Field{{ID: "customfield_10002", Name: "Sprint"}}, nil
	})

	if _, err := resolver.Resolve(context.Background()); err == nil {
		t.Fatal("expected first resolve to fail")
	}

	fieldID, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("expected retry success, got %v", err)
	}
	if fieldID != "customfield_10002" {
		t.Fatalf("expected customfield_10002 after retry, got %q", fieldID)
	}
	if lookups != 2 {
		t.Fatalf("expected failure to leave resolver unresolved, got %d lookups", lookups)
	}
}

func TestParseSprintValueObjectArray(t *testing.T) {
	t.Parallel()

	raw := json.RawMessage(`[
		{"name":"Sprint 3","state":"closed"},
		{"name":"Sprint 4","state":"active"},
		{"name":"Sprint 5","state":"active"}
	]`)

	sprint := parseSprintValue(raw)
	if sprint == nil {
		t.Fatal("expected an active sprint")
	}
	if sprint.Name != "Sprint 4" || sprint.State != "ACTIVE" {
		t.Fatalf("expected first active sprint, got %+v", sprint)
	}
}

func TestParseSprintValueLegacyStrings(t *testing.T) {
	t.Parallel()

	raw := json.RawMessage(`[
		"com.atlassian.greenhopper.service.sprint.Sprint@1a[id=6,rapidViewId=2,state=CLOSED,name=Sprint 3,startDate=2026-07-01]",
		"com.atlassian.greenhopper.service.sprint.Sprint@1b[id=7,rapidViewId=2,state=ACTIVE,name=Sprint 4,startDate=2026-08-01]"
	]`)

	sprint := parseSprintValue(raw)
	if sprint == nil {
		t.Fatal("expected an active sprint")
	}
	if sprint.Name != "Sprint 4" || sprint.State != "ACTIVE" {
		t.Fatalf("expected Sprint 4 ACTIVE, got %+v", sprint)
	}
}

func TestParseSprintValueNoActiveSprint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "all closed objects", raw: `[{"name":"Sprint 1","state":"CLOSED"}]`},
		{name: "all closed legacy", raw: `["Sprint@1[id=1,state=CLOSED,name=Sprint 1]"]`},
		{name: "empty array", raw: `[]`},
		{name: "null", raw: `null`},
		{name: "garbage", raw: `"not a sprint"`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if sprint := parseSprintValue(json.RawMessage(tc.raw)); sprint != nil {
				t.Fatalf("expected no sprint, got %+v", sprint)
			}
		})
	}
}
