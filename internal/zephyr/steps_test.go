package zephyr

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestParseTestStepsAcceptsKnownWrappers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    []TestStep
	}{
		{
			name:    "testSteps wrapper",
			payload: `{"testSteps":[{"id":1,"step":"Open app","orderId":1},{"id":2,"step":"Log in","orderId":2}]}`,
			want: []TestStep{
				{ID: "1", Step: "Open app", OrderID: 1},
				{ID: "2", Step: "Log in", OrderID: 2},
			},
		},
		{
			name:    "bare array with nested teststep objects",
			payload: `[{"teststep":{"id":"a","step":"Check result","result":"Shown","orderId":1}}]`,
			want: []TestStep{
				{ID: "a", Step: "Check result", Result: "Shown", OrderID: 1},
			},
		},
		{
			name:    "stepBeanCollection wrapper sorts by order",
			payload: `{"stepBeanCollection":[{"id":2,"step":"Second","orderId":2},{"id":1,"step":"First","orderId":1}]}`,
			want: []TestStep{
				{ID: "1", Step: "First", OrderID: 1},
				{ID: "2", Step: "Second", OrderID: 2},
			},
		},
		{
			name:    "entries without step or id are dropped",
			payload: `{"testSteps":[{"orderId":1},{"id":3,"step":"Kept","orderId":2}]}`,
			want: []TestStep{
				{ID: "3", Step: "Kept", OrderID: 2},
			},
		},
		{
			name:    "unknown wrapper yields nothing",
			payload: `{"somethingElse":[{"id":1,"step":"Hidden"}]}`,
			want:    []TestStep{},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseTestSteps(json.RawMessage(tc.payload))
			if err != nil {
				t.Fatalf("expected parse success, got %v", err)
			}
			if diff := cmp.Diff(tc.want, got, cmpopts.IgnoreFields(TestStep{}, "Raw"), cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("unexpected steps (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTestStepsKeepsRawEntry(t *testing.T) {
	t.Parallel()

	payload := `{"testSteps":[{"id":1,"step":"Open app","orderId":1,"attachmentCount":3}]}`
	steps, err := parseTestSteps(json.RawMessage(payload))
	if err != nil {
		t.Fatalf("expected parse success, got %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("expected one step, got %d", len(steps))
	}

	var extra struct {
		AttachmentCount int `json:"attachmentCount"`
	}
	if err := json.Unmarshal(steps[0].Raw, &extra); err != nil {
		t.Fatalf("expected raw entry to stay decodable, got %v", err)
	}
	if extra.AttachmentCount != 3 {
		t.Fatalf("expected raw entry to preserve dropped fields, got %d", extra.AttachmentCount)
	}
}
