package bugreport

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const validReportJSON = `{
	"title": "Login crashes on submit",
	"description": "The app crashes when submitting the login form.",
	"stepsToReproduce": ["Open app", "Click login", "Observe crash"],
	"expectedResult": "User is logged in",
	"actualResult": "App crashes",
	"component": "Auth",
	"environment": "iOS 19.2",
	"reproducibility": "always",
	"priority": "critical"
}`

func TestExtractParsesWholeOutput(t *testing.T) {
	t.Parallel()

	report, err := Extract(validReportJSON)
	if err != nil {
		t.Fatalf("expected extraction success, got %v", err)
	}

	want := Report{
		Title:            "Login crashes on submit",
		Description:      "The app crashes when submitting the login form.",
		StepsToReproduce: []string{"Open app", "Click login", "Observe crash"},
		ExpectedResult:   "User is logged in",
		ActualResult:     "App crashes",
		Component:        "Auth",
		Environment:      "iOS 19.2",
		Reproducibility:  "always",
		Priority:         PriorityHigh,
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("unexpected report (-want +got):\n%s", diff)
	}
}

func TestExtractRecoversEmbeddedJSON(t *testing.T) {
	t.Parallel()

	output := "Sure! Here is the bug report you asked for:\n\n```json\n" + validReportJSON + "\n```\n\nLet me know if you need anything else."
	report, err := Extract(output)
	if err != nil {
		t.Fatalf("expected embedded JSON extraction, got %v", err)
	}
	if report.Title != "Login crashes on submit" {
		t.Fatalf("unexpected title %q", report.Title)
	}
}

func TestExtractRejectsUnstructuredOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
	}{
		{name: "empty", output: "   "},
		{name: "prose only", output: "I could not produce a bug report, sorry."},
		{name: "broken braces", output: "some text } with a stray { brace"},
		{name: "malformed object", output: `{"title": "x", }`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Extract(tc.output)
			if !IsErrorCode(err, ErrorCodeNotStructuredOutput) {
				t.Fatalf("expected not-structured-output, got %v", err)
			}
		})
	}
}

func TestExtractRequiresTitle(t *testing.T) {
	t.Parallel()

	if _, err := Extract(`{"description":"d"}`); !IsErrorCode(err, ErrorCodeSchemaValidation) {
		t.Fatalf("expected schema validation for missing title, got %v", err)
	}
}

func TestExtractDefaultsAbsentDescriptionToEmpty(t *testing.T) {
	t.Parallel()

	report, err := Extract(`{"title":"X","priority":"p0"}`)
	if err != nil {
		t.Fatalf("expected extraction success without description, got %v", err)
	}
	if report.Description != "" {
		t.Fatalf("expected empty description, got %q", report.Description)
	}
	if report.Priority != PriorityHighest {
		t.Fatalf("expected p0 to map to Highest, got %q", report.Priority)
	}
}

func TestExtractCoercesStepBlob(t *testing.T) {
	t.Parallel()

	output := `{
		"title": "Crash",
		"description": "It crashes.",
		"stepsToReproduce": "1. Open app\n2. Click login\n3. Observe crash"
	}`
	report, err := Extract(output)
	if err != nil {
		t.Fatalf("expected extraction success, got %v", err)
	}

	want := []string{"Open app", "Click login", "Observe crash"}
	if diff := cmp.Diff(want, report.StepsToReproduce); diff != "" {
		t.Fatalf("unexpected steps (-want +got):\n%s", diff)
	}
}

func TestExtractDefaultsAndNormalizesOptionalFields(t *testing.T) {
	t.Parallel()

	report, err := Extract(`{"title":"t","description":"d"}`)
	if err != nil {
		t.Fatalf("expected extraction success, got %v", err)
	}
	if report.Priority != PriorityMedium {
		t.Fatalf("expected default Medium priority, got %q", report.Priority)
	}
	if report.StepsToReproduce == nil {
		t.Fatal("expected steps to never be nil")
	}
	if report.Workaround != nil {
		t.Fatalf("expected no workaround, got %q", *report.Workaround)
	}
}

func TestExtractDropsBlankWorkaround(t *testing.T) {
	t.Parallel()

	report, err := Extract(`{"title":"t","description":"d","workaround":"   "}`)
	if err != nil {
		t.Fatalf("expected extraction success, got %v", err)
	}
	if report.Workaround != nil {
		t.Fatalf("expected blank workaround to be dropped, got %q", *report.Workaround)
	}

	report, err = Extract(`{"title":"t","description":"d","workaround":"restart the app"}`)
	if err != nil {
		t.Fatalf("expected extraction success, got %v", err)
	}
	if report.Workaround == nil || *report.Workaround != "restart the app" {
		t.Fatalf("expected workaround kept, got %v", report.Workaround)
	}
}
