package contracts

import "testing"

func TestStableReasonCodesAreFrozen(t *testing.T) {
	t.Parallel()

	want := []ReasonCode{
		"validation_failed",
		"auth_failed",
		"transport_error",
		"endpoint_not_found",
		"not_structured_output",
		"schema_validation_failed",
		"sprint_field_unresolved",
		"test_backend_disabled",
	}

	if len(StableReasonCodes) != len(want) {
		t.Fatalf("expected %d stable reason codes, got %d", len(want), len(StableReasonCodes))
	}
	for i, code := range want {
		if StableReasonCodes[i] != code {
			t.Fatalf("expected reason code %q at position %d, got %q", code, i, StableReasonCodes[i])
		}
	}

	if IsStableReasonCode("made_up_code") {
		t.Fatal("expected unknown code to be rejected")
	}
}

func TestResolveExitCode(t *testing.T) {
	t.Parallel()

	if got := ResolveExitCode(0, false); got != ExitCodeSuccess {
		t.Fatalf("expected success, got %d", got)
	}
	if got := ResolveExitCode(2, false); got != ExitCodePartial {
		t.Fatalf("expected partial, got %d", got)
	}
	if got := ResolveExitCode(2, true); got != ExitCodeFatal {
		t.Fatalf("expected fatal to dominate warnings, got %d", got)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	valid := Config{
		ConfigVersion: ConfigSchemaVersionV1,
		Jira: JiraConfig{
			BaseURL:    "https://example.atlassian.test",
			ProjectKey: "PROJ",
		},
	}
	if err := ValidateConfig(valid); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	unsupported := valid
	unsupported.ConfigVersion = "99"
	if err := ValidateConfig(unsupported); err == nil {
		t.Fatal("expected version mismatch error")
	}

	badScheme := valid
	badScheme.Jira.BaseURL = "example.atlassian.test"
	if err := ValidateConfig(badScheme); err == nil {
		t.Fatal("expected scheme validation error")
	}

	lowercaseKey := valid
	lowercaseKey.Jira.ProjectKey = "proj"
	if err := ValidateConfig(lowercaseKey); err == nil {
		t.Fatal("expected project key validation error")
	}
}

func TestValidateEnvelopeBasics(t *testing.T) {
	t.Parallel()

	valid := CommandEnvelope{
		EnvelopeVersion: JSONEnvelopeVersionV1,
		Command:         CommandMeta{Name: "status"},
	}
	if err := ValidateEnvelopeBasics(valid); err != nil {
		t.Fatalf("expected valid envelope, got %v", err)
	}

	if err := ValidateEnvelopeBasics(CommandEnvelope{EnvelopeVersion: "2"}); err == nil {
		t.Fatal("expected version rejection")
	}
	if err := ValidateEnvelopeBasics(CommandEnvelope{EnvelopeVersion: JSONEnvelopeVersionV1}); err == nil {
		t.Fatal("expected missing command name rejection")
	}
}

func TestJiraIssueKeyPattern(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"PROJ-1", "A2B-1234", "X-9"} {
		if !JiraIssueKeyPattern.MatchString(key) {
			t.Fatalf("expected %q to match", key)
		}
	}
	for _, key := range []string{"", "proj-1", "1ABC-2", "PROJ-", "PROJ_1"} {
		if JiraIssueKeyPattern.MatchString(key) {
			t.Fatalf("expected %q to be rejected", key)
		}
	}
}
