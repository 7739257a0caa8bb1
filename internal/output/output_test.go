package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/testgenie/testgenie/internal/contracts"
)

func TestBuildEnvelopeCarriesDataAndWarnings(t *testing.T) {
	t.Parallel()

	report := Report{
		CommandName: "issue-view",
		Data:        map[string]any{"key": "PROJ-7"},
		Warnings: []contracts.Warning{
			{ReasonCode: contracts.ReasonCodeTransportError, Text: "skipped linked issue PROJ-9"},
		},
	}

	env, err := BuildEnvelope(report, 125*time.Millisecond)
	if err != nil {
		t.Fatalf("expected envelope build success, got %v", err)
	}

	if env.EnvelopeVersion != contracts.JSONEnvelopeVersionV1 {
		t.Fatalf("unexpected envelope version %q", env.EnvelopeVersion)
	}
	if env.Command.Name != "issue-view" || env.Command.DurationMS != 125 {
		t.Fatalf("unexpected command meta %+v", env.Command)
	}
	if len(env.Warnings) != 1 {
		t.Fatalf("expected warning to be carried, got %+v", env.Warnings)
	}
}

func TestBuildEnvelopeRejectsMissingCommandName(t *testing.T) {
	t.Parallel()

	if _, err := BuildEnvelope(Report{}, 0); err == nil {
		t.Fatal("expected envelope build failure for missing command name")
	}
}

func TestWriteJSONEmitsSingleEnvelopeOnStdout(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	report := Report{CommandName: "test-status", Data: map[string]any{"status": "FAIL"}}

	if err := Write(contracts.OutputModeJSON, stdout, stderr, report, time.Second, nil); err != nil {
		t.Fatalf("expected write success, got %v", err)
	}

	var env contracts.CommandEnvelope
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		t.Fatalf("expected valid JSON envelope, got %v", err)
	}
	if env.Command.Name != "test-status" {
		t.Fatalf("unexpected command name %q", env.Command.Name)
	}
	if stderr.Len() != 0 {
		t.Fatalf("expected empty stderr, got %q", stderr.String())
	}
}

func TestWriteJSONRoutesFatalDiagnosticToStderr(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	report := Report{CommandName: "status"}

	if err := Write(contracts.OutputModeJSON, stdout, stderr, report, 0, errors.New("auth failed")); err != nil {
		t.Fatalf("expected write success, got %v", err)
	}

	if !strings.Contains(stderr.String(), "auth failed") {
		t.Fatalf("expected diagnostic on stderr, got %q", stderr.String())
	}
	if strings.Contains(stdout.String(), "auth failed") {
		t.Fatalf("expected stdout to stay machine-readable, got %q", stdout.String())
	}
}

func TestWriteHumanRendersLinesAndWarnings(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	report := Report{
		CommandName: "issue-links",
		HumanLines:  []string{"1 issue(s) linked via \"Tests\"", "- PROJ-2 linked summary"},
		Warnings: []contracts.Warning{
			{ReasonCode: contracts.ReasonCodeTransportError, Text: "skipped PROJ-3"},
		},
	}

	if err := Write(contracts.OutputModeHuman, stdout, stderr, report, 0, nil); err != nil {
		t.Fatalf("expected write success, got %v", err)
	}

	if !strings.Contains(stdout.String(), "- PROJ-2 linked summary") {
		t.Fatalf("expected human lines on stdout, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "skipped PROJ-3") {
		t.Fatalf("expected warning on stderr, got %q", stderr.String())
	}
}

func TestResolveExitCodeMatrix(t *testing.T) {
	t.Parallel()

	if got := ResolveExitCode(Report{}, nil); got != contracts.ExitCodeSuccess {
		t.Fatalf("expected success, got %d", got)
	}
	if got := ResolveExitCode(Report{Warnings: []contracts.Warning{{Text: "w"}}}, nil); got != contracts.ExitCodePartial {
		t.Fatalf("expected partial, got %d", got)
	}
	if got := ResolveExitCode(Report{}, errors.New("boom")); got != contracts.ExitCodeFatal {
		t.Fatalf("expected fatal, got %d", got)
	}
}
