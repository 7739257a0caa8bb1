package output

import (
	"fmt"
	"time"

	"github.com/testgenie/testgenie/internal/contracts"
)

// pattern: Functional Core

// Report is command-level output data that can be rendered in human or JSON
// mode. Data is the command-specific payload; HumanLines is its pre-rendered
// human form.
type Report struct {
	CommandName string
	Data        any
	HumanLines  []string
	Warnings    []contracts.Warning
}

func BuildEnvelope(report Report, duration time.Duration) (contracts.CommandEnvelope, error) {
	env := contracts.CommandEnvelope{
		EnvelopeVersion: contracts.JSONEnvelopeVersionV1,
		Command: contracts.CommandMeta{
			Name:       report.CommandName,
			DurationMS: duration.Milliseconds(),
		},
		Data:     report.Data,
		Warnings: report.Warnings,
	}

	if err := contracts.ValidateEnvelopeBasics(env); err != nil {
		return contracts.CommandEnvelope{}, fmt.Errorf("failed to build command envelope: %w", err)
	}

	return env, nil
}

func ResolveExitCode(report Report, fatalErr error) contracts.ExitCode {
	return contracts.ResolveExitCode(len(report.Warnings), fatalErr != nil)
}
