package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/testgenie/testgenie/internal/contracts"
)

// pattern: Imperative Shell

func Write(mode contracts.OutputMode, stdout io.Writer, stderr io.Writer, report Report, duration time.Duration, fatalErr error) error {
	switch mode {
	case contracts.OutputModeJSON:
		env, err := BuildEnvelope(report, duration)
		if err != nil {
			return err
		}

		if err := json.NewEncoder(stdout).Encode(env); err != nil {
			return fmt.Errorf("failed to write JSON envelope: %w", err)
		}
		if fatalErr != nil {
			if _, err := fmt.Fprintln(stderr, FormatDiagnostic(fatalErr)); err != nil {
				return fmt.Errorf("failed to write diagnostics: %w", err)
			}
		}
		return nil
	case contracts.OutputModeHuman:
		if fatalErr != nil {
			if _, err := fmt.Fprintln(stderr, FormatDiagnostic(fatalErr)); err != nil {
				return fmt.Errorf("failed to write diagnostics: %w", err)
			}
			return nil
		}

		for _, line := range report.HumanLines {
			if _, err := fmt.Fprintln(stdout, line); err != nil {
				return fmt.Errorf("failed to write human output: %w", err)
			}
		}
		for _, warning := range report.Warnings {
			reason := ""
			if warning.ReasonCode != "" {
				reason = " (" + string(warning.ReasonCode) + ")"
			}
			if _, err := fmt.Fprintf(stderr, "warning%s: %s\n", reason, warning.Text); err != nil {
				return fmt.Errorf("failed to write human output: %w", err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output mode %q", mode)
	}
}

func FormatDiagnostic(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "failed to execute command"
	}
	if strings.HasPrefix(msg, "failed to ") {
		return msg
	}
	return "failed to execute command: " + msg
}
