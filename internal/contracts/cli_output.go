package contracts

import "errors"

const JSONEnvelopeVersionV1 = "1"

type OutputMode string

const (
	OutputModeHuman OutputMode = "human"
	OutputModeJSON  OutputMode = "json"
)

type ExitCode int

const (
	ExitCodeSuccess ExitCode = 0
	ExitCodeFatal   ExitCode = 1
	ExitCodePartial ExitCode = 2
)

// ExitCodeMeaning freezes the CLI matrix semantics.
var ExitCodeMeaning = map[ExitCode]string{
	ExitCodeSuccess: "success",
	ExitCodePartial: "partial success with per-item warnings, no fatal command failure",
	ExitCodeFatal:   "fatal command failure (setup/config/auth/transport)",
}

// CommandEnvelope is the single JSON object emitted on stdout in JSON mode.
type CommandEnvelope struct {
	EnvelopeVersion string      `json:"envelope_version"`
	Command         CommandMeta `json:"command"`
	Data            any         `json:"data,omitempty"`
	Warnings        []Warning   `json:"warnings,omitempty"`
}

type CommandMeta struct {
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
}

// Warning is a per-item diagnostic that did not fail the whole command,
// e.g. one linked issue that could not be fetched during a fan-out.
type Warning struct {
	ReasonCode ReasonCode `json:"reason_code,omitempty"`
	Text       string     `json:"text"`
}

func ValidateEnvelopeBasics(env CommandEnvelope) error {
	if env.EnvelopeVersion != JSONEnvelopeVersionV1 {
		return errors.New("unsupported envelope_version")
	}
	if env.Command.Name == "" {
		return errors.New("command name is required")
	}
	return nil
}

func ResolveExitCode(warnings int, fatalErr bool) ExitCode {
	if fatalErr {
		return ExitCodeFatal
	}
	if warnings > 0 {
		return ExitCodePartial
	}
	return ExitCodeSuccess
}
