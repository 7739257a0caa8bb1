package httpclient

import (
	"encoding/base64"
	"strings"
)

const RedactedPlaceholder = "[REDACTED]"

// Redactor removes sensitive values from error messages. API tokens and
// signing keys must never surface in diagnostics, in either their raw or
// their base64 form; Basic credentials travel base64-encoded in headers.
type Redactor struct {
	secrets []string
}

func NewRedactor(secrets ...string) Redactor {
	if len(secrets) == 0 {
		return Redactor{}
	}

	unique := make([]string, 0, len(secrets)*2)
	seen := make(map[string]struct{}, len(secrets)*2)
	add := func(value string) {
		if value == "" {
			return
		}
		if _, ok := seen[value]; ok {
			return
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}

	for _, secret := range secrets {
		trimmed := strings.TrimSpace(secret)
		if trimmed == "" {
			continue
		}
		add(trimmed)
		add(base64.StdEncoding.EncodeToString([]byte(trimmed)))
	}

	return Redactor{secrets: unique}
}

func (r Redactor) Redact(value string) string {
	if value == "" || len(r.secrets) == 0 {
		return value
	}

	redacted := value
	for _, secret := range r.secrets {
		redacted = strings.ReplaceAll(redacted, secret, RedactedPlaceholder)
	}
	return redacted
}
