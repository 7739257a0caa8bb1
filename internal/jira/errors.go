package jira

import (
	"errors"
	"fmt"

	"github.com/testgenie/testgenie/internal/contracts"
	httpclient "github.com/testgenie/testgenie/internal/http"
)

// ErrorCode classifies client failures for programmatic handling. The
// coarser contracts.ReasonCode rides along for CLI envelopes and warnings.
type ErrorCode string

const (
	ErrorCodeInvalidInput     ErrorCode = "invalid_input"
	ErrorCodeRequestEncode    ErrorCode = "request_encode_failed"
	ErrorCodeRequestBuild     ErrorCode = "request_build_failed"
	ErrorCodeTransport        ErrorCode = "transport_error"
	ErrorCodeAuthFailed       ErrorCode = "auth_failed"
	ErrorCodeUnexpectedStatus ErrorCode = "unexpected_status"
	ErrorCodeResponseDecode   ErrorCode = "response_decode_failed"
)

// Error is the typed failure of one issue tracker call. Messages pass
// through the client's redactor so credentials never leak into
// diagnostics or envelopes.
type Error struct {
	Code       ErrorCode
	ReasonCode contracts.ReasonCode
	StatusCode int
	Message    string
	Err        error
	redactor   httpclient.Redactor
}

func (err *Error) Error() string {
	if err == nil {
		return ""
	}

	base := err.Message
	if base == "" {
		base = "issue tracker request failed"
	}
	if err.Err == nil {
		return err.redactor.Redact(base)
	}
	return err.redactor.Redact(fmt.Sprintf("%s: %v", base, err.Err))
}

func (err *Error) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Err
}

func IsErrorCode(err error, code ErrorCode) bool {
	var clientErr *Error
	if !errors.As(err, &clientErr) {
		return false
	}
	return clientErr.Code == code
}

// ReasonCodeOf maps a client error onto the stable reason-code taxonomy
// for per-item warnings, defaulting to transport_error for untyped
// failures.
func ReasonCodeOf(err error) contracts.ReasonCode {
	var clientErr *Error
	if errors.As(err, &clientErr) && clientErr.ReasonCode != "" {
		return clientErr.ReasonCode
	}
	return contracts.ReasonCodeTransportError
}
