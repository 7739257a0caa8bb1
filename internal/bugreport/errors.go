package bugreport

import (
	"errors"
	"fmt"

	"github.com/testgenie/testgenie/internal/contracts"
)

type ErrorCode string

const (
	// ErrorCodeNotStructuredOutput means no JSON object could be located in
	// the model output at all.
	ErrorCodeNotStructuredOutput ErrorCode = "not_structured_output"
	// ErrorCodeSchemaValidation means a JSON object was found but one of its
	// fields violates the report schema.
	ErrorCodeSchemaValidation ErrorCode = "schema_validation_failed"
)

type Error struct {
	Code       ErrorCode
	ReasonCode contracts.ReasonCode
	Field      string
	Message    string
	Err        error
}

func (err *Error) Error() string {
	if err == nil {
		return ""
	}

	base := err.Message
	if base == "" {
		base = "bug report validation failed"
	}
	if err.Field != "" {
		base = fmt.Sprintf("%s (field %q)", base, err.Field)
	}
	if err.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, err.Err)
}

func (err *Error) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Err
}

func IsErrorCode(err error, code ErrorCode) bool {
	var reportErr *Error
	if !errors.As(err, &reportErr) {
		return false
	}
	return reportErr.Code == code
}
