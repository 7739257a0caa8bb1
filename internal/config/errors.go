package config

import "fmt"

type ErrorCode string

const (
	ErrorCodeReadFailed       ErrorCode = "config_read_failed"
	ErrorCodeParseFailed      ErrorCode = "config_parse_failed"
	ErrorCodeWriteFailed      ErrorCode = "config_write_failed"
	ErrorCodeValidationFailed ErrorCode = "config_validation_failed"
)

type Error struct {
	Code ErrorCode
	Path string
	Err  error
}

func (err *Error) Error() string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s for %s: %v", err.Code, err.Path, err.Err)
}

func (err *Error) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Err
}

type ResolveErrorCode string

const (
	ResolveErrorCodeInvalidConfig  ResolveErrorCode = "invalid_config"
	ResolveErrorCodeInvalidFlag    ResolveErrorCode = "invalid_flag"
	ResolveErrorCodeMissingSetting ResolveErrorCode = "missing_setting"
)

type ResolveError struct {
	Code    ResolveErrorCode
	Message string
	Err     error
}

func (err *ResolveError) Error() string {
	if err == nil {
		return ""
	}
	if err.Err == nil {
		return err.Message
	}
	return fmt.Sprintf("%s: %v", err.Message, err.Err)
}

func (err *ResolveError) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Err
}
