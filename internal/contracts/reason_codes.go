package contracts

// ReasonCode is a stable machine-readable code attached to command results
// and typed errors.
type ReasonCode string

const (
	ReasonCodeValidationFailed      ReasonCode = "validation_failed"
	ReasonCodeAuthFailed            ReasonCode = "auth_failed"
	ReasonCodeTransportError        ReasonCode = "transport_error"
	ReasonCodeEndpointNotFound      ReasonCode = "endpoint_not_found"
	ReasonCodeNotStructuredOutput   ReasonCode = "not_structured_output"
	ReasonCodeSchemaValidation      ReasonCode = "schema_validation_failed"
	ReasonCodeSprintFieldUnresolved ReasonCode = "sprint_field_unresolved"
	ReasonCodeTestBackendDisabled   ReasonCode = "test_backend_disabled"
)

// StableReasonCodes freezes the contract taxonomy and ordering.
var StableReasonCodes = []ReasonCode{
	ReasonCodeValidationFailed,
	ReasonCodeAuthFailed,
	ReasonCodeTransportError,
	ReasonCodeEndpointNotFound,
	ReasonCodeNotStructuredOutput,
	ReasonCodeSchemaValidation,
	ReasonCodeSprintFieldUnresolved,
	ReasonCodeTestBackendDisabled,
}

func IsStableReasonCode(code ReasonCode) bool {
	for _, stable := range StableReasonCodes {
		if stable == code {
			return true
		}
	}
	return false
}
