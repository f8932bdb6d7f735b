package types

import "fmt"

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// NewErrorResponse builds a consistent API error payload.
// details can be string, map, struct, etc.
func NewErrorResponse(code, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// ConfigurationError reports a structural problem in a protocol definition.
// Path points at the offending element, e.g. "protocol.prototype[0].receive".
type ConfigurationError struct {
	Path   string
	Reason string
	Err    error
}

func NewConfigurationError(path, reason string) *ConfigurationError {
	return &ConfigurationError{Path: path, Reason: reason}
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error at %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
