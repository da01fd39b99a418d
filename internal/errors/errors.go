package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different categories of pipeline errors
type ErrorType string

const (
	// ErrorTypeDevice is a camera/frame-source access failure. Fatal to the
	// capture loop, logged once, leaves the session in a degraded idle state.
	ErrorTypeDevice ErrorType = "device"
	// ErrorTypeDetection is a failed detection call. Recoverable, the loop continues.
	ErrorTypeDetection ErrorType = "detection"
	// ErrorTypeMalformedResponse is an unparseable detection response, treated as empty.
	ErrorTypeMalformedResponse ErrorType = "malformed_response"
	// ErrorTypePlanning is a failed visualization-planning call; the pending
	// visualize action is aborted.
	ErrorTypePlanning ErrorType = "planning"
	// ErrorTypeScriptCompile is a 2D plan script that failed to compile.
	ErrorTypeScriptCompile ErrorType = "script_compile"
	// ErrorTypeRenderConfig is a 3D visualize attempt with no render endpoint configured.
	ErrorTypeRenderConfig ErrorType = "render_config"
	// ErrorTypeRenderFetch is a failed 3D asset fetch from a configured endpoint.
	ErrorTypeRenderFetch ErrorType = "render_fetch"
	// ErrorTypeState is an operation rejected by the session state machine.
	ErrorTypeState ErrorType = "state"
	// ErrorTypeValidation is a malformed client request.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeInternal is everything else.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewDeviceError creates a frame-source access error
func NewDeviceError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDevice,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// NewDetectionError creates a detection-call error
func NewDetectionError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDetection,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewMalformedResponseError creates an unparseable-response error
func NewMalformedResponseError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeMalformedResponse,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewPlanningError creates a visualization-planning error
func NewPlanningError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypePlanning,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewScriptCompileError creates a 2D script compile error
func NewScriptCompileError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeScriptCompile,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewRenderConfigError creates a missing-render-endpoint error
func NewRenderConfigError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeRenderConfig,
		Message:    message,
		StatusCode: http.StatusPreconditionFailed,
	}
}

// NewRenderFetchError creates a 3D asset fetch error
func NewRenderFetchError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeRenderFetch,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewStateError creates a rejected-transition error
func NewStateError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeState,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewValidationError creates a malformed-request error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
