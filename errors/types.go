package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Project and filesystem errors
	ErrCodeInvalidPath     ErrorCode = "INVALID_PATH"
	ErrCodePathOutsideRoot ErrorCode = "PATH_OUTSIDE_ROOT"
	ErrCodeFileNotFound    ErrorCode = "FILE_NOT_FOUND"
	ErrCodeIO              ErrorCode = "IO_FAILED"
	ErrCodeRootNotSet      ErrorCode = "ROOT_NOT_SET"

	// Assistant errors
	ErrCodeGeneration            ErrorCode = "GENERATION_FAILED"
	ErrCodeNoPendingModification ErrorCode = "NO_PENDING_MODIFICATION"
	ErrCodeEditorFailed          ErrorCode = "EDITOR_FAILED"

	// General errors
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
)

// ForgeError represents a structured error with context
type ForgeError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ForgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ForgeError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *ForgeError) WithDetail(key string, value interface{}) *ForgeError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *ForgeError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new ForgeError
func New(code ErrorCode, message string) *ForgeError {
	return &ForgeError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a ForgeError
func Wrap(err error, code ErrorCode, message string) *ForgeError {
	return &ForgeError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific ForgeError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	forgeErr, ok := err.(*ForgeError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return forgeErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	forgeErr, ok := err.(*ForgeError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return forgeErr.Code
}
