package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Catalog and gateway errors
	ErrCodeScenarioNotFound    ErrorCode = "SCENARIO_NOT_FOUND"
	ErrCodeMissingParameter    ErrorCode = "MISSING_PARAMETER"
	ErrCodeEmptyStatement      ErrorCode = "EMPTY_STATEMENT"
	ErrCodeStatementNotAllowed ErrorCode = "STATEMENT_NOT_ALLOWED"
	ErrCodeUnknownDatabase     ErrorCode = "UNKNOWN_DATABASE"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"

	// Infrastructure errors
	ErrCodeConnectionTimeout ErrorCode = "CONNECTION_TIMEOUT"
	ErrCodeExecutionFailed   ErrorCode = "EXECUTION_FAILED"
	ErrCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

// AppError represents an application error with code and context
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
	Status  int // HTTP status code
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Status:  getHTTPStatus(code),
	}
}

// ScenarioNotFound reports an unknown scenario key.
func ScenarioNotFound(key string) *AppError {
	return NewAppError(ErrCodeScenarioNotFound, fmt.Sprintf("scenario '%s' not found", key), nil)
}

// MissingParameter reports the first required parameter without a value.
func MissingParameter(name string) *AppError {
	return NewAppError(ErrCodeMissingParameter, fmt.Sprintf("missing required parameter: %s", name), nil)
}

// UnknownDatabase reports a logical database name with no pool behind it.
func UnknownDatabase(name string) *AppError {
	return NewAppError(ErrCodeUnknownDatabase, fmt.Sprintf("unsupported database: %s", name), nil)
}

// ExecutionFailed keeps the driver message verbatim.
func ExecutionFailed(err error) *AppError {
	return NewAppError(ErrCodeExecutionFailed, err.Error(), err)
}

// getHTTPStatus maps error codes to HTTP status codes
func getHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeScenarioNotFound:
		return http.StatusNotFound
	case ErrCodeMissingParameter, ErrCodeEmptyStatement, ErrCodeStatementNotAllowed,
		ErrCodeUnknownDatabase, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeConnectionTimeout, ErrCodeExecutionFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// IsValidationError checks if the error was caused by caller input
func IsValidationError(err error) bool {
	if appErr, ok := As(err); ok {
		return appErr.Status == http.StatusBadRequest
	}
	return false
}
