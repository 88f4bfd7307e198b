package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"phmagent/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeEmptyInput      = "EMPTY_INPUT"
	CodeNoData          = "NO_DATA"
	CodeSchemaDetection = "SCHEMA_DETECTION"
	CodeTooLarge        = "PAYLOAD_TOO_LARGE"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func TooLarge(limit int64) *AppError {
	return New(CodeTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit))
}

// FromDomain classifies err by the domain sentinel it wraps. Each kind keeps
// its own code and message so callers can tell a schema problem from an
// empty day.
func FromDomain(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Code != CodeInternalError {
		return appErr
	}
	switch {
	case core.IsSchemaDetectionError(err):
		return &AppError{Code: CodeSchemaDetection, Message: "sensor table schema not recognized", Cause: err}
	case core.IsNoDataError(err):
		return &AppError{Code: CodeNoData, Message: "no readings for the requested date", Cause: err}
	case core.IsEmptyInputError(err):
		return &AppError{Code: CodeEmptyInput, Message: "no numeric values to analyze", Cause: err}
	case stderrors.Is(err, core.ErrTableNotFound):
		return &AppError{Code: CodeNotFound, Message: "sensor table not found", Cause: err}
	case core.IsInputError(err):
		return &AppError{Code: CodeInvalidInput, Message: "invalid request", Cause: err}
	}
	return &AppError{Code: CodeInternalError, Message: "internal error", Cause: err}
}

// HTTPStatus maps an error code to a response status.
func HTTPStatus(code string) int {
	switch code {
	case CodeInvalidInput, CodeEmptyInput:
		return http.StatusBadRequest
	case CodeNoData, CodeNotFound:
		return http.StatusNotFound
	case CodeSchemaDetection:
		return http.StatusUnprocessableEntity
	case CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeDatabaseError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
