package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the stable failure category of a resolution. Callers branch on
// the kind, never on the message text.
type ErrorKind string

const (
	KindInvalidURL        ErrorKind = "INVALID_URL"
	KindMissingCredential ErrorKind = "MISSING_CREDENTIAL"
	KindInvalidCredential ErrorKind = "INVALID_CREDENTIAL"
	KindOverloaded        ErrorKind = "OVERLOADED"
	KindToolExecution     ErrorKind = "TOOL_EXECUTION"
	KindMalformedMetadata ErrorKind = "MALFORMED_METADATA"
	KindNoSuitableFormat  ErrorKind = "NO_SUITABLE_FORMAT"
)

// ResolutionError is raised by every pipeline stage.
type ResolutionError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Detail)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func NewResolutionError(kind ErrorKind, detail string, err error) *ResolutionError {
	return &ResolutionError{Kind: kind, Detail: detail, Err: err}
}

// AsResolutionError reports whether err carries a ResolutionError anywhere in its chain.
func AsResolutionError(err error) (*ResolutionError, bool) {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsKind reports whether err is a ResolutionError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	re, ok := AsResolutionError(err)
	return ok && re.Kind == kind
}

// ErrorCode identifies an HTTP-level failure in API responses.
type ErrorCode string

const (
	ErrorCodeValidationError   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

func NewErrorWithDetails(code ErrorCode, message string, statusCode int, details map[string]interface{}) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// NewResolutionAppError wraps a classified resolution failure into the API
// error envelope. The status code is decided by the classifier.
func NewResolutionAppError(re *ResolutionError, statusCode int, retryable bool) *AppError {
	details := map[string]interface{}{
		"retryable": retryable,
	}
	if re.Err != nil && re.Kind == KindToolExecution {
		details["diagnostic"] = re.Err.Error()
	}
	return NewErrorWithDetails(ErrorCode(re.Kind), re.Detail, statusCode, details)
}

func NewValidationError(message string, details map[string]interface{}) *AppError {
	return NewErrorWithDetails(ErrorCodeValidationError, message, http.StatusBadRequest, details)
}

func NewUnauthorizedError() *AppError {
	return NewError(
		ErrorCodeUnauthorized,
		"Invalid or missing authentication",
		http.StatusUnauthorized,
	)
}

func NewRateLimitError() *AppError {
	return NewError(
		ErrorCodeRateLimitExceeded,
		"Too many requests",
		http.StatusTooManyRequests,
	)
}

func NewInternalError() *AppError {
	return NewError(
		ErrorCodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)
}
