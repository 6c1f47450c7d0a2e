package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrMessageNotFound indicates the mirrored or remote message was not found
	ErrMessageNotFound = errors.New("message not found")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedAction indicates a mailbox action value the service does not know
	ErrUnsupportedAction = errors.New("unsupported action")

	// ErrUnauthorized indicates the caller has no valid session
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotAuthenticated indicates no mailbox credential is stored for the user
	ErrNotAuthenticated = errors.New("mailbox not connected")

	// ErrCredentialExpired indicates the provider rejected the refresh token
	ErrCredentialExpired = errors.New("mailbox credential expired, re-consent required")

	// ErrUpstream indicates the mail provider answered with a non-2xx status
	ErrUpstream = errors.New("mail provider error")

	// ErrPersistence indicates a local mirror read or write failed
	ErrPersistence = errors.New("persistence error")

	// ErrSyncInProgress indicates another sync pass holds the user's lock
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeNotAuthenticated  = "MAILBOX_NOT_CONNECTED"
	CodeCredentialExpired = "CREDENTIAL_EXPIRED"
	CodeUpstreamError     = "UPSTREAM_ERROR"
	CodePersistenceError  = "PERSISTENCE_ERROR"
	CodeSyncInProgress    = "SYNC_IN_PROGRESS"
	CodeInternalError     = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// UpstreamError carries the provider's status and error text.
// It matches ErrUpstream, and ErrMessageNotFound when the provider answered 404.
type UpstreamError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: mail provider returned %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: mail provider error: %s", e.Op, e.Detail)
}

// Unwrap returns the underlying transport error
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is reports whether target is one of the sentinels this error stands for
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrMessageNotFound:
		return e.StatusCode == 404
	}
	return false
}

// NewUpstreamError creates an UpstreamError for the named provider operation
func NewUpstreamError(op string, statusCode int, detail string, err error) *UpstreamError {
	return &UpstreamError{
		Op:         op,
		StatusCode: statusCode,
		Detail:     detail,
		Err:        err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Persistence wraps a store failure so it matches ErrPersistence
func Persistence(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", message, ErrPersistence, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrMessageNotFound)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrUnsupportedAction)
}

// IsAuthFailure checks if the error requires the user to (re)connect their mailbox
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrCredentialExpired)
}

// IsUpstream checks if the error came from the mail provider
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

// GetUpstreamError extracts UpstreamError from an error if it exists
func GetUpstreamError(err error) *UpstreamError {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr
	}
	return nil
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrNotAuthenticated):
		return CodeNotAuthenticated
	case errors.Is(err, ErrCredentialExpired):
		return CodeCredentialExpired
	case errors.Is(err, ErrSyncInProgress):
		return CodeSyncInProgress
	case IsNotFound(err):
		return CodeNotFound
	case IsInvalidInput(err):
		return CodeInvalidInput
	case IsUpstream(err):
		return CodeUpstreamError
	case errors.Is(err, ErrPersistence):
		return CodePersistenceError
	default:
		return CodeInternalError
	}
}
