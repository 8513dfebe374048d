package errors

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors for the billing core. Services mark every error they raise
// with exactly one of these so callers can branch on kind without string
// matching.
var (
	// ErrValidation indicates invalid input or a violated business constraint.
	ErrValidation = errors.New("validation_error")
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not_found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already_exists")
	// ErrVersionConflict indicates a concurrent modification raced this one.
	ErrVersionConflict = errors.New("version_conflict")
	// ErrInvalidOperation indicates the entity is in a state that does not
	// permit the requested operation.
	ErrInvalidOperation = errors.New("invalid_operation")
	// ErrPermissionDenied indicates the caller is not allowed to act on the entity.
	ErrPermissionDenied = errors.New("permission_denied")
	// ErrHTTPClient indicates an upstream provider (payment gateway) rejected
	// or failed the request.
	ErrHTTPClient = errors.New("http_client_error")
	// ErrDatabase indicates a persistence failure; the enclosing transaction
	// has been rolled back.
	ErrDatabase = errors.New("database_error")
	// ErrInternal is the catch-all for unexpected failures.
	ErrInternal = errors.New("internal_error")
	// ErrSystem indicates an infrastructure level failure (config, wiring).
	ErrSystem = errors.New("system_error")
)

// InternalError is the concrete error carried through the service layers.
// It keeps a user-presentable hint and structured details separate from the
// internal message.
type InternalError struct {
	// Code is the marked sentinel, set by Mark
	Code error
	// Message is the internal developer-facing message
	Message string
	// Hint is safe to surface to an end user (e.g. "Minimum purchase amount
	// of ₹500 required")
	Hint string
	// ReportableDetails are structured fields safe to return to API clients
	ReportableDetails map[string]interface{}
	// wrapped is the underlying cause, if any
	wrapped error
}

func (e *InternalError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.wrapped != nil {
		return e.wrapped.Error()
	}
	return "unknown error"
}

// Unwrap exposes the cause chain to errors.Is / errors.As.
func (e *InternalError) Unwrap() error {
	if e.wrapped != nil {
		return e.wrapped
	}
	return e.Code
}

// ErrorBuilder provides the fluent construction API used across the codebase:
//
//	ierr.NewError("coupon is not valid").
//	    WithHint("Coupon may be expired").
//	    WithReportableDetails(map[string]interface{}{"coupon_id": id}).
//	    Mark(ierr.ErrValidation)
type ErrorBuilder struct {
	err *InternalError
}

// NewError starts building an error with an internal message.
func NewError(message string) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{Message: message}}
}

// NewErrorf starts building an error with a formatted internal message.
func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{Message: errors.Newf(format, args...).Error()}}
}

// WithError starts building an error wrapping an underlying cause.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: &InternalError{wrapped: err}}
}

// WithHint attaches a user-presentable reason string.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err.Hint = hint
	return b
}

// WithHintf attaches a formatted user-presentable reason string.
func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.err.Hint = errors.Newf(format, args...).Error()
	return b
}

// WithReportableDetails attaches structured fields safe for API responses.
func (b *ErrorBuilder) WithReportableDetails(details map[string]interface{}) *ErrorBuilder {
	b.err.ReportableDetails = details
	return b
}

// WithMessage overrides the internal message on a wrapping builder.
func (b *ErrorBuilder) WithMessage(message string) *ErrorBuilder {
	b.err.Message = message
	return b
}

// Mark finalizes the error, tagging it with the given sentinel so that
// errors.Is(err, sentinel) holds.
func (b *ErrorBuilder) Mark(sentinel error) error {
	b.err.Code = sentinel
	return errors.Mark(b.err, sentinel)
}
