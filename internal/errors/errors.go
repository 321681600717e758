package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured infrastructure error with a code,
// message, and optional cause. It supports error wrapping and unwrapping
// for use with errors.Is and errors.As. Domain outcomes use the dedicated
// types below instead.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// Fields maps a field name to its ordered list of messages. The map shape
// is the serialization contract with form-rendering clients.
type Fields map[string][]string

// ValidationError reports malformed input, field by field, before any
// side effect has run.
type ValidationError struct {
	Fields Fields
}

// Error implements the error interface.
func (e *ValidationError) Error() string { return "validation error" }

// Validation creates a ValidationError for a single field.
func Validation(field string, messages ...string) *ValidationError {
	return &ValidationError{Fields: Fields{field: messages}}
}

// Add appends a message to a field, creating the field when absent.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = Fields{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// AuthenticationError is the generic credential/permission/session
// failure. It deliberately does not distinguish a bad password from a bad
// OTP code or an unknown email, so callers cannot enumerate accounts.
type AuthenticationError struct {
	// ReturnTo is the route the user should land back on after logging in.
	ReturnTo string
	// Redirect selects redirect handling (loader-style reads) over an
	// inline error body (action-style writes).
	Redirect bool
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string { return "authentication error" }

// noReturnRoutes never round-trip through the login page.
var noReturnRoutes = map[string]struct{}{
	"/logout":     {},
	"/logout-all": {},
	"/me/delete":  {},
}

// AuthRedirect creates an AuthenticationError that redirects to the login
// page and returns to the given route afterwards.
func AuthRedirect(returnTo string) *AuthenticationError {
	if _, ok := noReturnRoutes[returnTo]; ok || returnTo == "" {
		returnTo = "/"
	}
	return &AuthenticationError{ReturnTo: returnTo, Redirect: true}
}

// AuthInline creates an AuthenticationError rendered as an inline form
// error rather than a redirect.
func AuthInline() *AuthenticationError {
	return &AuthenticationError{ReturnTo: "/", Redirect: false}
}

// ForbiddenError reports a CSRF or origin failure. It carries no detail
// beyond its kind.
type ForbiddenError struct{}

// Error implements the error interface.
func (e *ForbiddenError) Error() string { return "forbidden" }

// Forbidden creates a new ForbiddenError.
func Forbidden() *ForbiddenError { return &ForbiddenError{} }

// IsAuthentication checks if an error is an AuthenticationError.
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsValidation checks if an error is a ValidationError.
func IsValidation(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsForbidden checks if an error is a ForbiddenError.
func IsForbidden(err error) bool {
	var fErr *ForbiddenError
	return errors.As(err, &fErr)
}
