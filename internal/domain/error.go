// Package domain holds the core business types shared by every layer:
// carts and their priced snapshots, orders, background jobs, and the
// application error model.
package domain

import (
	"errors"
	"fmt"
)

// Application error codes.
// These map to HTTP status codes and determine user-facing messages.
const (
	ECONFLICT     = "conflict"         // 409 - duplicate resource (order already materialized, etc.)
	EINTERNAL     = "internal"         // 500 - internal server error (hide details)
	EINVALID      = "invalid"          // 400 - validation error (bad input)
	ENOTFOUND     = "not_found"        // 404 - resource not found
	EUNAUTHORIZED = "unauthorized"     // 401 - authentication required
	EFORBIDDEN    = "forbidden"        // 403 - authenticated but not permitted
	EPAYMENT      = "payment_required" // 402 - payment gateway failure
	ERATELIMIT    = "rate_limit"       // 429 - too many requests
	ETOOLARGE     = "too_large"        // 413 - request body exceeds limits
)

// Error is an application error with a machine-readable code, a message
// that is safe to show to API clients, and an optional wrapped cause.
type Error struct {
	// Code is a machine-readable error code (e.g. EINVALID, EPAYMENT).
	Code string

	// Message is a human-readable message safe to return to clients.
	Message string

	// Op is the operation where the error occurred (e.g. "checkout.price").
	// Used for logging, never shown to clients.
	Op string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap supports errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the error code from an error.
// Returns EINTERNAL for non-domain errors.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return EINTERNAL
}

// ErrorMessage extracts a client-facing message from an error.
// Internal errors get a generic message so details never leak.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}

	return "An internal error occurred. Please try again later."
}

// ErrorOp extracts the operation from an error (for logging).
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}

	return ""
}

// Errorf creates a new domain error with a formatted message.
// Example: domain.Errorf(domain.EINVALID, "checkout.price", "unknown variant: %s", id)
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with a domain code and operation,
// preserving the cause for logging. Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// NotFound creates a not found error for a resource.
// Example: domain.NotFound("order.get", "order", paymentIntentID)
func NotFound(op, resource, identifier string) error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

// Invalid creates a validation error for a single issue.
func Invalid(op, message string) error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Conflict creates a conflict error.
func Conflict(op, message string) error {
	return &Error{
		Code:    ECONFLICT,
		Op:      op,
		Message: message,
	}
}

// PaymentFailed wraps a payment gateway error. The message shown to clients
// should describe the outcome, not the gateway internals.
func PaymentFailed(err error, op, message string) error {
	return &Error{
		Code:    EPAYMENT,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Internal creates an internal error wrapping the underlying cause.
// Clients see a generic message; the cause is for logging only.
func Internal(err error, op, message string) error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
