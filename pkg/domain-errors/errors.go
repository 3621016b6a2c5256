// Package domainerrors provides coded errors for domain and validation
// failures. Infrastructure facts (not found, expired) live in
// pkg/platform/sentinel; this package is for errors that carry meaning for
// API consumers.
package domainerrors

import "errors"

// Code classifies a domain error for transport-level translation.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	// CodeRejected marks an upstream collaborator refusing an otherwise
	// well-formed request (OTP rejected, order not accepted, eSign failed).
	CodeRejected    Code = "rejected"
	CodeInternal    Code = "internal_error"
	CodeUnavailable Code = "unavailable"
)

// Error is a coded domain error. The message is safe to surface to clients
// except for CodeInternal, where transports must omit it.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// New builds a coded domain error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors so nothing leaks by accident.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
