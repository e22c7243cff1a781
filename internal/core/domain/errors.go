// Package domain defines the core domain errors for zakopane.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
// Codes follow the format ZK-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "ZK-SUM-4000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithDetailsf is WithDetails with fmt.Sprintf formatting.
func (e *DomainError) WithDetailsf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Sum File Errors (SUM)
// ============================================================================

var (
	// ErrMalformedHeader indicates the metadata block is missing or broken.
	ErrMalformedHeader = NewDomainError("ZK-SUM-4000", "malformed sum file header")

	// ErrMalformedRecord indicates a body line is not "<path> <digest>".
	ErrMalformedRecord = NewDomainError("ZK-SUM-4001", "malformed sum file record")

	// ErrDuplicateHeaderKey indicates a header key appears twice.
	ErrDuplicateHeaderKey = NewDomainError("ZK-SUM-4002", "duplicate header key")

	// ErrMissingHeaderKey indicates a required header key is absent.
	ErrMissingHeaderKey = NewDomainError("ZK-SUM-4003", "missing required header key")

	// ErrDuplicatePath indicates a path repeats in the body (strict mode).
	ErrDuplicatePath = NewDomainError("ZK-SUM-4004", "path collision")

	// ErrPathNotFound indicates the path has no record in the snapshot.
	ErrPathNotFound = NewDomainError("ZK-SUM-4040", "path not found")
)

// ============================================================================
// Registry Errors (REG)
// ============================================================================

var (
	// ErrRegistryKeyNotFound indicates the root is not registered.
	ErrRegistryKeyNotFound = NewDomainError("ZK-REG-4040", "root not registered")

	// ErrRegistryKeyConflict indicates the root is already registered.
	ErrRegistryKeyConflict = NewDomainError("ZK-REG-4090", "root already registered")

	// ErrRegistryValueConflict indicates the identifier belongs to another root.
	ErrRegistryValueConflict = NewDomainError("ZK-REG-4091", "identifier already in use")

	// ErrTokenExhausted indicates freshly generated identifiers kept colliding.
	ErrTokenExhausted = NewDomainError("ZK-REG-5000", "could not allocate a unique identifier")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrStorage indicates a filesystem read or write failed.
	ErrStorage = NewDomainError("ZK-SYS-5001", "storage error")

	// ErrNotImplemented indicates the requested operation does not exist yet.
	ErrNotImplemented = NewDomainError("ZK-SYS-5010", "not implemented")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("ZK-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("ZK-ARG-1002", "missing required argument")
)
