package shop

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes operation failures.
type ErrorCode string

const (
	// CodeNotFound indicates a referenced entity does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeDuplicate indicates a uniqueness rule rejected the write.
	CodeDuplicate ErrorCode = "DUPLICATE"

	// CodeValidation indicates the input was rejected before touching storage.
	CodeValidation ErrorCode = "VALIDATION"

	// CodeUnexpected indicates a storage or internal failure.
	CodeUnexpected ErrorCode = "UNEXPECTED"
)

// Error is the error type returned by every Service operation.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Entity and ID identify the missing or conflicting row, when known.
	Entity string
	ID     int64

	// Details holds per-field validation messages.
	Details map[string]string

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Entity != "" && e.ID != 0 {
		return fmt.Sprintf("%s: %s (%s=%d)", e.Code, e.Message, e.Entity, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsNotFound returns true if err reports a missing entity.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsDuplicate returns true if err reports a uniqueness conflict.
func IsDuplicate(err error) bool { return hasCode(err, CodeDuplicate) }

// IsValidation returns true if err reports rejected input.
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsUnexpected returns true if err reports a storage or internal failure.
func IsUnexpected(err error) bool { return hasCode(err, CodeUnexpected) }

// NotFound creates a NOT_FOUND error for entity id.
func NotFound(entity string, id int64) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: entity + " not found",
		Entity:  entity,
		ID:      id,
	}
}

// Duplicate creates a DUPLICATE error.
func Duplicate(entity, message string, cause error) *Error {
	return &Error{Code: CodeDuplicate, Message: message, Entity: entity, cause: cause}
}

// Invalid creates a VALIDATION error.
func Invalid(message string, details map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Details: details}
}

// unexpected wraps a storage failure. opID ties the message to the log line.
func unexpected(op, opID string, cause error) *Error {
	return &Error{
		Code:    CodeUnexpected,
		Message: fmt.Sprintf("%s failed (op %s)", op, opID),
		cause:   cause,
	}
}
