package store

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a requested record does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeEmptyCollection indicates the collection has no documents.
	ErrCodeEmptyCollection ErrorCode = "EMPTY_COLLECTION"

	// ErrCodeUnsupportedField indicates a column name cannot be queried.
	ErrCodeUnsupportedField ErrorCode = "UNSUPPORTED_FIELD"

	// ErrCodeInvalidPlan indicates an aggregation plan cannot be executed.
	ErrCodeInvalidPlan ErrorCode = "INVALID_PLAN"
)

// Error is a store failure the caller can act on.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Collection identifies the affected collection, when there is one.
	Collection string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("%s: %s (collection=%s)", e.Code, e.Message, e.Collection)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error is a missing record error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsEmptyCollection returns true if the error reports a collection
// without documents.
func IsEmptyCollection(err error) bool {
	return hasCode(err, ErrCodeEmptyCollection)
}

// IsUnsupportedField returns true if the error reports a column the store
// cannot address.
func IsUnsupportedField(err error) bool {
	return hasCode(err, ErrCodeUnsupportedField)
}

// IsInvalidPlan returns true if the error reports a rejected plan.
func IsInvalidPlan(err error) bool {
	return hasCode(err, ErrCodeInvalidPlan)
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
