package ingest

import (
	"errors"
	"fmt"
)

// Error reports a workbook that cannot be ingested.
type Error struct {
	// Path is the workbook file.
	Path string

	// Sheet is the sheet being read, when one was selected.
	Sheet string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Sheet != "" {
		return fmt.Sprintf("ingest %s (sheet %q): %s", e.Path, e.Sheet, msg)
	}
	return fmt.Sprintf("ingest %s: %s", e.Path, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsIngestError returns true if err is or wraps an *Error.
func IsIngestError(err error) bool {
	var ie *Error
	return errors.As(err, &ie)
}
