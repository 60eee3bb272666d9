package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/nlq/internal/ingest"
	"github.com/roach88/nlq/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario failures
	ExitCommandError = 2 // Command error (bad flags, unreadable files, store errors, etc.)
)

// Error codes reported in CLIError.Code.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeUsage       = "E002" // Missing or conflicting flags
	ErrCodeConfig      = "E003" // Configuration failed to load
	ErrCodeStore       = "E004" // Database could not be opened or queried
	ErrCodeEmpty       = "E005" // Collection has no documents
	ErrCodeUnsupported = "E006" // Field name the store cannot address
	ErrCodeInvalidPlan = "E007" // Aggregation plan rejected
	ErrCodeIngest      = "E008" // Workbook could not be read
	ErrCodeTestFailed  = "E_TEST_FAILED"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// encode writes v as one JSON line. Column names such as "P&L Cost" are
// written as is.
func (f *OutputFormatter) encode(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Fail reports err in the configured format and returns the matching
// command error (exit code 2).
func (f *OutputFormatter) Fail(err error) error {
	code := errorCode(err)
	cause := err
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err != nil {
		cause = exitErr.Err
	}
	_ = f.Error(code, cause.Error(), nil)
	return WrapExitError(ExitCommandError, code, cause)
}

// errorCode maps typed errors from lower layers to CLI error codes.
func errorCode(err error) string {
	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr):
		return exitErr.Message
	case store.IsEmptyCollection(err):
		return ErrCodeEmpty
	case store.IsUnsupportedField(err):
		return ErrCodeUnsupported
	case store.IsInvalidPlan(err):
		return ErrCodeInvalidPlan
	case ingest.IsIngestError(err):
		return ErrCodeIngest
	}
	return ErrCodeGeneric
}

// usageError is a command error for missing or conflicting flags.
func usageError(message string) error {
	return &ExitError{Code: ExitCommandError, Message: ErrCodeUsage, Err: errors.New(message)}
}

// codedError tags err with a CLI error code.
func codedError(code string, err error) error {
	return &ExitError{Code: ExitCommandError, Message: code, Err: err}
}
