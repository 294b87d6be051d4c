package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/moveng/internal/graph"
	"github.com/roach88/moveng/internal/model"
	"github.com/roach88/moveng/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Dataset rejected (parse, schema, reference, duplicate id)
	ExitCommandError = 2 // Command error (bad flags, unreadable source, archive failure)
)

// CLI error codes for failures that carry no dataset code.
const (
	ErrCodeGeneric     = "E001" // unclassified command failure
	ErrCodeConfig      = "E002" // configuration could not be loaded
	ErrCodeNotFound    = "E003" // record, movement or archived snapshot not found
	ErrCodeWriteFailed = "E004" // output file or export directory not writable
	ErrCodeArchive     = "E005" // snapshot archive failure
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
// Returns ExitSuccess for nil and ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// classify maps an error to its response code and process exit code.
// Source failures are command errors even though they carry a dataset code.
func classify(err error) (code string, exit int) {
	switch {
	case model.IsSourceError(err):
		return model.ErrorCode(err), ExitCommandError
	case model.ErrorCode(err) != "":
		return model.ErrorCode(err), ExitFailure
	case errors.Is(err, graph.ErrUnknownNode), errors.Is(err, store.ErrNotFound):
		return ErrCodeNotFound, ExitCommandError
	}
	var dangling *graph.DanglingEdgeError
	if errors.As(err, &dangling) {
		return ErrCodeGeneric, ExitFailure
	}
	return ErrCodeGeneric, ExitCommandError
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
	Status      string    `json:"status"`                // "ok" or "error"
	Data        any       `json:"data,omitempty"`        // success payload
	Error       *CLIError `json:"error,omitempty"`       // error details
	Fingerprint string    `json:"fingerprint,omitempty"` // snapshot the payload was derived from
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E203", "E001", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// SuccessFor outputs a successful JSON result tagged with the fingerprint of
// the snapshot it was derived from. Text output is the caller's job.
func (f *OutputFormatter) SuccessFor(fingerprint string, data any) error {
	return f.encode(CLIResponse{Status: "ok", Data: data, Fingerprint: fingerprint})
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

// Fail reports err and returns the ExitError the command should return.
func (f *OutputFormatter) Fail(err error) error {
	code, exit := classify(err)
	_ = f.Error(code, strings.TrimPrefix(err.Error(), code+": "), nil)
	return WrapExitError(exit, code, err)
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
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
