package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/roach88/ledgerd/internal/config"
	"github.com/roach88/ledgerd/internal/model"
)

// Process exit codes. A rejected or failed ledger request exits with
// ExitFailure; bad flags, configuration or storage exit with
// ExitCommandError.
const (
	ExitFailure      = 1
	ExitCommandError = 2
)

// ExitError carries the exit code a command ends with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code; errors without one exit
// with ExitFailure.
func GetExitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as plain text or as a JSON
// envelope.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// CLIResponse is the JSON envelope. Status is "ok" or "error".
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError.Code is a numeric ledger error code, or one of "validation",
// "config" and "error".
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (f *OutputFormatter) json() bool { return f.Format == "json" }

// Success writes data, or text when the format is text.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.json() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Error writes a failure. Text output shows details only with --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.json() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if f.Verbose && details != nil {
		_, err := fmt.Fprintf(f.Writer, "Details: %v\n", details)
		return err
	}
	return nil
}

func errorCode(err error) string {
	if code := model.CodeOf(err); code != model.CodeInternal {
		return strconv.Itoa(int(code))
	}
	if model.IsValidation(err) {
		return "validation"
	}
	var ce *config.Error
	if errors.As(err, &ce) {
		return "config"
	}
	return "error"
}

// Fail writes err and returns the matching ExitError.
func (f *OutputFormatter) Fail(message string, err error) error {
	code := errorCode(err)
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	switch code {
	case "error", "config":
		return WrapExitError(ExitCommandError, message, err)
	default:
		return WrapExitError(ExitFailure, message, err)
	}
}
