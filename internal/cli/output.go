package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	ExitSuccess = 0
	// ExitFailure means the command ran and its check failed: an invalid
	// level, a failing scenario, a replay mismatch.
	ExitFailure = 1
	// ExitCommandError means the command could not run: bad arguments,
	// unreadable files, database errors.
	ExitCommandError = 2
)

// ExitError is returned from RunE to choose the process exit code.
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

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError around err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that carry no
// ExitError are treated as ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	default:
		return ExitFailure
	}
}

// Error codes carried in CLIError.Code.
const (
	ErrCodeLoad        = "E001" // level file unreadable or malformed
	ErrCodeInvalid     = "E002" // definition rejected by validation
	ErrCodeEncode      = "E003" // result holds values JSON cannot carry, such as +Inf
	ErrCodeTestFailed  = "E_TEST_FAILED"
	ErrCodeDeterminism = "E_DETERMINISM"
)

// CLIResponse is the envelope every command writes in json format.
// On failure Data may still hold a partial result.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failure inside a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter renders command results to stdout in the selected format.
// Logs never go through it.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
}

// JSON reports whether results are written as a CLIResponse.
func (f *OutputFormatter) JSON() bool { return f.Format == "json" }

// Success writes data. Text mode prints it with its default formatting,
// so commands with a text layout render it themselves.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return f.writeResponse(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes a failure with no result attached.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return writeJSON(f.Writer, CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Failure reports a check that ran but failed. In json mode it writes the
// partial result under an error envelope. Text output is left to the
// caller. The returned error carries ExitFailure.
func (f *OutputFormatter) Failure(code, message string, data any) error {
	if f.JSON() {
		err := f.writeResponse(CLIResponse{
			Status: "error",
			Data:   data,
			Error:  &CLIError{Code: code, Message: message},
		})
		if err != nil {
			return err
		}
	}
	return NewExitError(ExitFailure, message)
}

// writeResponse writes resp, or an ErrCodeEncode envelope when its data
// cannot be encoded. Nothing partial reaches the writer.
func (f *OutputFormatter) writeResponse(resp CLIResponse) error {
	err := writeJSON(f.Writer, resp)
	var unsupported *json.UnsupportedValueError
	if !errors.As(err, &unsupported) {
		return err
	}
	if werr := f.Error(ErrCodeEncode, "result cannot be encoded as JSON", unsupported.Str); werr != nil {
		return werr
	}
	return WrapExitError(ExitCommandError, "failed to encode result", err)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
