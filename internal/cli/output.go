package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/roach88/shopq/internal/shop"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected operation or failed scenarios (not found, duplicate, invalid input)
	ExitCommandError = 2 // Command error (bad arguments, config, database unreachable, etc.)
)

// Error codes for failures that do not come from the service.
const (
	ErrCodeArgs    = "ARGS"
	ErrCodeStore   = "STORE"
	ErrCodeCommand = "COMMAND"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// reported is set once the error has been written through a formatter.
	reported bool
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

// Reported reports whether the error was already written to the output.
func (e *ExitError) Reported() bool {
	return e.reported
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
	Code    string `json:"code"`              // NOT_FOUND, VALIDATION, ARGS, ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Table outputs data as the JSON envelope, or as a table of rows in text
// mode.
func (f *OutputFormatter) Table(data any, headers []string, rows [][]string) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	fmt.Fprintln(f.Writer, renderTable(headers, rows, isTerminal(f.Writer)))
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if fields, ok := details.(map[string]string); ok {
		for _, k := range sortedKeys(fields) {
			fmt.Fprintf(f.Writer, "  %s: %s\n", k, fields[k])
		}
	} else if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail writes err in the configured format and returns the ExitError the
// command should return. Service errors keep their code; rejected
// operations exit with ExitFailure and storage failures with
// ExitCommandError.
func (f *OutputFormatter) Fail(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.reported {
		return exitErr
	}

	var se *shop.Error
	if errors.As(err, &se) {
		var details any
		if len(se.Details) > 0 {
			details = se.Details
		}
		_ = f.Error(string(se.Code), se.Message, details)

		code := ExitFailure
		if se.Code == shop.CodeUnexpected {
			code = ExitCommandError
		}
		return &ExitError{Code: code, Message: string(se.Code), Err: err, reported: true}
	}

	if exitErr != nil {
		_ = f.Error(ErrCodeArgs, exitErr.Error(), nil)
		exitErr.reported = true
		return exitErr
	}

	_ = f.Error(ErrCodeCommand, err.Error(), nil)
	return &ExitError{Code: ExitCommandError, Message: "command failed", Err: err, reported: true}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
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

var (
	headerColor = lipgloss.Color("#A78BFA")
	borderColor = lipgloss.Color("#6C7086")
)

// renderTable lays rows out under a header rule. Colour is used only when
// writing to a terminal.
func renderTable(headers []string, rows [][]string, color bool) string {
	if len(rows) == 0 {
		return "(no results)"
	}

	headerStyle := lipgloss.NewStyle().PaddingRight(2)
	cellStyle := lipgloss.NewStyle().PaddingRight(2)
	borderStyle := lipgloss.NewStyle()
	if color {
		headerStyle = headerStyle.Bold(true).Foreground(headerColor)
		borderStyle = borderStyle.Foreground(borderColor)
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderRow(false).
		BorderHeader(true).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	return tbl.Render()
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
