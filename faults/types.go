package faults

import (
	"errors"
	"strings"
)

type ErrorCategory string

const (
	ValidationError ErrorCategory = "ValidationError"
	NotFoundError   ErrorCategory = "NotFoundError"
	ConflictError   ErrorCategory = "ConflictError"
	ReadError       ErrorCategory = "ReadError"
	CommandError    ErrorCategory = "CommandError"
	InternalError   ErrorCategory = "InternalError"
)

type TypedError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Category)
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewTypedError(category ErrorCategory, message string, cause error) *TypedError {
	return &TypedError{
		Category: category,
		Message:  message,
		Cause:    cause,
	}
}

func IsCategory(err error, category ErrorCategory) bool {
	if err == nil {
		return false
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return false
	}
	return typedErr.Category == category
}

// Category returns the category of the first TypedError in the chain, or "".
func Category(err error) ErrorCategory {
	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return ""
	}
	return typedErr.Category
}

// CommandFailure describes one failed external command invocation. It is the
// cause of CommandError typed errors.
type CommandFailure struct {
	ResourcePath string
	Args         []string
	Output       string
	Err          error
}

func (f *CommandFailure) Error() string {
	if f == nil {
		return "<nil>"
	}

	var builder strings.Builder
	builder.WriteString("command ")
	builder.WriteString(quoteArgs(f.Args))
	builder.WriteString(" failed")
	if f.Err != nil {
		builder.WriteString(": ")
		builder.WriteString(f.Err.Error())
	}
	if output := strings.TrimSpace(f.Output); output != "" {
		builder.WriteString(" (output: ")
		builder.WriteString(output)
		builder.WriteString(")")
	}
	return builder.String()
}

func (f *CommandFailure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

func NewCommandError(resourcePath string, args []string, output string, cause error) *TypedError {
	message := "command failed"
	if resourcePath != "" {
		message = "command failed for " + resourcePath
	}
	return NewTypedError(CommandError, message, &CommandFailure{
		ResourcePath: resourcePath,
		Args:         append([]string(nil), args...),
		Output:       output,
		Err:          cause,
	})
}

func quoteArgs(args []string) string {
	quoted := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			quoted = append(quoted, `"`+strings.ReplaceAll(arg, `"`, `\"`)+`"`)
			continue
		}
		quoted = append(quoted, arg)
	}
	return strings.Join(quoted, " ")
}
