package git

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the single typed failure raised by git invocations and by the
// parsers of their output. Fatal tells the top-level operation whether to
// abort or to log and continue.
type Error struct {
	// Op names the operation, e.g. "rev-parse" or "list tags".
	Op string
	// Message is the human-readable description.
	Message string
	// Command is the rendered command line, when a process was involved.
	Command string
	// Output is the combined stdout/stderr of the process.
	Output   string
	ExitCode int
	TimedOut bool
	Fatal    bool
	Err      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Command != "" {
		fmt.Fprintf(&sb, "\nCommand: '%s'", e.Command)
	}
	if e.TimedOut {
		sb.WriteString("\nTimed out")
	} else if e.Command != "" {
		fmt.Fprintf(&sb, "\nExit code: %d", e.ExitCode)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		fmt.Fprintf(&sb, "\nOutput: '%s'", out)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, "\n%v", e.Err)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err should abort the current operation.
// Errors that are not *Error are always fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var gitErr *Error
	if errors.As(err, &gitErr) {
		return gitErr.Fatal
	}
	return true
}

// IsTimeout reports whether err came from a killed, timed-out process.
func IsTimeout(err error) bool {
	var gitErr *Error
	return errors.As(err, &gitErr) && gitErr.TimedOut
}

// malformed builds the fatal error for unparseable tool output.
func malformed(op, format string, args ...any) *Error {
	return &Error{
		Op:      op,
		Message: fmt.Sprintf("%s: %s", op, fmt.Sprintf(format, args...)),
		Fatal:   true,
	}
}
