package exec

import (
	"errors"
	"fmt"
)

// ErrExternalTool matches every *ToolError with errors.Is.
var ErrExternalTool = errors.New("external tool failed")

// ToolError reports a failed external tool or in-process library call.
// ExitCode is -1 when no exit status exists (the process could not start,
// or the failure came from a library rather than a process).
type ToolError struct {
	Tool     string
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	name := e.Tool
	if name == "" {
		name = e.Command
	}
	msg := fmt.Sprintf("%s failed", name)
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s exited with status %d", name, e.ExitCode)
	} else if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrExternalTool) match any ToolError.
func (e *ToolError) Is(target error) bool { return target == ErrExternalTool }

// LibraryError wraps a failure raised by an in-process library call so callers
// see the same error type as for an external process.
func LibraryError(library string, err error) *ToolError {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	return &ToolError{Tool: library, ExitCode: -1, Err: err}
}
