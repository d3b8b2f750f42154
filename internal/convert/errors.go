package convert

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ShayCichocki/bioconvert/internal/deps"
	"github.com/ShayCichocki/bioconvert/internal/exec"
)

var (
	// ErrUnknownMethod matches every *UnknownMethodError.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrMissingDependency matches every *MissingDependencyError.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrExternalTool matches every *ExternalToolError.
	ErrExternalTool = exec.ErrExternalTool
	// ErrUnknownConversion is returned for conversion names or extension
	// pairs with no registered conversion.
	ErrUnknownConversion = errors.New("unknown conversion")
	// ErrOutfileExists is returned when the output exists and force is off.
	ErrOutfileExists = errors.New("output file already exists")
	// ErrInputMissing is returned when an input file does not exist.
	ErrInputMissing = errors.New("input file not found")
)

// ExternalToolError reports a non-zero exit or a failure of the wrapped
// library, with the exit code and captured diagnostics.
type ExternalToolError = exec.ToolError

// UnknownMethodError is returned when a method name is not registered for a
// conversion.
type UnknownMethodError struct {
	Spec   ConversionSpec
	Method string
	Known  []string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("%s: unknown method %q (available: %s)",
		e.Spec.Name(), e.Method, strings.Join(e.Known, ", "))
}

func (e *UnknownMethodError) Is(target error) bool { return target == ErrUnknownMethod }

// MissingDependencyError is returned when a method's requirement is absent.
type MissingDependencyError struct {
	Spec        ConversionSpec
	Method      string
	Requirement deps.Requirement
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s: method %q is disabled: missing %s",
		e.Spec.Name(), e.Method, e.Requirement)
}

func (e *MissingDependencyError) Is(target error) bool { return target == ErrMissingDependency }
