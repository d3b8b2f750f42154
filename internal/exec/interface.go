// Package exec provides the command runner used by conversion methods.
package exec

import (
	"context"
)

// CommandRunner defines the interface for running external conversion tools.
// This abstraction allows mocking the process boundary in tests.
type CommandRunner interface {
	// Run executes a program with an argument vector and returns its stdout.
	// The working directory is set to workDir if non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// RunShell executes a command line through "sh -c".
	// Conversion templates need it for redirections and pipes.
	RunShell(ctx context.Context, workDir string, command string) (output []byte, err error)
}
