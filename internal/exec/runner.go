package exec

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
)

// ExecRunner implements CommandRunner using os/exec.
//
// A started process is always waited for. The context is only consulted
// before the process starts: a canceled context means the tool is never
// invoked, never that a running tool is killed.
type ExecRunner struct {
	// Stream, if set, receives a copy of the tool's stderr as it is produced.
	Stream io.Writer
}

// NewRunner creates a new ExecRunner.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a program and returns its stdout.
func (r *ExecRunner) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd := exec.Command(name, args...)
	return r.wait(cmd, workDir, line)
}

// RunShell executes a command line through "sh -c".
func (r *ExecRunner) RunShell(ctx context.Context, workDir string, command string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd := exec.Command("sh", "-c", command)
	return r.wait(cmd, workDir, command)
}

func (r *ExecRunner) wait(cmd *exec.Cmd, workDir, line string) ([]byte, error) {
	if workDir != "" {
		cmd.Dir = workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if r.Stream != nil {
		cmd.Stderr = io.MultiWriter(&stderr, r.Stream)
	} else {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		toolErr := &ToolError{
			Command:  line,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			toolErr.ExitCode = exitErr.ExitCode()
		}
		return stdout.Bytes(), toolErr
	}
	return stdout.Bytes(), nil
}

// Verify ExecRunner implements CommandRunner at compile time.
var _ CommandRunner = (*ExecRunner)(nil)
