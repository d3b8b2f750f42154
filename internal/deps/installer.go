package deps

import (
	"context"
	"fmt"
	"sort"

	"github.com/ShayCichocki/bioconvert/internal/exec"
)

// Installer fetches a missing external tool on demand.
type Installer interface {
	Install(ctx context.Context, tool string) error
}

// GoTools maps tool names to the Go module that provides them.
var GoTools = map[string]string{
	"goalign": "github.com/evolbioinfo/goalign",
	"gotree":  "github.com/evolbioinfo/gotree",
}

// GoInstaller installs Go tools with "go install" when they are not on PATH.
type GoInstaller struct {
	Runner exec.CommandRunner
	Gate   *Gate
}

// NewGoInstaller creates an installer that runs through runner and refreshes
// gate after a successful install.
func NewGoInstaller(runner exec.CommandRunner, gate *Gate) *GoInstaller {
	return &GoInstaller{Runner: runner, Gate: gate}
}

// Install is a no-op when tool is already available.
func (i *GoInstaller) Install(ctx context.Context, tool string) error {
	req := Executable(tool)
	if i.Gate != nil && i.Gate.Available(req) {
		return nil
	}

	module, ok := GoTools[tool]
	if !ok {
		return fmt.Errorf("no installer for %q (known: %v)", tool, knownTools())
	}

	if i.Gate != nil {
		i.Gate.logf("[deps] installing %s from %s", tool, module)
	}
	if _, err := i.Runner.Run(ctx, "", "go", "install", module+"@latest"); err != nil {
		return fmt.Errorf("install %s: %w", tool, err)
	}

	if i.Gate != nil {
		i.Gate.Forget(req)
		if !i.Gate.Available(req) {
			return &MissingError{Requirement: req}
		}
	}
	return nil
}

// NoInstaller refuses every install; the method then fails on the missing tool.
type NoInstaller struct{}

func (NoInstaller) Install(_ context.Context, tool string) error {
	return &MissingError{Requirement: Executable(tool)}
}

func knownTools() []string {
	names := make([]string, 0, len(GoTools))
	for name := range GoTools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
