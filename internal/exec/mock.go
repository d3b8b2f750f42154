package exec

import (
	"context"
	"strings"
	"sync"
)

// MockCall records one invocation made through a MockRunner.
type MockCall struct {
	Method  string
	WorkDir string
	Command string
	Args    []string
}

// MockRunner is a CommandRunner that never starts a process.
type MockRunner struct {
	mu sync.Mutex

	Calls   []MockCall
	Outputs map[string][]byte
	Errors  map[string]error
	// OnRun, if set, runs for every call after it is recorded, so a test can
	// create the files a real tool would have written. A non-nil return is
	// the call's error.
	OnRun func(call MockCall) error
}

// NewMockRunner creates an empty MockRunner.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		Outputs: make(map[string][]byte),
		Errors:  make(map[string]error),
	}
}

func (m *MockRunner) Run(ctx context.Context, workDir string, name string, args ...string) ([]byte, error) {
	call := MockCall{
		Method:  "Run",
		WorkDir: workDir,
		Command: strings.Join(append([]string{name}, args...), " "),
		Args:    append([]string{name}, args...),
	}
	return m.record(ctx, call)
}

func (m *MockRunner) RunShell(ctx context.Context, workDir string, command string) ([]byte, error) {
	args, err := Split(command)
	if err != nil {
		args = strings.Fields(command)
	}
	call := MockCall{Method: "RunShell", WorkDir: workDir, Command: command, Args: args}
	return m.record(ctx, call)
}

func (m *MockRunner) record(ctx context.Context, call MockCall) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, call)
	out := m.Outputs[call.Command]
	err := m.Errors[call.Command]
	hook := m.OnRun
	m.mu.Unlock()

	if hook != nil {
		if hookErr := hook(call); hookErr != nil {
			return out, hookErr
		}
	}
	return out, err
}

// CallCount returns the number of recorded calls.
func (m *MockRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent call, or false if there was none.
func (m *MockRunner) LastCall() (MockCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return MockCall{}, false
	}
	return m.Calls[len(m.Calls)-1], true
}

var _ CommandRunner = (*MockRunner)(nil)
