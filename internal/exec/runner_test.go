package exec

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestExecRunner_Run(t *testing.T) {
	r := NewRunner()
	out, err := r.Run(context.Background(), "", "echo", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "hello\n" {
		t.Fatalf("expected 'hello\\n', got %q", out)
	}
}

func TestExecRunner_RunShell_ExitCode(t *testing.T) {
	r := NewRunner()
	_, err := r.RunShell(context.Background(), "", "echo broken >&2; exit 3")
	if err == nil {
		t.Fatal("expected error from non-zero exit")
	}

	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *ToolError, got %T", err)
	}
	if toolErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", toolErr.ExitCode)
	}
	if toolErr.Stderr != "broken" {
		t.Errorf("Stderr = %q, want %q", toolErr.Stderr, "broken")
	}
	if !errors.Is(err, ErrExternalTool) {
		t.Error("expected errors.Is(err, ErrExternalTool)")
	}
}

func TestExecRunner_RunShell_WorkDir(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner()
	out, err := r.RunShell(context.Background(), dir, "pwd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(out, []byte(dir)) {
		t.Errorf("pwd = %q, want it to contain %q", out, dir)
	}
}

func TestExecRunner_Stream(t *testing.T) {
	var buf bytes.Buffer
	r := &ExecRunner{Stream: &buf}
	if _, err := r.RunShell(context.Background(), "", "echo progress >&2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "progress\n" {
		t.Errorf("streamed stderr = %q, want %q", buf.String(), "progress\n")
	}
}

func TestExecRunner_CanceledContextDoesNotStart(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner()
	_, err := r.RunShell(ctx, dir, "touch marker")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	out, _ := NewRunner().RunShell(context.Background(), dir, "ls")
	if len(out) != 0 {
		t.Errorf("command ran despite canceled context: %q", out)
	}
}

func TestExecRunner_MissingProgram(t *testing.T) {
	r := NewRunner()
	_, err := r.Run(context.Background(), "", "bioconvert-no-such-tool")
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *ToolError, got %T (%v)", err, err)
	}
	if toolErr.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", toolErr.ExitCode)
	}
}

func TestLibraryError(t *testing.T) {
	base := errors.New("bad header")
	err := LibraryError("seqio", base)
	if err.Tool != "seqio" || err.ExitCode != -1 {
		t.Errorf("LibraryError = %+v", err)
	}
	if !errors.Is(err, base) {
		t.Error("expected wrapped error to be reachable")
	}

	again := LibraryError("other", err)
	if again != err {
		t.Error("LibraryError should not re-wrap a ToolError")
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"plink", "--bfile", "toy"}, "plink --bfile toy"},
		{[]string{"in file.bb"}, `'in file.bb'`},
	}
	for _, tt := range tests {
		if got := Quote(tt.args...); got != tt.want {
			t.Errorf("Quote(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestMockRunner(t *testing.T) {
	m := NewMockRunner()
	m.Outputs["echo hello"] = []byte("hello\n")
	m.Errors["false"] = errors.New("boom")

	out, err := m.RunShell(context.Background(), "", "echo hello")
	if err != nil || string(out) != "hello\n" {
		t.Fatalf("RunShell = %q, %v", out, err)
	}
	if _, err := m.Run(context.Background(), "", "false"); err == nil {
		t.Fatal("expected configured error")
	}
	if m.CallCount() != 2 {
		t.Fatalf("CallCount = %d, want 2", m.CallCount())
	}
	last, ok := m.LastCall()
	if !ok || last.Method != "Run" {
		t.Errorf("LastCall = %+v", last)
	}
}

func TestMockRunner_SplitsShellArgs(t *testing.T) {
	m := NewMockRunner()
	if _, err := m.RunShell(context.Background(), "", "wiggletools '/tmp/a b.bb' > out.wig"); err != nil {
		t.Fatal(err)
	}
	call, _ := m.LastCall()
	if len(call.Args) < 2 || call.Args[1] != "/tmp/a b.bb" {
		t.Errorf("Args = %q", call.Args)
	}
}
