package convert

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/ShayCichocki/bioconvert/internal/deps"
	"github.com/ShayCichocki/bioconvert/internal/exec"
	"github.com/ShayCichocki/bioconvert/internal/scratch"
)

var quiet = log.New(io.Discard, "", 0)

// fakeGate builds a gate whose PATH contains exactly the given programs.
func fakeGate(onPath ...string) *deps.Gate {
	present := make(map[string]bool, len(onPath))
	for _, p := range onPath {
		present[p] = true
	}
	g := deps.NewGate()
	g.Log = quiet
	g.LookPath = func(file string) (string, error) {
		if present[file] {
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("not found")
	}
	return g
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// toolConversion is a BIGBED -> WIGGLE conversion whose only method shells out
// to "wiggletools" through a scratch symlink.
func toolConversion() *Conversion {
	return &Conversion{
		Spec: Spec(BIGBED, WIGGLE),
		Methods: []*Method{{
			Name:     "wiggletools",
			Requires: []deps.Requirement{deps.Executable("wiggletools")},
			Run: func(ctx context.Context, job *Job) error {
				link, err := job.Scratch.Symlink(job.Infile, ".bb")
				if err != nil {
					return err
				}
				defer link.Release()
				return job.Shell(ctx, exec.Quote("wiggletools", link.Path())+" > "+exec.Quote(job.Outfile))
			},
		}},
	}
}

func TestConverter_UnknownMethod(t *testing.T) {
	dir := t.TempDir()
	scratchDir := t.TempDir()
	runner := exec.NewMockRunner()

	c := New(toolConversion(), filepath.Join(dir, "missing.bb"), filepath.Join(dir, "out.wig"),
		WithRunner(runner), WithGate(fakeGate("wiggletools")),
		WithScratch(scratch.NewSpace(scratchDir, quiet)), WithLogger(quiet))

	err := c.Run(context.Background(), "ucsc")
	if !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
	var unknown *UnknownMethodError
	if !errors.As(err, &unknown) || unknown.Method != "ucsc" {
		t.Fatalf("expected *UnknownMethodError for ucsc, got %#v", err)
	}
	if !strings.Contains(err.Error(), "wiggletools") {
		t.Errorf("error should list available methods: %v", err)
	}
	if c.State() != StateFailed {
		t.Errorf("state = %s, want failed", c.State())
	}
	if runner.CallCount() != 0 {
		t.Errorf("runner called %d times", runner.CallCount())
	}
	if got := listDir(t, scratchDir); len(got) != 0 {
		t.Errorf("scratch not empty: %v", got)
	}
}

func TestConverter_MissingDependencyNeverInvokes(t *testing.T) {
	dir := t.TempDir()
	runner := exec.NewMockRunner()

	// The input does not exist either; the dependency error must come first.
	c := New(toolConversion(), filepath.Join(dir, "in.bb"), filepath.Join(dir, "out.wig"),
		WithRunner(runner), WithGate(fakeGate()), WithLogger(quiet))

	err := c.Run(context.Background(), "")
	if !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
	var missing *MissingDependencyError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingDependencyError, got %T", err)
	}
	if missing.Requirement != deps.Executable("wiggletools") || missing.Method != "wiggletools" {
		t.Errorf("unexpected error fields: %+v", missing)
	}
	if runner.CallCount() != 0 {
		t.Errorf("runner called %d times", runner.CallCount())
	}
	if _, err := os.Stat(filepath.Join(dir, "out.wig")); !os.IsNotExist(err) {
		t.Errorf("outfile should not exist: %v", err)
	}
}

func TestConverter_ToolFailureReleasesScratch(t *testing.T) {
	dir := t.TempDir()
	scratchDir := t.TempDir()
	in := filepath.Join(dir, "in.bigbed")
	writeFile(t, in, "bigbed")

	runner := exec.NewMockRunner()
	var linkSeen string
	runner.OnRun = func(call exec.MockCall) error {
		linkSeen = call.Args[1]
		if _, err := os.Lstat(linkSeen); err != nil {
			t.Errorf("symlink missing while tool runs: %v", err)
		}
		return &exec.ToolError{Tool: "wiggletools", Command: call.Command, ExitCode: 1, Stderr: "bad header"}
	}

	c := New(toolConversion(), in, filepath.Join(dir, "out.wig"),
		WithRunner(runner), WithGate(fakeGate("wiggletools")),
		WithScratch(scratch.NewSpace(scratchDir, quiet)), WithLogger(quiet))

	err := c.Run(context.Background(), "wiggletools")
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) || toolErr.ExitCode != 1 || toolErr.Stderr != "bad header" {
		t.Fatalf("unexpected tool error: %#v", err)
	}
	if !strings.HasSuffix(linkSeen, ".bb") {
		t.Errorf("symlink %q should end in .bb", linkSeen)
	}
	if _, err := os.Lstat(linkSeen); !os.IsNotExist(err) {
		t.Errorf("symlink should be removed after failure: %v", err)
	}
	if got := listDir(t, scratchDir); len(got) != 0 {
		t.Errorf("scratch not empty: %v", got)
	}
	if c.State() != StateFailed {
		t.Errorf("state = %s, want failed", c.State())
	}
	if _, err := os.Stat(in); err != nil {
		t.Errorf("input must be left in place: %v", err)
	}
}

func TestConverter_SuccessLeavesScratchUnchanged(t *testing.T) {
	dir := t.TempDir()
	scratchDir := t.TempDir()
	writeFile(t, filepath.Join(scratchDir, "keep.txt"), "unrelated")
	in := filepath.Join(dir, "in.bb")
	out := filepath.Join(dir, "out.wig")
	writeFile(t, in, "bigbed")

	runner := exec.NewMockRunner()
	runner.OnRun = func(call exec.MockCall) error {
		return os.WriteFile(out, []byte("fixedStep\n"), 0o644)
	}

	var results []Result
	c := New(toolConversion(), in, out,
		WithRunner(runner), WithGate(fakeGate("wiggletools")),
		WithScratch(scratch.NewSpace(scratchDir, quiet)), WithLogger(quiet),
		WithRecorder(RecorderFunc(func(r Result) { results = append(results, r) })))

	if err := c.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.State() != StateDone {
		t.Errorf("state = %s, want done", c.State())
	}
	if got := listDir(t, scratchDir); len(got) != 1 || got[0] != "keep.txt" {
		t.Errorf("scratch changed: %v", got)
	}
	call, _ := runner.LastCall()
	if call.Method != "RunShell" || !strings.Contains(call.Command, "> "+out) {
		t.Errorf("unexpected command %q", call.Command)
	}
	if len(results) != 1 || results[0].Err != nil || results[0].Method != "wiggletools" {
		t.Errorf("unexpected recorded results: %+v", results)
	}
}

func TestConverter_CanceledContextDoesNotStart(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bb")
	writeFile(t, in, "bigbed")
	runner := exec.NewMockRunner()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(toolConversion(), in, filepath.Join(dir, "out.wig"),
		WithRunner(runner), WithGate(fakeGate("wiggletools")), WithLogger(quiet))
	err := c.Run(ctx, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if runner.CallCount() != 0 {
		t.Errorf("runner called %d times", runner.CallCount())
	}
}

func TestConverter_RefusesExistingOutfile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.bb")
	out := filepath.Join(dir, "out.wig")
	writeFile(t, in, "bigbed")
	writeFile(t, out, "old")

	runner := exec.NewMockRunner()
	c := New(toolConversion(), in, out,
		WithRunner(runner), WithGate(fakeGate("wiggletools")), WithLogger(quiet))
	if err := c.Run(context.Background(), ""); !errors.Is(err, ErrOutfileExists) {
		t.Fatalf("expected ErrOutfileExists, got %v", err)
	}

	c = New(toolConversion(), in, out, WithForce(true),
		WithRunner(runner), WithGate(fakeGate("wiggletools")), WithLogger(quiet))
	if err := c.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run with force: %v", err)
	}
	if runner.CallCount() != 1 {
		t.Errorf("runner called %d times, want 1", runner.CallCount())
	}
}

func TestConverter_InputMissing(t *testing.T) {
	dir := t.TempDir()
	c := New(toolConversion(), filepath.Join(dir, "nope.bb"), filepath.Join(dir, "out.wig"),
		WithRunner(exec.NewMockRunner()), WithGate(fakeGate("wiggletools")), WithLogger(quiet))
	if err := c.Run(context.Background(), ""); !errors.Is(err, ErrInputMissing) {
		t.Fatalf("expected ErrInputMissing, got %v", err)
	}
}

func TestConverter_LibraryErrorsBecomeToolErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.phy")
	writeFile(t, in, "x")

	conv := &Conversion{
		Spec: Spec(PHYLIP, NEXUS),
		Methods: []*Method{{
			Name: "seqio",
			Run: func(ctx context.Context, job *Job) error {
				return errors.New("parse error at line 1")
			},
		}},
	}
	err := New(conv, in, filepath.Join(dir, "out.nex"), WithLogger(quiet), WithGate(fakeGate())).
		Run(context.Background(), "")
	var toolErr *ExternalToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *ExternalToolError, got %T %v", err, err)
	}
	if toolErr.ExitCode != -1 || toolErr.Tool != "seqio" {
		t.Errorf("unexpected tool error: %+v", toolErr)
	}
}

// halfWriter writes a fragment of the outfile and then fails, as a tool
// interrupted mid-write would.
func halfWriter() *Conversion {
	return &Conversion{
		Spec: Spec(PHYLIP, NEXUS),
		Methods: []*Method{{
			Name: "seqio",
			Run: func(ctx context.Context, job *Job) error {
				if err := os.WriteFile(job.Outfile, []byte("#NEXUS\n"), 0o644); err != nil {
					return err
				}
				return errors.New("read phylip: expected 3 sequences, found 1 lines")
			},
		}},
	}
}

func TestConverter_FailureRemovesCreatedOutfile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.phy")
	out := filepath.Join(dir, "bad.nexus")
	writeFile(t, in, "3 12\nalpha ACGT\n")

	err := New(halfWriter(), in, out, WithLogger(quiet), WithGate(fakeGate())).
		Run(context.Background(), "")
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("partial outfile left behind: stat err = %v", statErr)
	}

	// A second run must not be refused because of the first failure.
	err = New(halfWriter(), in, out, WithLogger(quiet), WithGate(fakeGate())).
		Run(context.Background(), "")
	if errors.Is(err, ErrOutfileExists) {
		t.Fatalf("rerun refused: %v", err)
	}
}

func TestConverter_FailureKeepsPreexistingOutfile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.phy")
	out := filepath.Join(dir, "out.nexus")
	writeFile(t, in, "x")
	writeFile(t, out, "old")

	conv := &Conversion{
		Spec: Spec(PHYLIP, NEXUS),
		Methods: []*Method{{
			Name: "seqio",
			Run: func(ctx context.Context, job *Job) error {
				return errors.New("boom")
			},
		}},
	}
	err := New(conv, in, out, WithForce(true), WithLogger(quiet), WithGate(fakeGate())).
		Run(context.Background(), "")
	if err == nil {
		t.Fatal("expected error")
	}
	data, readErr := os.ReadFile(out)
	if readErr != nil || string(data) != "old" {
		t.Errorf("preexisting outfile changed: %q, %v", data, readErr)
	}
}

func TestConverter_InputGroupAndDerivedOutfile(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "toy")
	for _, s := range []string{".bed", ".bim", ".fam"} {
		writeFile(t, prefix+s, "x")
	}

	var gotIn, gotOut string
	conv := &Conversion{
		Spec:        Spec(BPLINK, PLINK),
		InputGroup:  []string{".bed", ".bim", ".fam"},
		OutputGroup: []string{".ped", ".map"},
		DeriveOutfile: func(infile string) string {
			return infile + "_plink"
		},
		Methods: []*Method{{
			Name: "plink",
			Run: func(ctx context.Context, job *Job) error {
				gotIn, gotOut = job.Infile, job.Outfile
				return nil
			},
		}},
	}

	c := New(conv, prefix+".bim", "", WithLogger(quiet), WithGate(fakeGate()))
	if err := c.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotIn != prefix || gotOut != prefix+"_plink" {
		t.Errorf("method saw in=%q out=%q", gotIn, gotOut)
	}
	if c.Outfile() != prefix+"_plink" {
		t.Errorf("Outfile() = %q", c.Outfile())
	}

	os.Remove(prefix + ".fam")
	c = New(conv, prefix, "", WithLogger(quiet), WithGate(fakeGate()))
	if err := c.Run(context.Background(), ""); !errors.Is(err, ErrInputMissing) {
		t.Fatalf("expected ErrInputMissing for missing .fam, got %v", err)
	}
}

type recordingInstaller struct {
	tools []string
	err   error
}

func (r *recordingInstaller) Install(_ context.Context, tool string) error {
	r.tools = append(r.tools, tool)
	return r.err
}

func TestConverter_InstallerHook(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.phy")
	writeFile(t, in, "x")

	conv := &Conversion{
		Spec: Spec(PHYLIP, NEXUS),
		Methods: []*Method{{
			Name:     "goalign",
			Requires: []deps.Requirement{deps.Executable("go")},
			Installs: "goalign",
			Run:      func(ctx context.Context, job *Job) error { return nil },
		}},
	}

	inst := &recordingInstaller{}
	err := New(conv, in, filepath.Join(dir, "out.nex"),
		WithLogger(quiet), WithGate(fakeGate("go")), WithInstaller(inst)).Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(inst.tools) != 1 || inst.tools[0] != "goalign" {
		t.Errorf("installer calls = %v", inst.tools)
	}

	// The installed tool is already present: no install.
	inst = &recordingInstaller{}
	err = New(conv, in, filepath.Join(dir, "out2.nex"),
		WithLogger(quiet), WithGate(fakeGate("go", "goalign")), WithInstaller(inst)).Run(context.Background(), "")
	if err != nil || len(inst.tools) != 0 {
		t.Errorf("unexpected install: err=%v calls=%v", err, inst.tools)
	}

	err = New(conv, in, filepath.Join(dir, "out3.nex"),
		WithLogger(quiet), WithGate(fakeGate("go"))).Run(context.Background(), "")
	if !errors.Is(err, ErrMissingDependency) {
		t.Errorf("expected ErrMissingDependency without an installer, got %v", err)
	}
}

func TestConverter_OptionsReachMethod(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.phy")
	writeFile(t, in, "x")

	var threads int
	conv := &Conversion{
		Spec:    Spec(PHYLIP, NEXUS),
		Options: []OptionSpec{{Name: "threads", Kind: OptionInt, Default: 1}},
		Methods: []*Method{{
			Name: "m",
			Run: func(ctx context.Context, job *Job) error {
				threads = job.Options.Int("threads")
				return nil
			},
		}},
	}
	err := New(conv, in, filepath.Join(dir, "out.nex"), WithLogger(quiet),
		WithOptions(map[string]any{"threads": "4"})).Run(context.Background(), "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if threads != 4 {
		t.Errorf("threads = %d, want 4", threads)
	}

	err = New(conv, in, filepath.Join(dir, "out2.nex"), WithLogger(quiet),
		WithOptions(map[string]any{"speed": 9})).Run(context.Background(), "")
	if err == nil || !strings.Contains(err.Error(), "speed") {
		t.Errorf("expected unknown option error, got %v", err)
	}
}

func TestConverter_CompressorWrapsMethod(t *testing.T) {
	dir := t.TempDir()
	scratchDir := t.TempDir()
	in := filepath.Join(dir, "in.phy.gz")
	writeFile(t, in, "not gzip")

	called := false
	conv := &Conversion{
		Spec: Spec(PHYLIP, NEXUS),
		Methods: []*Method{{
			Name:       "seqio",
			Compressor: true,
			Run: func(ctx context.Context, job *Job) error {
				called = true
				return nil
			},
		}},
	}
	err := New(conv, in, filepath.Join(dir, "out.nex"), WithLogger(quiet),
		WithScratch(scratch.NewSpace(scratchDir, quiet))).Run(context.Background(), "")
	if err == nil {
		t.Fatal("expected an error decompressing a corrupt input")
	}
	if called {
		t.Error("method should not run when decompression fails")
	}
	if got := listDir(t, scratchDir); len(got) != 0 {
		t.Errorf("scratch not empty: %v", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateCreated, "created"},
		{StateMethodSelected, "method_selected"},
		{StateDependencyChecked, "dependency_checked"},
		{StateExecuting, "executing"},
		{StateDone, "done"},
		{StateFailed, "failed"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.state), got, tt.want)
		}
	}
}
