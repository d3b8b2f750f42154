package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ShayCichocki/bioconvert/internal/compress"
	"github.com/ShayCichocki/bioconvert/internal/deps"
	"github.com/ShayCichocki/bioconvert/internal/exec"
	"github.com/ShayCichocki/bioconvert/internal/scratch"
)

// State is the lifecycle position of one conversion call.
type State int

const (
	StateCreated State = iota
	StateMethodSelected
	StateDependencyChecked
	StateExecuting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateMethodSelected:
		return "method_selected"
	case StateDependencyChecked:
		return "dependency_checked"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result describes a finished conversion call.
type Result struct {
	Spec     ConversionSpec
	Method   string
	Infile   string
	Outfile  string
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Recorder receives a Result after every call that reached method selection.
type Recorder interface {
	Record(Result)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(Result)

func (f RecorderFunc) Record(r Result) { f(r) }

// Converter runs one conversion request. It owns the paths and per-call
// options; the input file is never modified or removed.
type Converter struct {
	conv      *Conversion
	infile    string
	outfile   string
	options   map[string]any
	force     bool
	runner    exec.CommandRunner
	gate      *deps.Gate
	installer deps.Installer
	space     *scratch.Space
	log       *log.Logger
	recorder  Recorder

	state State
}

// Option configures a Converter.
type Option func(*Converter)

// WithRunner sets the command runner used by external-tool methods.
func WithRunner(r exec.CommandRunner) Option { return func(c *Converter) { c.runner = r } }

// WithGate sets the dependency gate.
func WithGate(g *deps.Gate) Option { return func(c *Converter) { c.gate = g } }

// WithInstaller sets the hook used for methods that install their tool.
func WithInstaller(i deps.Installer) Option { return func(c *Converter) { c.installer = i } }

// WithScratch sets where scratch files and symlinks are created.
func WithScratch(s *scratch.Space) Option { return func(c *Converter) { c.space = s } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(c *Converter) { c.log = l } }

// WithOptions sets extra conversion parameters such as threads.
func WithOptions(opts map[string]any) Option { return func(c *Converter) { c.options = opts } }

// WithForce allows overwriting an existing outfile.
func WithForce(force bool) Option { return func(c *Converter) { c.force = force } }

// WithRecorder sets a hook notified of every finished call.
func WithRecorder(r Recorder) Option { return func(c *Converter) { c.recorder = r } }

// New creates a Converter. No I/O happens until Run.
func New(conv *Conversion, infile, outfile string, opts ...Option) *Converter {
	c := &Converter{
		conv:    conv,
		infile:  infile,
		outfile: outfile,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = log.Default()
	}
	if c.runner == nil {
		c.runner = exec.NewRunner()
	}
	if c.gate == nil {
		c.gate = deps.Default()
	}
	if c.installer == nil {
		c.installer = deps.NoInstaller{}
	}
	if c.space == nil {
		c.space = scratch.NewSpace("", c.log)
	}
	return c
}

// Conversion returns the conversion this converter runs.
func (c *Converter) Conversion() *Conversion { return c.conv }

// Infile returns the input path as given.
func (c *Converter) Infile() string { return c.infile }

// Outfile returns the output path, derived from the input if it was omitted
// and Run has validated paths.
func (c *Converter) Outfile() string { return c.outfile }

// State returns the current lifecycle state.
func (c *Converter) State() State { return c.state }

func (c *Converter) transition(s State) {
	c.log.Printf("[convert] %s: %s -> %s", c.conv.Spec.Name(), c.state, s)
	c.state = s
}

// Run executes the named method, or the default when method is empty.
//
// The method is resolved and its dependencies checked before any file
// system access; a canceled ctx stops the call before the method starts.
// The first error is returned unchanged after scratch cleanup.
func (c *Converter) Run(ctx context.Context, method string) (err error) {
	started := time.Now()

	m, err := ResolveMethod(c.conv, method)
	if err != nil {
		c.transition(StateFailed)
		return err
	}
	c.transition(StateMethodSelected)

	defer func() {
		if err != nil {
			c.log.Printf("[convert] %s/%s failed: %v", c.conv.Spec.Name(), m.Name, err)
			c.transition(StateFailed)
		} else {
			c.transition(StateDone)
		}
		if c.recorder != nil {
			c.recorder.Record(Result{
				Spec:     c.conv.Spec,
				Method:   m.Name,
				Infile:   c.infile,
				Outfile:  c.outfile,
				Err:      err,
				Started:  started,
				Duration: time.Since(started),
			})
		}
	}()

	if err := c.checkDependencies(ctx, m); err != nil {
		return err
	}
	c.transition(StateDependencyChecked)

	options, err := c.conv.ResolveOptions(c.options)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	infile, outfile, err := c.preparePaths()
	if err != nil {
		return err
	}

	c.transition(StateExecuting)
	body := func(ctx context.Context, in, out string) error {
		job := &Job{
			Conversion: c.conv,
			Method:     m,
			Infile:     in,
			Outfile:    out,
			Options:    options,
			Runner:     c.runner,
			Scratch:    c.space,
			Log:        c.log,
		}
		return asToolError(m, m.Run(ctx, job))
	}
	if m.Compressor {
		body = compress.NewAdapter(c.space, c.log).Wrap(body)
	}

	created := c.absentTargets(outfile)
	if err := body(ctx, infile, outfile); err != nil {
		return scratch.Join(err, c.removePartial(created))
	}
	return nil
}

func (c *Converter) checkDependencies(ctx context.Context, m *Method) error {
	if err := c.gate.Check(m.Requires...); err != nil {
		var missing *deps.MissingError
		if errors.As(err, &missing) {
			return &MissingDependencyError{Spec: c.conv.Spec, Method: m.Name, Requirement: missing.Requirement}
		}
		return err
	}
	if m.Installs == "" || c.gate.Available(deps.Executable(m.Installs)) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.installer.Install(ctx, m.Installs); err != nil {
		var missing *deps.MissingError
		if errors.As(err, &missing) {
			return &MissingDependencyError{Spec: c.conv.Spec, Method: m.Name, Requirement: missing.Requirement}
		}
		return fmt.Errorf("%s/%s: %w", c.conv.Spec.Name(), m.Name, err)
	}
	return nil
}

// preparePaths validates the input, derives a missing outfile and refuses
// to overwrite an existing output unless force is set. For prefix-based
// conversions it returns the common prefixes.
func (c *Converter) preparePaths() (string, string, error) {
	infile := c.infile
	if len(c.conv.InputGroup) > 0 {
		infile = TrimGroupSuffix(infile, c.conv.InputGroup)
		for _, suffix := range c.conv.InputGroup {
			if err := requireFile(infile + suffix); err != nil {
				return "", "", err
			}
		}
	} else if err := requireFile(infile); err != nil {
		return "", "", err
	}

	outfile := c.outfile
	if outfile == "" {
		outfile = c.conv.OutfileFor(infile)
		c.outfile = outfile
	}
	if len(c.conv.OutputGroup) > 0 {
		outfile = TrimGroupSuffix(outfile, c.conv.OutputGroup)
	}

	if sameFile(infile, outfile) && len(c.conv.InputGroup) == 0 {
		return "", "", fmt.Errorf("%s: input and output are the same file %s", c.conv.Spec.Name(), infile)
	}

	if !c.force {
		for _, t := range c.outputTargets(outfile) {
			if _, err := os.Stat(t); err == nil {
				return "", "", fmt.Errorf("%w: %s (use force to overwrite)", ErrOutfileExists, t)
			}
		}
	}
	return infile, outfile, nil
}

// outputTargets lists the files a method writes for outfile.
func (c *Converter) outputTargets(outfile string) []string {
	if len(c.conv.OutputGroup) == 0 {
		return []string{outfile}
	}
	targets := make([]string, 0, len(c.conv.OutputGroup))
	for _, suffix := range c.conv.OutputGroup {
		targets = append(targets, outfile+suffix)
	}
	return targets
}

// absentTargets returns the output files that do not exist yet.
func (c *Converter) absentTargets(outfile string) []string {
	var absent []string
	for _, t := range c.outputTargets(outfile) {
		if _, err := os.Lstat(t); errors.Is(err, fs.ErrNotExist) {
			absent = append(absent, t)
		}
	}
	return absent
}

// removePartial deletes output files this call created before failing.
// Files that existed before the call are left alone.
func (c *Converter) removePartial(created []string) error {
	var first error
	for _, t := range created {
		err := os.Remove(t)
		switch {
		case err == nil:
			c.log.Printf("[convert] removed partial output %s", t)
		case errors.Is(err, fs.ErrNotExist):
		default:
			c.log.Printf("[convert] warning: remove partial output: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// TrimGroupSuffix strips one of suffixes from path, turning a group member
// ("toy.bim") into its prefix ("toy").
func TrimGroupSuffix(path string, suffixes []string) string {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s) {
			return strings.TrimSuffix(path, s)
		}
	}
	return path
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrInputMissing, path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// asToolError gives untyped failures from a method body the external tool
// error type. Cancellation passes through unchanged.
func asToolError(m *Method, err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return exec.LibraryError(m.Name, err)
}
