package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"

	"github.com/ShayCichocki/bioconvert/internal/convert"
	"github.com/ShayCichocki/bioconvert/internal/deps"
	"github.com/ShayCichocki/bioconvert/internal/exec"
	"github.com/ShayCichocki/bioconvert/internal/scratch"
	"github.com/ShayCichocki/bioconvert/internal/state"
)

// app wires the shared pieces every conversion command needs.
type app struct {
	runner    *exec.ExecRunner
	gate      *deps.Gate
	installer deps.Installer
	space     *scratch.Space
	history   *state.DB
	logger    *log.Logger
}

// newApp builds the runtime from the loaded configuration. History is
// best-effort: if the database cannot be opened the conversion still runs.
func newApp() *app {
	a := &app{
		runner: exec.NewRunner(),
		gate:   deps.Default(),
		logger: log.Default(),
	}
	a.space = scratch.NewSpace(cfg.Scratch.Dir, a.logger)
	if cfg.Log.Verbose {
		a.runner.Stream = os.Stderr
	}

	a.installer = deps.NoInstaller{}
	if cfg.Install.Enabled {
		a.installer = deps.NewGoInstaller(a.runner, a.gate)
	}

	if cfg.History.Enabled && !noHistory {
		db, err := state.OpenHistory(cfg.History.Path)
		if err != nil {
			printStatus("⚠", fmt.Sprintf("run history disabled: %v", err), color.FgYellow)
		} else {
			a.history = db
		}
	}
	return a
}

// Close releases the history database.
func (a *app) Close() {
	if a.history != nil {
		a.history.Close()
	}
}

// newConverter builds a converter with the app's runtime and per-call settings.
func (a *app) newConverter(conv *convert.Conversion, infile, outfile string, options map[string]any, force bool) *convert.Converter {
	opts := []convert.Option{
		convert.WithRunner(a.runner),
		convert.WithGate(a.gate),
		convert.WithInstaller(a.installer),
		convert.WithScratch(a.space),
		convert.WithLogger(a.logger),
		convert.WithOptions(options),
		convert.WithForce(force),
	}
	if a.history != nil {
		opts = append(opts, convert.WithRecorder(state.Recorder(a.history, a.logger)))
	}
	return convert.New(conv, infile, outfile, opts...)
}

// methodFor returns the method named on the command line, else the one
// configured for the conversion, else "" for the conversion's default.
func methodFor(conv *convert.Conversion, flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.MethodFor(conv.Spec.Name())
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
