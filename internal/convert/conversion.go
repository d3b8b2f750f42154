// Package convert holds the conversion catalog core: conversion specs,
// named methods, the registry that resolves them, and the Converter that
// runs exactly one method per call.
package convert

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ShayCichocki/bioconvert/internal/compress"
	"github.com/ShayCichocki/bioconvert/internal/deps"
	"github.com/ShayCichocki/bioconvert/internal/exec"
	"github.com/ShayCichocki/bioconvert/internal/scratch"
)

// ConversionSpec identifies a conversion family by source and target format.
type ConversionSpec struct {
	From string
	To   string
}

// Spec builds a ConversionSpec from two formats.
func Spec(from, to Format) ConversionSpec {
	return ConversionSpec{From: from.Name, To: to.Name}
}

// Name returns the lower-case conversion name, e.g. "phylip2nexus".
func (s ConversionSpec) Name() string {
	return strings.ToLower(s.From) + "2" + strings.ToLower(s.To)
}

func (s ConversionSpec) String() string {
	return s.From + " -> " + s.To
}

// ParseSpec parses a conversion name such as "phylip2nexus". Both sides must
// be known formats.
func ParseSpec(name string) (ConversionSpec, error) {
	lower := strings.ToLower(name)
	for i := 0; i < len(lower); i++ {
		if lower[i] != '2' {
			continue
		}
		from, okFrom := FormatByName(lower[:i])
		to, okTo := FormatByName(lower[i+1:])
		if okFrom && okTo {
			return Spec(from, to), nil
		}
	}
	return ConversionSpec{}, fmt.Errorf("%w: %q", ErrUnknownConversion, name)
}

// MethodFunc performs a conversion. Paths in the job are already the ones
// the method must use (scratch copies when the input is compressed).
type MethodFunc func(ctx context.Context, job *Job) error

// Method is one named strategy implementing a conversion.
type Method struct {
	Name string
	// Requires lists what must be available before the method may run.
	Requires []deps.Requirement
	// Installs names a tool fetched through the installer hook when missing.
	Installs string
	// Compressor routes compressed inputs and outputs through the
	// compression adapter.
	Compressor bool
	Doc        string
	Run        MethodFunc
}

// Conversion is a registered conversion family and its methods.
type Conversion struct {
	Spec          ConversionSpec
	Doc           string
	DefaultMethod string
	Methods       []*Method
	Options       []OptionSpec
	// InputGroup lists the suffixes of a prefix-based input that must all
	// exist (".bed", ".bim", ".fam").
	InputGroup []string
	// OutputGroup lists the suffixes the method produces from the outfile
	// prefix (".ped", ".map").
	OutputGroup []string
	// DeriveOutfile computes the outfile when the caller omits it.
	DeriveOutfile func(infile string) string
}

// Method returns the method registered under name.
func (c *Conversion) Method(name string) (*Method, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// MethodNames returns the registered method names, sorted.
func (c *Conversion) MethodNames() []string {
	names := make([]string, len(c.Methods))
	for i, m := range c.Methods {
		names[i] = m.Name
	}
	sort.Strings(names)
	return names
}

// Disabled reports, per method, whether a requirement is missing. A method
// whose tool is installed on demand counts as disabled while the tool is
// absent unless canInstall is set.
func (c *Conversion) Disabled(gate *deps.Gate, canInstall bool) map[string]bool {
	out := make(map[string]bool, len(c.Methods))
	for _, m := range c.Methods {
		missing := gate.Check(m.Requires...) != nil
		if !missing && m.Installs != "" && !canInstall {
			missing = !gate.Available(deps.Executable(m.Installs))
		}
		out[m.Name] = missing
	}
	return out
}

// ResolveMethod returns the method registered under name, or the default
// method when name is empty.
func ResolveMethod(c *Conversion, name string) (*Method, error) {
	if name == "" {
		name = c.DefaultMethod
	}
	if m, ok := c.Method(name); ok {
		return m, nil
	}
	return nil, &UnknownMethodError{Spec: c.Spec, Method: name, Known: c.MethodNames()}
}

// Job is what a method body sees.
type Job struct {
	Conversion *Conversion
	Method     *Method
	Infile     string
	Outfile    string
	Options    Options
	Runner     exec.CommandRunner
	Scratch    *scratch.Space
	Log        *log.Logger
}

// Shell runs a command line through the job's runner, logging it first.
func (j *Job) Shell(ctx context.Context, command string) error {
	j.Log.Printf("[convert] %s/%s: %s", j.Conversion.Spec.Name(), j.Method.Name, command)
	_, err := j.Runner.RunShell(ctx, "", command)
	return err
}

// Exec runs a program with an argument list through the job's runner.
func (j *Job) Exec(ctx context.Context, name string, args ...string) error {
	j.Log.Printf("[convert] %s/%s: %s", j.Conversion.Spec.Name(), j.Method.Name, exec.Quote(append([]string{name}, args...)...))
	_, err := j.Runner.Run(ctx, "", name, args...)
	return err
}

// OutfileFor returns the output path used when the caller gives none: the
// conversion's own rule if it has one, otherwise infile with its extension
// (and any compression suffix) replaced by the target format's first one.
func (c *Conversion) OutfileFor(infile string) string {
	if len(c.InputGroup) > 0 {
		infile = TrimGroupSuffix(infile, c.InputGroup)
	}
	if c.DeriveOutfile != nil {
		return c.DeriveOutfile(infile)
	}
	base := compress.Strip(infile)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if to, ok := FormatByName(c.Spec.To); ok && len(to.Extensions) > 0 {
		return base + to.Extensions[0]
	}
	return base + "." + strings.ToLower(c.Spec.To)
}
