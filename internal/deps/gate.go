// Package deps decides whether the external requirements of a conversion
// method are satisfiable in the current process.
package deps

import (
	"fmt"
	"log"
	"os/exec"
	"sync"
)

// Kind distinguishes executables on PATH from libraries linked into the binary.
type Kind int

const (
	KindExecutable Kind = iota
	KindLibrary
)

// Requirement names one external dependency of a method.
type Requirement struct {
	Kind Kind
	Name string
}

// Executable returns a requirement on a program found through PATH.
func Executable(name string) Requirement {
	return Requirement{Kind: KindExecutable, Name: name}
}

// Library returns a requirement on an in-process library.
func Library(name string) Requirement {
	return Requirement{Kind: KindLibrary, Name: name}
}

func (r Requirement) String() string {
	if r.Kind == KindLibrary {
		return fmt.Sprintf("library %q", r.Name)
	}
	return fmt.Sprintf("executable %q", r.Name)
}

// MissingError reports the first unsatisfied requirement.
type MissingError struct {
	Requirement Requirement
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing dependency: %s", e.Requirement)
}

var (
	librariesMu sync.RWMutex
	libraries   = map[string]bool{}
)

// RegisterLibrary marks an in-process library as linked. Packages that wrap a
// library call this from init.
func RegisterLibrary(name string) {
	librariesMu.Lock()
	defer librariesMu.Unlock()
	libraries[name] = true
}

func libraryLinked(name string) bool {
	librariesMu.RLock()
	defer librariesMu.RUnlock()
	return libraries[name]
}

// Gate answers availability questions and caches every answer.
type Gate struct {
	// LookPath resolves executables. Defaults to os/exec.LookPath.
	LookPath func(file string) (string, error)
	// Linked reports whether a library is present. Defaults to the
	// RegisterLibrary table.
	Linked func(name string) bool
	Log    *log.Logger

	mu    sync.Mutex
	cache map[Requirement]bool
}

// NewGate creates a gate backed by PATH and the registered libraries.
func NewGate() *Gate {
	return &Gate{
		LookPath: exec.LookPath,
		Linked:   libraryLinked,
		cache:    make(map[Requirement]bool),
	}
}

var (
	defaultOnce sync.Once
	defaultGate *Gate
)

// Default returns the process-wide gate.
func Default() *Gate {
	defaultOnce.Do(func() {
		defaultGate = NewGate()
	})
	return defaultGate
}

// Available reports whether req is satisfiable. The first answer for each
// requirement is cached for the lifetime of the gate.
func (g *Gate) Available(req Requirement) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cache == nil {
		g.cache = make(map[Requirement]bool)
	}
	if ok, cached := g.cache[req]; cached {
		return ok
	}

	ok := g.detect(req)
	g.cache[req] = ok
	if !ok {
		g.logf("[deps] %s not found", req)
	}
	return ok
}

func (g *Gate) detect(req Requirement) bool {
	switch req.Kind {
	case KindLibrary:
		linked := g.Linked
		if linked == nil {
			linked = libraryLinked
		}
		return linked(req.Name)
	default:
		lookPath := g.LookPath
		if lookPath == nil {
			lookPath = exec.LookPath
		}
		path, err := lookPath(req.Name)
		return err == nil && path != ""
	}
}

// Check returns a *MissingError for the first unavailable requirement.
func (g *Gate) Check(reqs ...Requirement) error {
	for _, req := range reqs {
		if !g.Available(req) {
			return &MissingError{Requirement: req}
		}
	}
	return nil
}

// Forget drops the cached answer for req, e.g. after installing it.
func (g *Gate) Forget(req Requirement) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.cache, req)
}

func (g *Gate) logf(format string, args ...any) {
	if g.Log != nil {
		g.Log.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
