// Package scratch manages the transient files and symlinks a conversion
// creates to satisfy a wrapped tool's path expectations.
package scratch

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Prefix starts every scratch name.
const Prefix = "bioconvert-"

// Space hands out uniquely named scratch paths under one directory.
type Space struct {
	dir string
	log *log.Logger
}

// NewSpace creates a scratch space rooted at dir. An empty dir means
// os.TempDir().
func NewSpace(dir string, logger *log.Logger) *Space {
	if dir == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Space{dir: dir, log: logger}
}

// Dir returns the directory scratch resources are created in.
func (s *Space) Dir() string {
	return s.dir
}

// Name returns a fresh path in the space ending in suffix. Nothing is created.
func (s *Space) Name(suffix string) string {
	return filepath.Join(s.dir, Prefix+uuid.NewString()+suffix)
}

// File creates an empty scratch file ending in suffix. Creation is exclusive,
// so a name already in use is an error rather than shared.
func (s *Space) File(suffix string) (*Resource, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	path := s.Name(suffix)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("create scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("close scratch file: %w", err)
	}
	return &Resource{path: path, log: s.log}, nil
}

// Symlink creates a uniquely named symlink ending in suffix that points at
// the absolute path of target.
func (s *Space) Symlink(target, suffix string) (*Resource, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", target, err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	path := s.Name(suffix)
	if err := os.Symlink(abs, path); err != nil {
		return nil, fmt.Errorf("create scratch symlink: %w", err)
	}
	return &Resource{path: path, log: s.log}, nil
}

// Resource is one scratch file or symlink, owned by a single method
// invocation.
type Resource struct {
	path string
	log  *log.Logger
	once sync.Once
	err  error
}

// Path returns the resource's location.
func (r *Resource) Path() string {
	return r.path
}

// Release removes the resource. It is safe to call more than once, and a
// resource that is already gone is not an error.
func (r *Resource) Release() error {
	r.once.Do(func() {
		err := os.Remove(r.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.err = fmt.Errorf("remove scratch %s: %w", r.path, err)
		}
	})
	return r.err
}

// ReleaseAll releases every resource, logging each failure. It returns the
// first failure so a caller with no other error can report it.
func ReleaseAll(logger *log.Logger, resources ...*Resource) error {
	if logger == nil {
		logger = log.Default()
	}
	var first error
	for _, r := range resources {
		if r == nil {
			continue
		}
		if err := r.Release(); err != nil {
			logger.Printf("[scratch] warning: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Join returns primary when set; otherwise the cleanup error. Cleanup never
// replaces the error that caused a failure.
func Join(primary, cleanup error) error {
	if primary != nil {
		return primary
	}
	return cleanup
}

// WriteFile writes dst through fn without ever leaving a partial dst: the
// content goes to a hidden sibling file that is renamed over dst only when
// fn and the close succeed. On failure the sibling is removed and dst is
// untouched.
func WriteFile(dst string, fn func(w io.Writer) error) (err error) {
	tmp := filepath.Join(filepath.Dir(dst), "."+Prefix+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}
