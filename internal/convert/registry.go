package convert

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps conversion specs to their conversions. It is populated at
// process start and read afterwards.
type Registry struct {
	mu          sync.RWMutex
	conversions map[ConversionSpec]*Conversion
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conversions: make(map[ConversionSpec]*Conversion)}
}

// Register adds a conversion. Duplicate specs, duplicate method names, a
// method without a body and an unregistered default are rejected.
func (r *Registry) Register(c *Conversion) error {
	if len(c.Methods) == 0 {
		return fmt.Errorf("register %s: no methods", c.Spec.Name())
	}
	seen := make(map[string]bool, len(c.Methods))
	for _, m := range c.Methods {
		if m.Name == "" || m.Run == nil {
			return fmt.Errorf("register %s: method %q has no name or body", c.Spec.Name(), m.Name)
		}
		if seen[m.Name] {
			return fmt.Errorf("register %s: duplicate method %q", c.Spec.Name(), m.Name)
		}
		seen[m.Name] = true
	}
	if c.DefaultMethod == "" {
		c.DefaultMethod = c.Methods[0].Name
	}
	if !seen[c.DefaultMethod] {
		return fmt.Errorf("register %s: default method %q is not registered", c.Spec.Name(), c.DefaultMethod)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.conversions[c.Spec]; dup {
		return fmt.Errorf("register %s: already registered", c.Spec.Name())
	}
	r.conversions[c.Spec] = c
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(c *Conversion) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Lookup returns the conversion for spec.
func (r *Registry) Lookup(spec ConversionSpec) (*Conversion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conversions[spec]
	return c, ok
}

// LookupName returns the conversion named like "phylip2nexus".
func (r *Registry) LookupName(name string) (*Conversion, error) {
	spec, err := ParseSpec(name)
	if err != nil {
		return nil, err
	}
	c, ok := r.Lookup(spec)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConversion, name)
	}
	return c, nil
}

// Conversions returns every registered conversion sorted by name.
func (r *Registry) Conversions() []*Conversion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Conversion, 0, len(r.conversions))
	for _, c := range r.conversions {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Spec.Name() < out[j].Spec.Name() })
	return out
}

// Detect finds the single conversion matching the extensions of infile and
// outfile.
func (r *Registry) Detect(infile, outfile string) (*Conversion, error) {
	var matches []*Conversion
	for _, from := range FormatsForPath(infile) {
		for _, to := range FormatsForPath(outfile) {
			if c, ok := r.Lookup(Spec(from, to)); ok {
				matches = append(matches, c)
			}
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: no conversion from %s to %s", ErrUnknownConversion, infile, outfile)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, c := range matches {
			names[i] = c.Spec.Name()
		}
		return nil, fmt.Errorf("ambiguous conversion from %s to %s: %s; name it explicitly",
			infile, outfile, strings.Join(names, ", "))
	}
}
