package convert

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"
)

// OptionKind is the type an option value is coerced to.
type OptionKind int

const (
	OptionString OptionKind = iota
	OptionInt
	OptionBool
)

func (k OptionKind) String() string {
	switch k {
	case OptionInt:
		return "int"
	case OptionBool:
		return "bool"
	default:
		return "string"
	}
}

// OptionSpec declares an extra parameter a conversion accepts. The same
// declaration drives programmatic use and the generated CLI flag.
type OptionSpec struct {
	Name    string
	Short   string
	Kind    OptionKind
	Default any
	Help    string
}

// Options holds coerced option values for one conversion call.
type Options map[string]any

// Int returns an integer option, or 0 if unset.
func (o Options) Int(name string) int {
	return cast.ToInt(o[name])
}

// String returns a string option, or "" if unset.
func (o Options) String(name string) string {
	return cast.ToString(o[name])
}

// Bool returns a boolean option, or false if unset.
func (o Options) Bool(name string) bool {
	return cast.ToBool(o[name])
}

func coerce(spec OptionSpec, v any) (any, error) {
	var (
		out any
		err error
	)
	switch spec.Kind {
	case OptionInt:
		out, err = cast.ToIntE(v)
	case OptionBool:
		out, err = cast.ToBoolE(v)
	default:
		out, err = cast.ToStringE(v)
	}
	if err != nil {
		return nil, fmt.Errorf("option %s: want %s: %w", spec.Name, spec.Kind, err)
	}
	return out, nil
}

// ResolveOptions merges given values over the declared defaults and coerces
// each to its declared kind. Names the conversion does not declare are an
// error.
func (c *Conversion) ResolveOptions(given map[string]any) (Options, error) {
	declared := make(map[string]OptionSpec, len(c.Options))
	for _, spec := range c.Options {
		declared[spec.Name] = spec
	}

	var unknown []string
	for name := range given {
		if _, ok := declared[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%s does not accept options %v", c.Spec.Name(), unknown)
	}

	out := make(Options, len(c.Options))
	for _, spec := range c.Options {
		v, ok := given[spec.Name]
		if !ok || v == nil {
			v = spec.Default
		}
		if v == nil {
			continue
		}
		coerced, err := coerce(spec, v)
		if err != nil {
			return nil, err
		}
		out[spec.Name] = coerced
	}
	return out, nil
}
