package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Configuration keys.
const (
	KeyThreads        = "defaults.threads"
	KeyForce          = "defaults.force"
	KeyScratchDir     = "scratch.dir"
	KeyInstallEnabled = "install.enabled"
	KeyHistoryEnabled = "history.enabled"
	KeyHistoryPath    = "history.path"
	KeyBatchJobs      = "batch.jobs"
	KeyLogVerbose     = "log.verbose"

	// MethodsPrefix starts a per-conversion method override, e.g.
	// methods.phylip2nexus.
	MethodsPrefix = "methods."
)

// ErrUnknownKey is returned for keys bioconvert does not read.
var ErrUnknownKey = errors.New("unknown config key")

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindBool
)

var keyKinds = map[string]keyKind{
	KeyThreads:        kindInt,
	KeyForce:          kindBool,
	KeyScratchDir:     kindString,
	KeyInstallEnabled: kindBool,
	KeyHistoryEnabled: kindBool,
	KeyHistoryPath:    kindString,
	KeyBatchJobs:      kindInt,
	KeyLogVerbose:     kindBool,
}

// Keys returns the fixed configuration keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateKey reports whether key is one bioconvert reads.
func ValidateKey(key string) error {
	key = strings.ToLower(key)
	if _, ok := keyKinds[key]; ok {
		return nil
	}
	if strings.HasPrefix(key, MethodsPrefix) && len(key) > len(MethodsPrefix) {
		return nil
	}
	return fmt.Errorf("%w: %q (known: %s, %s<conversion>)", ErrUnknownKey, key,
		strings.Join(Keys(), ", "), MethodsPrefix)
}

// ParseValue converts a string from the command line to the type key holds.
func ParseValue(key, value string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	var (
		out any
		err error
	)
	switch keyKinds[strings.ToLower(key)] {
	case kindInt:
		out, err = cast.ToIntE(value)
	case kindBool:
		out, err = cast.ToBoolE(value)
	default:
		out = value
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}

// Get returns the value of key in cfg.
func Get(cfg *Config, key string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	key = strings.ToLower(key)
	if strings.HasPrefix(key, MethodsPrefix) {
		return cfg.Methods[strings.TrimPrefix(key, MethodsPrefix)], nil
	}
	return Settings(cfg)[key], nil
}
