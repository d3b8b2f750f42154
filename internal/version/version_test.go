package version

import (
	"regexp"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	v := Get()
	if !regexp.MustCompile(`^\d+\.\d+\.\d+$`).MatchString(v) {
		t.Errorf("Get() = %q, want a semantic version", v)
	}
}

func TestLong(t *testing.T) {
	if l := Long(); !strings.HasPrefix(l, Get()) {
		t.Errorf("Long() = %q, want prefix %q", l, Get())
	}
}
