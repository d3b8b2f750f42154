package exec

import (
	"github.com/kballard/go-shellquote"
)

// Quote joins arguments into a single shell word list, escaping paths that
// contain spaces or shell metacharacters.
func Quote(args ...string) string {
	return shellquote.Join(args...)
}

// Split breaks a command line into words using shell quoting rules.
func Split(line string) ([]string, error) {
	return shellquote.Split(line)
}
