package seqio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Sniff identifies an alignment format from the first non-blank line.
func Sniff(r io.Reader) (Format, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.EqualFold(line, "#NEXUS"):
			return Nexus, nil
		case strings.HasPrefix(line, "CLUSTAL"):
			return Clustal, nil
		case strings.HasPrefix(line, ">"):
			return Fasta, nil
		}
		if fields := strings.Fields(line); len(fields) == 2 && isCount(fields[0]) && isCount(fields[1]) {
			return Phylip, nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, truncate(line, 40))
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: empty input", ErrUnknownFormat)
}

// SniffFile is Sniff on a path.
func SniffFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Sniff(f)
}

func isCount(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n > 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
