package seqio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/seq/linear"
)

const (
	clustalHeader = "CLUSTAL W (1.83) multiple sequence alignment"
	clustalBlock  = 60
)

func readClustal(r io.Reader, alpha Alphabet) ([]*linear.Seq, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		order  []string
		chunks = make(map[string]*strings.Builder)
		header bool
	)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if !header {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !strings.HasPrefix(line, "CLUSTAL") {
				return nil, fmt.Errorf("clustal: missing CLUSTAL header")
			}
			header = true
			continue
		}
		// Blank lines separate blocks; lines starting with whitespace hold
		// the conservation markers.
		if strings.TrimSpace(line) == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("clustal: malformed line %q", line)
		}
		name := fields[0]
		b, ok := chunks[name]
		if !ok {
			b = &strings.Builder{}
			chunks[name] = b
			order = append(order, name)
		}
		b.WriteString(fields[1])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("clustal: no sequences")
	}

	seqs := make([]*linear.Seq, len(order))
	for i, name := range order {
		seqs[i] = newSeq(name, chunks[name].String(), alpha)
	}
	return seqs, nil
}

func writeClustal(w *bufio.Writer, seqs []*linear.Seq) error {
	width, err := checkAligned(seqs)
	if err != nil {
		return err
	}

	// Names are a single column; spaces become underscores.
	names := make([]string, len(seqs))
	nameWidth := 0
	for i, s := range seqs {
		names[i] = strings.Join(strings.Fields(s.Name()), "_")
		if len(names[i]) > nameWidth {
			nameWidth = len(names[i])
		}
	}
	nameWidth += 6

	if _, err := fmt.Fprintf(w, "%s\n\n\n", clustalHeader); err != nil {
		return err
	}
	rows := make([]string, len(seqs))
	for i, s := range seqs {
		rows[i] = residues(s)
	}
	for start := 0; start < width; start += clustalBlock {
		end := start + clustalBlock
		if end > width {
			end = width
		}
		for i := range seqs {
			if _, err := fmt.Fprintf(w, "%-*s%s\n", nameWidth, names[i], rows[i][start:end]); err != nil {
				return err
			}
		}
		if end < width {
			if _, err := w.WriteString("\n"); err != nil {
				return err
			}
		}
	}
	return nil
}
