package seqio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/biogo/seq/linear"
)

// strictNameWidth is the fixed name column of strict PHYLIP.
const strictNameWidth = 10

type phylipEntry struct {
	name string
	seq  strings.Builder
}

func readPhylip(r io.Reader, alpha Alphabet) ([]*linear.Seq, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lines []string
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("phylip: empty input")
	}

	ntax, nchar, err := parsePhylipHeader(lines[0])
	if err != nil {
		return nil, err
	}
	body := lines[1:]

	entries, err := parsePhylipBody(body, ntax, nchar)
	if err != nil {
		return nil, err
	}

	seqs := make([]*linear.Seq, len(entries))
	for i, e := range entries {
		seqs[i] = newSeq(e.name, e.seq.String(), alpha)
	}
	return seqs, nil
}

func parsePhylipHeader(line string) (ntax, nchar int, err error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("phylip: bad header %q", line)
	}
	ntax, err = strconv.Atoi(fields[0])
	if err != nil || ntax <= 0 {
		return 0, 0, fmt.Errorf("phylip: bad sequence count %q", fields[0])
	}
	nchar, err = strconv.Atoi(fields[1])
	if err != nil || nchar <= 0 {
		return 0, 0, fmt.Errorf("phylip: bad alignment length %q", fields[1])
	}
	return ntax, nchar, nil
}

type nameSplitter func(line string) (name, rest string)

// parsePhylipBody tries relaxed names first, then the strict 10-column
// name field, each in interleaved then sequential layout. The error of the
// first attempt is reported when nothing fits.
func parsePhylipBody(lines []string, ntax, nchar int) ([]*phylipEntry, error) {
	var first error
	for _, split := range []nameSplitter{splitPhylipName, splitStrictName} {
		entries, err := parsePhylipInterleaved(lines, ntax, nchar, split)
		if err == nil {
			return entries, nil
		}
		if first == nil {
			first = err
		}
		if entries, err := parsePhylipSequential(lines, ntax, nchar, split); err == nil {
			return entries, nil
		}
	}
	return nil, first
}

// splitStrictName reads the fixed name field of strict PHYLIP, which may
// hold spaces ("Salmo gair").
func splitStrictName(line string) (string, string) {
	if len(line) <= strictNameWidth {
		return line, ""
	}
	return line[:strictNameWidth], line[strictNameWidth:]
}

// splitPhylipName separates the name column from the residues. Relaxed
// names end at the first whitespace; a line with no whitespace in its first
// ten columns is strict PHYLIP with the name fused to the sequence.
func splitPhylipName(line string) (string, string) {
	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		if len(line) > strictNameWidth {
			return line[:strictNameWidth], line[strictNameWidth:]
		}
		return line, ""
	}
	return line[:idx], line[idx:]
}

func parsePhylipInterleaved(lines []string, ntax, nchar int, split nameSplitter) ([]*phylipEntry, error) {
	if len(lines) < ntax {
		return nil, fmt.Errorf("phylip: expected %d sequences, found %d lines", ntax, len(lines))
	}
	entries := make([]*phylipEntry, ntax)
	for i := 0; i < ntax; i++ {
		name, rest := split(lines[i])
		entries[i] = &phylipEntry{name: strings.TrimSpace(name)}
		entries[i].seq.WriteString(stripSpace(rest))
	}
	for i, line := range lines[ntax:] {
		entries[i%ntax].seq.WriteString(stripSpace(line))
	}
	for _, e := range entries {
		if e.seq.Len() != nchar {
			return nil, fmt.Errorf("phylip: sequence %q has %d characters, header says %d", e.name, e.seq.Len(), nchar)
		}
	}
	return entries, nil
}

func parsePhylipSequential(lines []string, ntax, nchar int, split nameSplitter) ([]*phylipEntry, error) {
	entries := make([]*phylipEntry, 0, ntax)
	i := 0
	for len(entries) < ntax {
		if i >= len(lines) {
			return nil, fmt.Errorf("phylip: expected %d sequences, found %d", ntax, len(entries))
		}
		name, rest := split(lines[i])
		i++
		e := &phylipEntry{name: strings.TrimSpace(name)}
		e.seq.WriteString(stripSpace(rest))
		for e.seq.Len() < nchar && i < len(lines) {
			e.seq.WriteString(stripSpace(lines[i]))
			i++
		}
		if e.seq.Len() != nchar {
			return nil, fmt.Errorf("phylip: sequence %q has %d characters, header says %d", e.name, e.seq.Len(), nchar)
		}
		entries = append(entries, e)
	}
	if i != len(lines) {
		return nil, fmt.Errorf("phylip: %d trailing lines after %d sequences", len(lines)-i, ntax)
	}
	return entries, nil
}

func writePhylip(w *bufio.Writer, seqs []*linear.Seq) error {
	width, err := checkAligned(seqs)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%d %d\n", len(seqs), width); err != nil {
		return err
	}
	for _, s := range seqs {
		if strings.ContainsAny(s.Name(), " \t") {
			return fmt.Errorf("phylip: sequence name %q contains whitespace", s.Name())
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", s.Name(), residues(s)); err != nil {
			return err
		}
	}
	return nil
}
