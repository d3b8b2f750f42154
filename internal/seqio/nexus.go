package seqio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/biogo/biogo/seq/linear"
)

func writeNexus(w *bufio.Writer, seqs []*linear.Seq, alpha Alphabet) error {
	width, err := checkAligned(seqs)
	if err != nil {
		return err
	}
	datatype := alpha.Datatype
	if datatype == "" {
		datatype = "dna"
	}

	fmt.Fprintln(w, "#NEXUS")
	fmt.Fprintln(w, "begin data;")
	fmt.Fprintf(w, "\tdimensions ntax=%d nchar=%d;\n", len(seqs), width)
	fmt.Fprintf(w, "\tformat datatype=%s missing=? gap=-;\n", datatype)
	fmt.Fprintln(w, "matrix")

	names := make([]string, len(seqs))
	nameWidth := 0
	for i, s := range seqs {
		names[i] = nexusName(s.Name())
		if len(names[i]) > nameWidth {
			nameWidth = len(names[i])
		}
	}
	for i, s := range seqs {
		fmt.Fprintf(w, "%-*s %s\n", nameWidth, names[i], residues(s))
	}
	fmt.Fprintln(w, ";")
	_, err = fmt.Fprintln(w, "end;")
	return err
}

// nexusName quotes a taxon label when it holds NEXUS punctuation or spaces.
func nexusName(name string) string {
	if name != "" && !strings.ContainsAny(name, " \t()[]{}/\\,;:=*'\"`+-<>") {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// readNexus reads the MATRIX of the first DATA or CHARACTERS block.
// Interleaved matrices are supported by appending rows by label.
func readNexus(r io.Reader, alpha Alphabet) ([]*linear.Seq, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		sawHeader bool
		inMatrix  bool
		order     []string
		rows      = make(map[string]*strings.Builder)
	)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		if !sawHeader {
			if !strings.EqualFold(line, "#NEXUS") {
				return nil, fmt.Errorf("nexus: missing #NEXUS header")
			}
			sawHeader = true
			continue
		}
		lower := strings.ToLower(line)
		if !inMatrix {
			if lower == "matrix" {
				inMatrix = true
			}
			continue
		}
		if strings.HasPrefix(line, ";") {
			break
		}
		done := strings.HasSuffix(line, ";")
		line = strings.TrimSuffix(line, ";")

		name, rest := splitNexusRow(line)
		if name != "" {
			b, ok := rows[name]
			if !ok {
				b = &strings.Builder{}
				rows[name] = b
				order = append(order, name)
			}
			b.WriteString(stripSpace(rest))
		}
		if done {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !inMatrix || len(order) == 0 {
		return nil, fmt.Errorf("nexus: no matrix found")
	}

	seqs := make([]*linear.Seq, len(order))
	for i, name := range order {
		seqs[i] = newSeq(name, rows[name].String(), alpha)
	}
	return seqs, nil
}

func splitNexusRow(line string) (string, string) {
	if strings.HasPrefix(line, "'") {
		var b strings.Builder
		for i := 1; i < len(line); i++ {
			if line[i] == '\'' {
				if i+1 < len(line) && line[i+1] == '\'' {
					b.WriteByte('\'')
					i++
					continue
				}
				return b.String(), line[i+1:]
			}
			b.WriteByte(line[i])
		}
		return b.String(), ""
	}
	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		return line, ""
	}
	return line[:idx], line[idx:]
}
