// Package seqio reads and writes multiple sequence alignments in the text
// formats the converter catalog supports. Records are biogo linear
// sequences.
package seqio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"

	"github.com/ShayCichocki/bioconvert/internal/deps"
	"github.com/ShayCichocki/bioconvert/internal/scratch"
)

// LibraryName is the dependency name methods declare to use this package.
const LibraryName = "biogo"

func init() {
	deps.RegisterLibrary(LibraryName)
}

// Format is an alignment file format.
type Format string

const (
	Phylip  Format = "phylip"
	Fasta   Format = "fasta"
	Clustal Format = "clustal"
	Nexus   Format = "nexus"
)

var (
	// ErrUnknownFormat is returned when content or a format name is not recognized.
	ErrUnknownFormat = errors.New("unknown alignment format")
	// ErrNotAligned is returned when a format requires equal-length rows.
	ErrNotAligned = errors.New("sequences are not aligned")
)

// Alphabet pairs a biogo alphabet with the NEXUS datatype it maps to.
type Alphabet struct {
	Name     string
	Letters  alphabet.Alphabet
	Datatype string
}

// ParseAlphabet maps an alphabet option to an Alphabet. An empty name is
// gapped DNA.
func ParseAlphabet(name string) (Alphabet, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dna":
		return Alphabet{Name: "dna", Letters: alphabet.DNAgapped, Datatype: "dna"}, nil
	case "rna":
		return Alphabet{Name: "rna", Letters: alphabet.RNAgapped, Datatype: "rna"}, nil
	case "protein", "aa":
		return Alphabet{Name: "protein", Letters: alphabet.Protein, Datatype: "protein"}, nil
	default:
		return Alphabet{}, fmt.Errorf("unknown alphabet %q (want dna, rna or protein)", name)
	}
}

// Read parses every record of an alignment in format f.
func Read(r io.Reader, f Format, alpha Alphabet) ([]*linear.Seq, error) {
	switch f {
	case Phylip:
		return readPhylip(r, alpha)
	case Fasta:
		return readFasta(r, alpha)
	case Clustal:
		return readClustal(r, alpha)
	case Nexus:
		return readNexus(r, alpha)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Write serializes records in format f and returns how many were written.
func Write(w io.Writer, f Format, seqs []*linear.Seq, alpha Alphabet) (int, error) {
	bw := bufio.NewWriter(w)
	var err error
	switch f {
	case Phylip:
		err = writePhylip(bw, seqs)
	case Fasta:
		err = writeFasta(bw, seqs)
	case Clustal:
		err = writeClustal(bw, seqs)
	case Nexus:
		err = writeNexus(bw, seqs, alpha)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return 0, err
	}
	if err := bw.Flush(); err != nil {
		return 0, err
	}
	return len(seqs), nil
}

// Convert reads an alignment in one format and writes it in another,
// returning the number of records written.
func Convert(r io.Reader, w io.Writer, from, to Format, alpha Alphabet) (int, error) {
	seqs, err := Read(r, from, alpha)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", from, err)
	}
	n, err := Write(w, to, seqs, alpha)
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", to, err)
	}
	return n, nil
}

// ConvertFile is Convert over two paths. alphabetName is passed to
// ParseAlphabet. outPath is left untouched when the conversion fails.
func ConvertFile(inPath, outPath string, from, to Format, alphabetName string) (int, error) {
	alpha, err := ParseAlphabet(alphabetName)
	if err != nil {
		return 0, err
	}

	in, err := os.Open(inPath)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	var n int
	err = scratch.WriteFile(outPath, func(w io.Writer) error {
		n, err = Convert(in, w, from, to, alpha)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func newSeq(name string, residues string, alpha Alphabet) *linear.Seq {
	letters := make([]alphabet.Letter, len(residues))
	for i := 0; i < len(residues); i++ {
		letters[i] = alphabet.Letter(residues[i])
	}
	return linear.NewSeq(name, letters, alpha.Letters)
}

func residues(s *linear.Seq) string {
	b := make([]byte, len(s.Seq))
	for i, l := range s.Seq {
		b[i] = byte(l)
	}
	return string(b)
}

// checkAligned verifies all records share one length and returns it.
func checkAligned(seqs []*linear.Seq) (int, error) {
	if len(seqs) == 0 {
		return 0, fmt.Errorf("%w: no sequences", ErrNotAligned)
	}
	width := len(seqs[0].Seq)
	for _, s := range seqs[1:] {
		if len(s.Seq) != width {
			return 0, fmt.Errorf("%w: %s has length %d, %s has length %d",
				ErrNotAligned, seqs[0].Name(), width, s.Name(), len(s.Seq))
		}
	}
	return width, nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\r' {
			return -1
		}
		return r
	}, s)
}
