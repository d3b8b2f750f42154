package seqio

import (
	"bufio"
	"fmt"
	"io"

	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// fastaWidth is the residue line width used when writing FASTA.
const fastaWidth = 60

func readFasta(r io.Reader, alpha Alphabet) ([]*linear.Seq, error) {
	fr := fasta.NewReader(r, linear.NewSeq("", nil, alpha.Letters))
	var seqs []*linear.Seq
	for {
		s, err := fr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fasta: %w", err)
		}
		ls, ok := s.(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("fasta: unexpected sequence type %T", s)
		}
		seqs = append(seqs, ls)
	}
	if len(seqs) == 0 {
		return nil, fmt.Errorf("fasta: no sequences")
	}
	return seqs, nil
}

func writeFasta(w *bufio.Writer, seqs []*linear.Seq) error {
	fw := fasta.NewWriter(w, fastaWidth)
	for _, s := range seqs {
		if _, err := fw.Write(s); err != nil {
			return fmt.Errorf("fasta: write %s: %w", s.Name(), err)
		}
	}
	return nil
}
