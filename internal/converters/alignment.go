package converters

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/bioconvert/internal/convert"
	"github.com/ShayCichocki/bioconvert/internal/deps"
	"github.com/ShayCichocki/bioconvert/internal/exec"
	"github.com/ShayCichocki/bioconvert/internal/seqio"
)

// AlphabetOption selects the residue alphabet used by in-process methods.
var AlphabetOption = convert.OptionSpec{
	Name:    "alphabet",
	Short:   "a",
	Kind:    convert.OptionString,
	Default: "",
	Help:    "residue alphabet: dna, rna or protein (default gapped dna)",
}

// seqioMethod converts between two alignment formats in process.
func seqioMethod(from, to seqio.Format) *convert.Method {
	return &convert.Method{
		Name:       "seqio",
		Requires:   []deps.Requirement{deps.Library(seqio.LibraryName)},
		Compressor: true,
		Doc:        "in-process conversion with biogo sequences",
		Run: func(ctx context.Context, job *convert.Job) error {
			n, err := seqio.ConvertFile(job.Infile, job.Outfile, from, to, job.Options.String(AlphabetOption.Name))
			if err != nil {
				return err
			}
			job.Log.Printf("[convert] %s/seqio: wrote %d records", job.Conversion.Spec.Name(), n)
			return nil
		},
	}
}

// squizzMethod converts to the squizz output format named format.
func squizzMethod(format string) *convert.Method {
	return &convert.Method{
		Name:       "squizz",
		Requires:   []deps.Requirement{deps.Executable("squizz")},
		Compressor: true,
		Run: func(ctx context.Context, job *convert.Job) error {
			return job.Shell(ctx, fmt.Sprintf("squizz -c %s %s > %s",
				format, exec.Quote(job.Infile), exec.Quote(job.Outfile)))
		},
	}
}

// PhylipToClustal converts a PHYLIP alignment to CLUSTAL.
func PhylipToClustal() *convert.Conversion {
	return &convert.Conversion{
		Spec:          convert.Spec(convert.PHYLIP, convert.CLUSTAL),
		Doc:           "Convert a PHYLIP alignment to CLUSTAL.",
		DefaultMethod: "seqio",
		Options:       []convert.OptionSpec{AlphabetOption},
		Methods: []*convert.Method{
			seqioMethod(seqio.Phylip, seqio.Clustal),
			squizzMethod("CLUSTAL"),
		},
	}
}

// PhylipToNexus converts a PHYLIP alignment to NEXUS.
func PhylipToNexus() *convert.Conversion {
	return &convert.Conversion{
		Spec:          convert.Spec(convert.PHYLIP, convert.NEXUS),
		Doc:           "Convert a PHYLIP alignment to NEXUS.",
		DefaultMethod: "goalign",
		Options:       []convert.OptionSpec{AlphabetOption},
		Methods: []*convert.Method{
			{
				Name:       "goalign",
				Requires:   []deps.Requirement{deps.Executable("go")},
				Installs:   "goalign",
				Compressor: true,
				Doc:        "goalign reformat, installed with go install when missing",
				Run: func(ctx context.Context, job *convert.Job) error {
					return job.Exec(ctx, "goalign", "reformat", "nexus", "-i", job.Infile, "-o", job.Outfile, "-p")
				},
			},
			seqioMethod(seqio.Phylip, seqio.Nexus),
		},
	}
}

// FastaToClustal converts aligned FASTA to CLUSTAL.
func FastaToClustal() *convert.Conversion {
	return &convert.Conversion{
		Spec:          convert.Spec(convert.FASTA, convert.CLUSTAL),
		Doc:           "Convert aligned FASTA sequences to CLUSTAL.",
		DefaultMethod: "seqio",
		Options:       []convert.OptionSpec{AlphabetOption},
		Methods: []*convert.Method{
			seqioMethod(seqio.Fasta, seqio.Clustal),
			squizzMethod("CLUSTAL"),
		},
	}
}

// FastaToPhylip converts aligned FASTA to sequential PHYLIP. Sequences of
// unequal length are rejected.
func FastaToPhylip() *convert.Conversion {
	return &convert.Conversion{
		Spec:    convert.Spec(convert.FASTA, convert.PHYLIP),
		Doc:     "Convert aligned FASTA sequences to PHYLIP.",
		Options: []convert.OptionSpec{AlphabetOption},
		Methods: []*convert.Method{
			seqioMethod(seqio.Fasta, seqio.Phylip),
		},
	}
}
