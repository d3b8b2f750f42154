package converters

import (
	"context"

	"github.com/ShayCichocki/bioconvert/internal/convert"
	"github.com/ShayCichocki/bioconvert/internal/deps"
)

var (
	bplinkGroup = []string{".bed", ".bim", ".fam"}
	plinkGroup  = []string{".ped", ".map"}
)

// BPlinkToPlink converts a binary PLINK file set to text PLINK. Both sides
// are file-set prefixes.
func BPlinkToPlink() *convert.Conversion {
	return &convert.Conversion{
		Spec:        convert.Spec(convert.BPLINK, convert.PLINK),
		Doc:         "Convert a BPLINK file set (.bed/.bim/.fam) to PLINK (.ped/.map).",
		InputGroup:  bplinkGroup,
		OutputGroup: plinkGroup,
		// The text file set shares the binary set's prefix.
		DeriveOutfile: func(prefix string) string { return prefix },
		Methods: []*convert.Method{{
			Name:     "plink",
			Requires: []deps.Requirement{deps.Executable("plink")},
			Run: func(ctx context.Context, job *convert.Job) error {
				return job.Exec(ctx, "plink", "--bfile", job.Infile, "--recode", "--out", job.Outfile)
			},
		}},
	}
}
