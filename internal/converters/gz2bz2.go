package converters

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/bioconvert/internal/compress"
	"github.com/ShayCichocki/bioconvert/internal/convert"
	"github.com/ShayCichocki/bioconvert/internal/deps"
	"github.com/ShayCichocki/bioconvert/internal/exec"
)

// ThreadsOption is the thread count passed to parallel compressors.
var ThreadsOption = convert.OptionSpec{
	Name:    "threads",
	Short:   "x",
	Kind:    convert.OptionInt,
	Default: 1,
	Help:    "number of threads",
}

// GzToBz2 recompresses a gzip file as bzip2.
func GzToBz2() *convert.Conversion {
	return &convert.Conversion{
		Spec:          convert.Spec(convert.GZ, convert.BZ2),
		Doc:           "Convert a GZ compressed file to BZ2.",
		DefaultMethod: "pigz_pbzip2",
		Options:       []convert.OptionSpec{ThreadsOption},
		// reads.fq.gz becomes reads.fq.bz2
		DeriveOutfile: func(infile string) string {
			return compress.Strip(infile) + compress.Bzip2.Suffix
		},
		Methods: []*convert.Method{
			{
				Name:     "pigz_pbzip2",
				Requires: []deps.Requirement{deps.Executable("pigz"), deps.Executable("pbzip2")},
				Doc:      "parallel decompress and recompress through a pipe",
				Run:      runPigzPbzip2,
			},
			{
				Name:     "native",
				Requires: []deps.Requirement{deps.Library(compress.LibraryName)},
				Doc:      "single-threaded in-process recompression",
				Run: func(ctx context.Context, job *convert.Job) error {
					return compress.Recompress(compress.Gzip, compress.Bzip2, job.Infile, job.Outfile)
				},
			},
		},
	}
}

func runPigzPbzip2(ctx context.Context, job *convert.Job) error {
	threads := job.Options.Int(ThreadsOption.Name)
	if threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", threads)
	}
	return job.Shell(ctx, fmt.Sprintf("pigz -d -c -p %d %s | pbzip2 -p%d > %s",
		threads, exec.Quote(job.Infile), threads, exec.Quote(job.Outfile)))
}
