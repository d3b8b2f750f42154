package converters

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/bioconvert/internal/convert"
	"github.com/ShayCichocki/bioconvert/internal/deps"
	"github.com/ShayCichocki/bioconvert/internal/exec"
	"github.com/ShayCichocki/bioconvert/internal/scratch"
)

// BigBedToWiggle converts a sorted BIGBED file to WIGGLE with wiggletools.
func BigBedToWiggle() *convert.Conversion {
	return &convert.Conversion{
		Spec: convert.Spec(convert.BIGBED, convert.WIGGLE),
		Doc:  "Convert a sorted BIGBED file to WIGGLE. The input must be sorted.",
		Methods: []*convert.Method{{
			Name:     "wiggletools",
			Requires: []deps.Requirement{deps.Executable("wiggletools")},
			Doc:      "wiggletools reads the input only when its name ends in .bb",
			Run:      runWiggletools,
		}},
	}
}

// wiggletools decides the input type from the file name, so the input is
// exposed through a scratch symlink ending in .bb.
func runWiggletools(ctx context.Context, job *convert.Job) (err error) {
	link, err := job.Scratch.Symlink(job.Infile, ".bb")
	if err != nil {
		return fmt.Errorf("link %s: %w", job.Infile, err)
	}
	defer func() {
		err = scratch.Join(err, scratch.ReleaseAll(job.Log, link))
	}()

	return job.Shell(ctx, fmt.Sprintf("wiggletools %s > %s",
		exec.Quote(link.Path()), exec.Quote(job.Outfile)))
}
