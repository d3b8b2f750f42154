// Package batch runs many conversion requests concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/sourcegraph/conc/pool"

	"github.com/ShayCichocki/bioconvert/internal/convert"
)

// ErrOutfileCollision is returned when two requests would write the same file.
var ErrOutfileCollision = errors.New("output file collision")

// Request is one conversion to run.
type Request struct {
	Conversion *convert.Conversion
	Infile     string
	Outfile    string
	Method     string
}

// Outcome is the result of one request.
type Outcome struct {
	Request Request
	Outfile string
	Err     error
}

// NewConverterFunc builds the converter for one request.
type NewConverterFunc func(conv *convert.Conversion, infile, outfile string) *convert.Converter

// Driver runs requests with bounded concurrency. A failing request does not
// stop the others.
type Driver struct {
	Jobs         int
	NewConverter NewConverterFunc
	Log          *log.Logger
}

// NewDriver creates a driver running at most jobs conversions at once.
func NewDriver(jobs int, newConverter NewConverterFunc, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.Default()
	}
	return &Driver{Jobs: jobs, NewConverter: newConverter, Log: logger}
}

// Run executes every request and returns one outcome per request, in input
// order. Requests are checked for colliding outfiles before anything runs.
func (d *Driver) Run(ctx context.Context, reqs []Request) ([]Outcome, error) {
	if err := CheckCollisions(reqs); err != nil {
		return nil, err
	}

	jobs := d.Jobs
	if jobs < 1 {
		jobs = 1
	}
	newConverter := d.NewConverter
	if newConverter == nil {
		newConverter = func(conv *convert.Conversion, infile, outfile string) *convert.Converter {
			return convert.New(conv, infile, outfile)
		}
	}

	d.Log.Printf("[batch] running %d conversions, %d at a time", len(reqs), jobs)
	outcomes := make([]Outcome, len(reqs))
	p := pool.New().WithMaxGoroutines(jobs)
	for i, req := range reqs {
		p.Go(func() {
			c := newConverter(req.Conversion, req.Infile, req.Outfile)
			err := c.Run(ctx, req.Method)
			if err != nil {
				d.Log.Printf("[batch] %s: %v", req.Infile, err)
			}
			outcomes[i] = Outcome{Request: req, Outfile: c.Outfile(), Err: err}
		})
	}
	p.Wait()
	return outcomes, nil
}

// CheckCollisions rejects request lists in which two requests resolve to the
// same output path.
func CheckCollisions(reqs []Request) error {
	seen := make(map[string]string, len(reqs))
	for _, req := range reqs {
		out, err := resolveOutfile(req)
		if err != nil {
			return err
		}
		if prev, dup := seen[out]; dup {
			return fmt.Errorf("%w: %s and %s both write %s", ErrOutfileCollision, prev, req.Infile, out)
		}
		seen[out] = req.Infile
	}
	return nil
}

func resolveOutfile(req Request) (string, error) {
	out := req.Outfile
	if out == "" {
		out = req.Conversion.OutfileFor(req.Infile)
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// Failed returns the outcomes that carry an error.
func Failed(outcomes []Outcome) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}
