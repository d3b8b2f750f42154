package compress

import (
	"context"
	"log"

	"github.com/ShayCichocki/bioconvert/internal/scratch"
)

// Body is a conversion step working on plain (uncompressed) paths.
type Body func(ctx context.Context, infile, outfile string) error

// Adapter routes compressed inputs and outputs through scratch copies.
type Adapter struct {
	Space *scratch.Space
	Log   *log.Logger
}

// NewAdapter creates an adapter allocating scratch files from space.
func NewAdapter(space *scratch.Space, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{Space: space, Log: logger}
}

// Wrap returns a Body that decompresses a compressed infile into scratch,
// lets body write an uncompressed scratch outfile when the real outfile is
// compressed, and compresses that result into place. Scratch files are
// released on every path. Without compression suffixes body is called as is.
func (a *Adapter) Wrap(body Body) Body {
	return func(ctx context.Context, infile, outfile string) (err error) {
		inCodec, inCompressed := Detect(infile)
		outCodec, outCompressed := Detect(outfile)
		if !inCompressed && !outCompressed {
			return body(ctx, infile, outfile)
		}

		var held []*scratch.Resource
		defer func() {
			err = scratch.Join(err, scratch.ReleaseAll(a.Log, held...))
		}()

		plainIn := infile
		if inCompressed {
			res, err := a.Space.File(InnerExt(infile))
			if err != nil {
				return err
			}
			held = append(held, res)
			a.Log.Printf("[compress] decompressing %s (%s) to %s", infile, inCodec.Name, res.Path())
			if err := Decompress(inCodec, infile, res.Path()); err != nil {
				return err
			}
			plainIn = res.Path()
		}

		plainOut := outfile
		if outCompressed {
			res, err := a.Space.File(InnerExt(outfile))
			if err != nil {
				return err
			}
			held = append(held, res)
			plainOut = res.Path()
		}

		if err := body(ctx, plainIn, plainOut); err != nil {
			return err
		}

		if outCompressed {
			a.Log.Printf("[compress] compressing %s (%s) to %s", plainOut, outCodec.Name, outfile)
			if err := Compress(outCodec, plainOut, outfile); err != nil {
				return err
			}
		}
		return nil
	}
}
