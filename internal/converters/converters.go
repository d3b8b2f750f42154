// Package converters holds the concrete conversion catalog. Each conversion
// declares its methods, their requirements and the command or library call
// that performs it.
package converters

import (
	"github.com/ShayCichocki/bioconvert/internal/convert"
)

// All returns a fresh copy of every conversion in the catalog.
func All() []*convert.Conversion {
	return []*convert.Conversion{
		BigBedToWiggle(),
		BPlinkToPlink(),
		GzToBz2(),
		PhylipToClustal(),
		PhylipToNexus(),
		FastaToClustal(),
		FastaToPhylip(),
	}
}

// Register installs every conversion into reg.
func Register(reg *convert.Registry) error {
	for _, c := range All() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the whole catalog.
func NewRegistry() *convert.Registry {
	reg := convert.NewRegistry()
	if err := Register(reg); err != nil {
		panic(err)
	}
	return reg
}
