// Package compress detects compressed inputs and outputs by suffix and lets a
// conversion method work on uncompressed scratch copies.
package compress

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"

	"github.com/ShayCichocki/bioconvert/internal/deps"
	"github.com/ShayCichocki/bioconvert/internal/scratch"
)

// LibraryName is the dependency name of the in-process codecs.
const LibraryName = "compress"

func init() {
	deps.RegisterLibrary(LibraryName)
}

// Codec describes one compression format.
type Codec struct {
	Name      string
	Suffix    string
	NewReader func(r io.Reader) (io.ReadCloser, error)
	NewWriter func(w io.Writer) (io.WriteCloser, error)
}

// Gzip is the .gz codec.
var Gzip = Codec{
	Name:   "gzip",
	Suffix: ".gz",
	NewReader: func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	},
	NewWriter: func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriter(w), nil
	},
}

// Bzip2 is the .bz2 codec.
var Bzip2 = Codec{
	Name:   "bzip2",
	Suffix: ".bz2",
	NewReader: func(r io.Reader) (io.ReadCloser, error) {
		return bzip2.NewReader(r, nil)
	},
	NewWriter: func(w io.Writer) (io.WriteCloser, error) {
		return bzip2.NewWriter(w, nil)
	},
}

// Codecs lists the supported compression formats.
var Codecs = []Codec{Gzip, Bzip2}

// Detect returns the codec matching the suffix of path.
func Detect(path string) (Codec, bool) {
	lower := strings.ToLower(path)
	for _, c := range Codecs {
		if strings.HasSuffix(lower, c.Suffix) {
			return c, true
		}
	}
	return Codec{}, false
}

// Strip removes a compression suffix from path, if any.
func Strip(path string) string {
	if c, ok := Detect(path); ok {
		return path[:len(path)-len(c.Suffix)]
	}
	return path
}

// InnerExt returns the extension of path once any compression suffix is
// removed ("x.phylip.gz" gives ".phylip").
func InnerExt(path string) string {
	return filepath.Ext(Strip(path))
}

// Decompress writes the decompressed content of src, encoded with c, to dst.
// dst is only created once the whole stream decoded.
func Decompress(c Codec, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := c.NewReader(in)
	if err != nil {
		return fmt.Errorf("open %s stream %s: %w", c.Name, src, err)
	}
	defer zr.Close()

	return scratch.WriteFile(dst, func(w io.Writer) error {
		if _, err := io.Copy(w, zr); err != nil {
			return fmt.Errorf("decompress %s: %w", src, err)
		}
		return nil
	})
}

// Compress writes src to dst encoded with c.
func Compress(c Codec, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	return scratch.WriteFile(dst, func(w io.Writer) error {
		return encode(c, w, in, dst)
	})
}

// Recompress converts src from one codec to another in a single stream.
func Recompress(from, to Codec, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	zr, err := from.NewReader(in)
	if err != nil {
		return fmt.Errorf("open %s stream %s: %w", from.Name, src, err)
	}
	defer zr.Close()

	return scratch.WriteFile(dst, func(w io.Writer) error {
		if err := encode(to, w, zr, dst); err != nil {
			return fmt.Errorf("recompress %s: %w", src, err)
		}
		return nil
	})
}

func encode(c Codec, w io.Writer, r io.Reader, dst string) error {
	zw, err := c.NewWriter(w)
	if err != nil {
		return fmt.Errorf("open %s writer %s: %w", c.Name, dst, err)
	}
	if _, err := io.Copy(zw, r); err != nil {
		zw.Close()
		return fmt.Errorf("compress %s: %w", dst, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", dst, err)
	}
	return nil
}
