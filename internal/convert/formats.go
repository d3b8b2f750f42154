package convert

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/ShayCichocki/bioconvert/internal/compress"
)

// Format represents a supported data format.
type Format struct {
	// Name is the upper-case identifier used in conversion names
	Name string
	// Extensions recognized for this format (including the dot)
	Extensions []string
	// Human-readable description
	Description string
}

// Supported formats
var (
	BIGBED = Format{
		Name:        "BIGBED",
		Extensions:  []string{".bb", ".bigbed"},
		Description: "indexed binary BED intervals",
	}

	WIGGLE = Format{
		Name:        "WIGGLE",
		Extensions:  []string{".wig", ".wiggle"},
		Description: "dense continuous signal track",
	}

	BPLINK = Format{
		Name:        "BPLINK",
		Extensions:  []string{".bed"}, // with .bim and .fam siblings
		Description: "binary PLINK genotypes (bed/bim/fam)",
	}

	PLINK = Format{
		Name:        "PLINK",
		Extensions:  []string{".ped"}, // with a .map sibling
		Description: "text PLINK genotypes (ped/map)",
	}

	GZ = Format{
		Name:        "GZ",
		Extensions:  []string{".gz"},
		Description: "gzip archive",
	}

	BZ2 = Format{
		Name:        "BZ2",
		Extensions:  []string{".bz2"},
		Description: "bzip2 archive",
	}

	PHYLIP = Format{
		Name:        "PHYLIP",
		Extensions:  []string{".phylip", ".phy"},
		Description: "PHYLIP alignment (sequential or interleaved)",
	}

	CLUSTAL = Format{
		Name:        "CLUSTAL",
		Extensions:  []string{".clustal", ".aln", ".clw"},
		Description: "CLUSTAL alignment",
	}

	NEXUS = Format{
		Name:        "NEXUS",
		Extensions:  []string{".nexus", ".nex", ".nx"},
		Description: "NEXUS data block",
	}

	FASTA = Format{
		Name:        "FASTA",
		Extensions:  []string{".fasta", ".fa", ".fas", ".fna", ".faa"},
		Description: "FASTA sequences",
	}
)

// AllFormats returns all supported formats
func AllFormats() []Format {
	return []Format{BIGBED, WIGGLE, BPLINK, PLINK, GZ, BZ2, PHYLIP, CLUSTAL, NEXUS, FASTA}
}

// FormatByName returns the format with the given name, case-insensitively.
func FormatByName(name string) (Format, bool) {
	for _, f := range AllFormats() {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Format{}, false
}

// FormatsForPath returns every format the path's extension could denote. A
// compressed path matches both its compression format and the format of the
// inner extension ("x.phylip.gz" gives GZ and PHYLIP).
func FormatsForPath(path string) []Format {
	exts := []string{strings.ToLower(filepath.Ext(path))}
	if _, ok := compress.Detect(path); ok {
		exts = append(exts, strings.ToLower(compress.InnerExt(path)))
	}

	seen := make(map[string]bool)
	var out []Format
	for _, ext := range exts {
		if ext == "" {
			continue
		}
		for _, f := range AllFormats() {
			if seen[f.Name] {
				continue
			}
			for _, e := range f.Extensions {
				if e == ext {
					out = append(out, f)
					seen[f.Name] = true
					break
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
