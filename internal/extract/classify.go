// Package extract implements safe recursive extraction of nested
// tar/gzip archives into a contained output directory.
package extract

import (
	"path/filepath"
	"strings"
)

// Kind identifies how a file should be unpacked, derived purely from
// its filename suffix.
type Kind int

const (
	Unsupported Kind = iota
	TarLike          // .tar, .tgz, .tar.gz
	PlainGzip        // .gz but not .tar.gz
)

var kindNames = [...]string{
	Unsupported: "Unsupported",
	TarLike:     "TarLike",
	PlainGzip:   "PlainGzip",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Classify reports the archive kind for path based on its lowercase
// filename suffix. Content is never inspected.
func Classify(path string) Kind {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".tar"),
		strings.HasSuffix(name, ".tgz"),
		strings.HasSuffix(name, ".tar.gz"):
		return TarLike
	case strings.HasSuffix(name, ".gz"):
		return PlainGzip
	default:
		return Unsupported
	}
}
