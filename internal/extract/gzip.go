package extract

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/blake3"
)

// DecompressPlainGzip decompresses a single-stream gzip file into
// destDir, naming the output by stripping the .gz suffix. An existing
// target is never overwritten; a numerically suffixed alternate is
// chosen instead. Returns the written path.
func (e *Extractor) DecompressPlainGzip(srcPath, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create destination %s: %w", destDir, err)
	}

	base := filepath.Base(srcPath)
	if strings.HasSuffix(strings.ToLower(base), ".gz") {
		base = base[:len(base)-3]
	}
	out := UniquePath(filepath.Join(destDir, base))

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", srcPath, err)
	}
	defer src.Close()

	zr, err := gzip.NewReader(src)
	if err != nil {
		return "", fmt.Errorf("gunzip %s: %w", srcPath, err)
	}
	defer zr.Close()

	dst, err := os.OpenFile(out, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", out, err)
	}

	var (
		w      io.Writer = dst
		hasher *blake3.Hasher
	)
	if e.Digest {
		hasher = blake3.New()
		w = io.MultiWriter(dst, hasher)
	}

	n, err := io.Copy(w, zr)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("gunzip %s: %w", srcPath, err)
	}

	e.Stats.AddFilesGunzipped(1)
	e.Stats.AddBytesWritten(n)
	if hasher != nil {
		e.Log.Info("gunzipped", "path", out, "bytes", n, "blake3", hex.EncodeToString(hasher.Sum(nil)))
	}
	return out, nil
}
