package extract

import (
	"archive/tar"
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/blake3"

	"github.com/kdrayer/unnest/internal/stats"
)

// Extractor unpacks individual archives. It is safe for sequential use
// only; the runner drives it from a single goroutine.
type Extractor struct {
	Stats  *stats.Collector
	Log    *slog.Logger
	Digest bool // log a BLAKE3 digest for every extracted regular file
}

// NewExtractor creates an Extractor with the given collector and logger.
func NewExtractor(collector *stats.Collector, log *slog.Logger) *Extractor {
	if collector == nil {
		collector = stats.NewCollector()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{Stats: collector, Log: log}
}

// ExtractTarLike streams archivePath into destDir. Compression is
// auto-detected from the gzip magic bytes, so .tar, .tgz and .tar.gz
// all go through here.
//
// Extraction is two-phase: first every member name is validated with
// SafeMemberPath, rejecting the whole archive before anything is
// written; then members are materialized in archive order. Only regular
// files and directories are created — symlinks, hardlinks and device
// nodes are skipped with a notice, since a link created mid-extraction
// could redirect later members outside destDir. Archive ownership and
// permission bits are never applied.
func (e *Extractor) ExtractTarLike(archivePath, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create destination %s: %w", destDir, err)
	}

	// Phase 1: validate every member path before any write.
	if err := e.validateMembers(archivePath, destDir); err != nil {
		return err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	r, err := archiveReader(f)
	if err != nil {
		return fmt.Errorf("read archive %s: %w", archivePath, err)
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive %s: %w", archivePath, err)
		}

		out, err := SafeMemberPath(destDir, hdr.Name)
		if err != nil {
			// Already validated in phase 1; a mismatch here means the
			// file changed underneath us.
			return fmt.Errorf("archive %s: %w", archivePath, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(out, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", out, err)
			}
			e.Stats.AddDirsCreated(1)

		case tar.TypeReg:
			if err := e.writeMember(tr, out); err != nil {
				return fmt.Errorf("archive %s: %w", archivePath, err)
			}

		case tar.TypeSymlink, tar.TypeLink, tar.TypeChar, tar.TypeBlock, tar.TypeFifo:
			e.Log.Info("skipping special member", "archive", archivePath, "member", hdr.Name, "type", memberTypeName(hdr.Typeflag))
			e.Stats.AddMembersSkipped(1)

		default:
			e.Log.Info("skipping non-regular member", "archive", archivePath, "member", hdr.Name)
			e.Stats.AddMembersSkipped(1)
		}
	}
}

// validateMembers walks the archive's headers without writing anything,
// failing on the first unsafe member name.
func (e *Extractor) validateMembers(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	r, err := archiveReader(f)
	if err != nil {
		return fmt.Errorf("read archive %s: %w", archivePath, err)
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive %s: %w", archivePath, err)
		}
		if _, err := SafeMemberPath(destDir, hdr.Name); err != nil {
			return fmt.Errorf("rejecting %s: %w", archivePath, err)
		}
	}
}

// writeMember streams one regular-file member to out, creating parent
// directories and overwriting any existing file. Default creation
// permissions are used regardless of the archive's mode bits.
func (e *Extractor) writeMember(src io.Reader, out string) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create parent for %s: %w", out, err)
	}

	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}

	var (
		w      io.Writer = dst
		hasher *blake3.Hasher
	)
	if e.Digest {
		hasher = blake3.New()
		w = io.MultiWriter(dst, hasher)
	}

	n, err := io.Copy(w, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	e.Stats.AddFilesWritten(1)
	e.Stats.AddBytesWritten(n)
	if hasher != nil {
		e.Log.Info("extracted", "path", out, "bytes", n, "blake3", hex.EncodeToString(hasher.Sum(nil)))
	}
	return nil
}

// archiveReader wraps f with gzip decompression when the stream starts
// with the gzip magic, else returns the buffered plain stream.
func archiveReader(f *os.File) (io.Reader, error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, zerr := gzip.NewReader(br)
		if zerr != nil {
			return nil, zerr
		}
		return zr, nil
	}
	return br, nil
}

func memberTypeName(flag byte) string {
	switch flag {
	case tar.TypeSymlink:
		return "symlink"
	case tar.TypeLink:
		return "hardlink"
	case tar.TypeChar:
		return "char device"
	case tar.TypeBlock:
		return "block device"
	case tar.TypeFifo:
		return "fifo"
	default:
		return "unknown"
	}
}
