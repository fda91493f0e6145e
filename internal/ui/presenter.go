// Package ui renders extraction progress and assembles log handlers.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/kdrayer/unnest/internal/extract"
	"github.com/kdrayer/unnest/internal/stats"
)

// Presenter receives runner progress and produces the final summary.
type Presenter interface {
	extract.Reporter
	// Summary returns the final summary line, empty if suppressed.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer io.Writer
	Quiet  bool
}

// New creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func New(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{}
	}
	return &plainPresenter{w: cfg.Writer}
}

// plainPresenter prints one line per processed archive to stdout.
type plainPresenter struct {
	w    io.Writer
	snap stats.Snapshot
}

func (p *plainPresenter) TopLevel(src, dest string, kind extract.Kind) {
	verb := "extract"
	if kind == extract.PlainGzip {
		verb = "gunzip"
	}
	fmt.Fprintf(p.w, "%s top: %s -> %s\n", verb, src, dest)
}

func (p *plainPresenter) PassStarted(depth, maxDepth int) {
	fmt.Fprintf(p.w, "pass %d/%d: scanning for nested archives\n", depth, maxDepth)
}

func (p *plainPresenter) Extracting(src, dest string) {
	fmt.Fprintf(p.w, "  extract: %s -> %s\n", src, dest)
}

func (p *plainPresenter) Gunzipping(src, dest string) {
	fmt.Fprintf(p.w, "  gunzip:  %s -> %s\n", src, dest)
}

func (p *plainPresenter) Done(snap stats.Snapshot) {
	p.snap = snap
}

func (p *plainPresenter) Summary() string {
	s := p.snap
	line := fmt.Sprintf("processed %d archives (%d files, %s) in %s",
		s.ArchivesExtracted, s.FilesWritten+s.FilesGunzipped,
		stats.FormatBytes(s.BytesWritten), s.Elapsed.Round(10*time.Millisecond))
	if s.ArchivesFailed > 0 {
		line += fmt.Sprintf(", %d failed", s.ArchivesFailed)
	}
	if s.MembersSkipped > 0 {
		line += fmt.Sprintf(", %d members skipped", s.MembersSkipped)
	}
	return line
}

// quietPresenter produces no output.
type quietPresenter struct{}

func (quietPresenter) TopLevel(string, string, extract.Kind) {}
func (quietPresenter) PassStarted(int, int)                  {}
func (quietPresenter) Extracting(string, string)             {}
func (quietPresenter) Gunzipping(string, string)             {}
func (quietPresenter) Done(stats.Snapshot)                   {}
func (quietPresenter) Summary() string                       { return "" }
