package extract

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kdrayer/unnest/internal/stats"
)

// TopLevelDirName is the fixed directory under the output root that
// receives the initial archive's contents.
const TopLevelDirName = "top.extracted"

// Reporter receives progress notifications during a run. Calls are
// synchronous, in discovery order.
type Reporter interface {
	TopLevel(src, dest string, kind Kind)
	PassStarted(depth, maxDepth int)
	Extracting(src, dest string)
	Gunzipping(src, dest string)
	Done(snap stats.Snapshot)
}

// Config describes one extraction run.
type Config struct {
	Input     string
	OutputDir string
	MaxDepth  int
	Digest    bool
	Log       *slog.Logger
	Stats     *stats.Collector
	Reporter  Reporter
}

// Runner orchestrates recursive extraction: top-level unpack followed
// by breadth-first discovery passes over the output tree. All work is
// single-threaded.
type Runner struct {
	cfg  Config
	log  *slog.Logger
	st   *stats.Collector
	rep  Reporter
	done *DoneSet

	// Seams for tests to observe or stub individual extractions.
	extractTar func(src, dest string) error
	gunzip     func(src, dest string) (string, error)
}

// NewRunner creates a Runner for cfg, filling in defaults for any nil
// collaborators.
func NewRunner(cfg Config) *Runner {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = nopReporter{}
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 8
	}

	ex := NewExtractor(cfg.Stats, cfg.Log)
	ex.Digest = cfg.Digest

	return &Runner{
		cfg:        cfg,
		log:        cfg.Log,
		st:         cfg.Stats,
		rep:        cfg.Reporter,
		extractTar: ex.ExtractTarLike,
		gunzip:     ex.DecompressPlainGzip,
	}
}

// Run executes the whole extraction. A returned *InputError means the
// input file was missing, not a regular file, or of an unsupported
// type; any other non-nil error is a top-level extraction failure.
// Failures on nested archives found during passes are logged and the
// archive is marked complete so it is never retried.
func (r *Runner) Run() error {
	input, outDir, err := r.resolvePaths()
	if err != nil {
		return err
	}

	r.done, err = LoadDoneSet(filepath.Join(outDir, DoneFileName))
	if err != nil {
		return err
	}

	topDir := filepath.Join(outDir, TopLevelDirName)
	if err := r.runTopLevel(input, topDir); err != nil {
		return err
	}

	for depth := 1; depth <= r.cfg.MaxDepth; depth++ {
		r.rep.PassStarted(depth, r.cfg.MaxDepth)
		newWork, err := r.runPass(outDir)
		if err != nil {
			return err
		}
		r.st.AddPassesRun(1)
		if !newWork {
			r.log.Debug("no new archives found", "pass", depth)
			break
		}
	}

	r.rep.Done(r.st.Snapshot())
	return nil
}

func (r *Runner) resolvePaths() (input, outDir string, err error) {
	info, err := os.Stat(r.cfg.Input)
	if err != nil || !info.Mode().IsRegular() {
		if err == nil {
			err = fmt.Errorf("not a regular file: %s", r.cfg.Input)
		}
		return "", "", &InputError{Err: fmt.Errorf("input file: %w", err)}
	}

	input, err = resolvePath(r.cfg.Input)
	if err != nil {
		return "", "", &InputError{Err: fmt.Errorf("resolve input: %w", err)}
	}

	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}
	outDir, err = resolvePath(r.cfg.OutputDir)
	if err != nil {
		return "", "", fmt.Errorf("resolve output dir: %w", err)
	}
	return input, outDir, nil
}

// runTopLevel processes the initial archive into the fixed top
// directory. Failures here are fatal to the run.
func (r *Runner) runTopLevel(input, topDir string) error {
	if r.done.Contains(input) {
		r.log.Debug("top-level already processed", "input", input)
		return nil
	}

	kind := Classify(input)
	switch kind {
	case TarLike:
		r.rep.TopLevel(input, topDir, kind)
		if err := r.extractTar(input, topDir); err != nil {
			return fmt.Errorf("top-level extract: %w", err)
		}
	case PlainGzip:
		r.rep.TopLevel(input, topDir, kind)
		if _, err := r.gunzip(input, topDir); err != nil {
			return fmt.Errorf("top-level gunzip: %w", err)
		}
	default:
		return &InputError{Err: fmt.Errorf("%w: %s", ErrUnsupportedInput, input)}
	}

	r.st.AddArchivesExtracted(1)
	return r.done.Mark(input)
}

// runPass scans the entire output tree for archives not yet in the
// completion set and processes each into a uniquely named sibling
// directory. Per-archive failures are logged and the archive is marked
// complete anyway so one bad nested archive never blocks its siblings.
// Plain-gzip outputs that are themselves tars are deliberately left for
// the next pass.
func (r *Runner) runPass(outDir string) (bool, error) {
	var candidates []string
	err := filepath.WalkDir(outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			r.log.Warn("scan error", "path", path, "error", err)
			return nil
		}
		if d.Type().IsRegular() && Classify(path) != Unsupported {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("scan output dir: %w", err)
	}

	newWork := false
	for _, src := range candidates {
		if r.done.Contains(src) {
			continue
		}
		newWork = true

		switch Classify(src) {
		case TarLike:
			dest := UniquePath(src + ".extracted")
			r.rep.Extracting(src, dest)
			if err := r.extractTar(src, dest); err != nil {
				r.log.Error("extraction rejected", "archive", src, "error", err)
				r.st.AddArchivesFailed(1)
			} else {
				r.st.AddArchivesExtracted(1)
			}

		case PlainGzip:
			dest := UniquePath(src + ".gunzipped")
			r.rep.Gunzipping(src, dest)
			if _, err := r.gunzip(src, dest); err != nil {
				r.log.Error("gunzip failed", "archive", src, "error", err)
				r.st.AddArchivesFailed(1)
			} else {
				r.st.AddArchivesExtracted(1)
			}
		}

		if err := r.done.Mark(src); err != nil {
			return false, err
		}
	}

	return newWork, nil
}

// resolvePath makes path absolute and resolves symlinks so completion
// log entries are stable across invocations.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

type nopReporter struct{}

func (nopReporter) TopLevel(string, string, Kind) {}
func (nopReporter) PassStarted(int, int)          {}
func (nopReporter) Extracting(string, string)     {}
func (nopReporter) Gunzipping(string, string)     {}
func (nopReporter) Done(stats.Snapshot)           {}
