package extract

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// DoneFileName is the completion log kept inside the output directory.
// One absolute resolved path per line; append-only. Deleting it forces
// full re-processing on the next run.
const DoneFileName = ".safe_recursive_extract.done"

// DoneSet is the set of archive paths already processed, mirrored to an
// append-only log file so repeated invocations are incremental. Entries
// are added once and never pruned.
type DoneSet struct {
	path string
	seen map[string]struct{}
}

// LoadDoneSet reads the completion log at path, returning an empty set
// if the file does not exist.
func LoadDoneSet(path string) (*DoneSet, error) {
	ds := &DoneSet{
		path: path,
		seen: make(map[string]struct{}),
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ds, nil
		}
		return nil, fmt.Errorf("open completion log: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			ds.seen[line] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read completion log: %w", err)
	}
	return ds, nil
}

// Contains reports whether path has already been processed.
func (ds *DoneSet) Contains(path string) bool {
	_, ok := ds.seen[path]
	return ok
}

// Mark records path as processed, appending it to the log file. Marking
// an already-present path is a no-op.
func (ds *DoneSet) Mark(path string) error {
	if ds.Contains(path) {
		return nil
	}

	f, err := os.OpenFile(ds.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open completion log for append: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, path); err != nil {
		return fmt.Errorf("append completion log: %w", err)
	}
	ds.seen[path] = struct{}{}
	return nil
}

// Len returns the number of recorded paths.
func (ds *DoneSet) Len() int {
	return len(ds.seen)
}

// Path returns the location of the on-disk log.
func (ds *DoneSet) Path() string {
	return ds.path
}
