package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Collector tracks extraction statistics using atomic counters.
type Collector struct {
	archivesExtracted atomic.Int64
	archivesFailed    atomic.Int64
	filesGunzipped    atomic.Int64
	filesWritten      atomic.Int64
	bytesWritten      atomic.Int64
	dirsCreated       atomic.Int64
	membersSkipped    atomic.Int64
	passesRun         atomic.Int64
	startTime         time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	ArchivesExtracted int64
	ArchivesFailed    int64
	FilesGunzipped    int64
	FilesWritten      int64
	BytesWritten      int64
	DirsCreated       int64
	MembersSkipped    int64
	PassesRun         int64
	Elapsed           time.Duration
}

func (c *Collector) AddArchivesExtracted(n int64) { c.archivesExtracted.Add(n) }
func (c *Collector) AddArchivesFailed(n int64)    { c.archivesFailed.Add(n) }
func (c *Collector) AddFilesGunzipped(n int64)    { c.filesGunzipped.Add(n) }
func (c *Collector) AddFilesWritten(n int64)      { c.filesWritten.Add(n) }
func (c *Collector) AddBytesWritten(n int64)      { c.bytesWritten.Add(n) }
func (c *Collector) AddDirsCreated(n int64)       { c.dirsCreated.Add(n) }
func (c *Collector) AddMembersSkipped(n int64)    { c.membersSkipped.Add(n) }
func (c *Collector) AddPassesRun(n int64)         { c.passesRun.Add(n) }

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		ArchivesExtracted: c.archivesExtracted.Load(),
		ArchivesFailed:    c.archivesFailed.Load(),
		FilesGunzipped:    c.filesGunzipped.Load(),
		FilesWritten:      c.filesWritten.Load(),
		BytesWritten:      c.bytesWritten.Load(),
		DirsCreated:       c.dirsCreated.Load(),
		MembersSkipped:    c.membersSkipped.Load(),
		PassesRun:         c.passesRun.Load(),
		Elapsed:           c.Elapsed(),
	}
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"archives=%d failed=%d gunzipped=%d files=%d bytes=%d dirs=%d skipped=%d passes=%d",
		s.ArchivesExtracted, s.ArchivesFailed, s.FilesGunzipped, s.FilesWritten,
		s.BytesWritten, s.DirsCreated, s.MembersSkipped, s.PassesRun,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
