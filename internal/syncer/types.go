package syncer

import "time"

// Skip reasons reported in SyncResult. Every unkept or unwritten path
// carries one of these so reports account for the whole source tree.
const (
	ReasonInternal  = "internal"
	ReasonInitOnly  = "init-only (requires --init)"
	ReasonIdentical = "identical content"
)

// Resolutions recorded on ConflictRecord.
const (
	ResolutionReplaced = "replaced (backup saved)"
	ResolutionPlanned  = "would replace (dry-run)"
)

// ConflictRecord reports a target file whose content differs from both the
// incoming source bytes and the snapshot of the last sync — a local edit.
type ConflictRecord struct {
	Path         string
	LocalHash    string
	IncomingHash string
	Resolution   string
}

// BackupEntry records one pre-overwrite copy written to the backup directory.
type BackupEntry struct {
	OriginalPath string
	BackupPath   string
	Timestamp    time.Time
}

// SkippedFile is a path excluded from the write set, with the reason.
type SkippedFile struct {
	Path   string
	Reason string
}

// FileError is a per-file I/O failure. It is recorded and the batch
// continues with the next file.
type FileError struct {
	Path string
	Err  error
}

// SyncResult reports the complete outcome of one sync run.
type SyncResult struct {
	Written   []string
	Skipped   []SkippedFile
	Conflicts []ConflictRecord
	Backups   []BackupEntry
	Errors    []FileError

	// SourceCommit is the upstream HEAD at the time of the run, when the
	// source root is a git repository.
	SourceCommit string

	// BackupDir is the timestamped directory backups were written to.
	// Empty when no file needed a backup.
	BackupDir string
}

// Options control a single sync run.
type Options struct {
	TargetRoot string
	Init       bool // include init-only files and scaffold target state
	DryRun     bool // plan and report only, no writes
	Strict     bool // treat any conflict as a run failure after the report
}
