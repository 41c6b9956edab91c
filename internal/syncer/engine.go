package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/allhands-labs/allhands/internal/fsutil"
	"github.com/allhands-labs/allhands/internal/manifest"
	"github.com/allhands-labs/allhands/internal/vcs"
)

// ErrConflicts is returned alongside a full SyncResult when --strict is set
// and at least one local modification was detected.
var ErrConflicts = errors.New("local modifications conflict with incoming changes")

// backupTimestampLayout names one backup set per run.
const backupTimestampLayout = "20060102-150405"

// Engine distributes files from an upstream source tree into target repos.
type Engine struct {
	sourceRoot string
	classifier *manifest.Classifier
	gateway    vcs.Gateway
	now        func() time.Time
}

// New creates a sync engine. The classifier decides inclusion; the gateway
// is only consulted for upstream repository state, never mutated.
func New(sourceRoot string, classifier *manifest.Classifier, gateway vcs.Gateway) *Engine {
	return &Engine{
		sourceRoot: sourceRoot,
		classifier: classifier,
		gateway:    gateway,
		now:        time.Now,
	}
}

// Run enumerates the source tree, classifies every file, and writes the kept
// set into opts.TargetRoot. Individual file failures are recorded in the
// result and do not abort the batch; only configuration-level problems (an
// unreadable source tree or corrupt sync state) fail the run before any
// mutation.
func (e *Engine) Run(ctx context.Context, opts Options) (*SyncResult, error) {
	if _, err := os.Stat(opts.TargetRoot); err != nil {
		return nil, fmt.Errorf("target %s: %w", opts.TargetRoot, err)
	}

	files, err := fsutil.EnumerateFiles(e.sourceRoot)
	if err != nil {
		return nil, fmt.Errorf("enumerating source tree: %w", err)
	}

	prevState, err := LoadState(opts.TargetRoot)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{SourceCommit: e.sourceCommit(ctx)}
	newState := &State{
		SourceCommit: result.SourceCommit,
		Files:        make(map[string]string),
	}

	backupDir := filepath.Join(BackupRoot(opts.TargetRoot), e.now().UTC().Format(backupTimestampLayout))

	for _, rel := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		switch e.classifier.Classify(rel) {
		case manifest.Internal:
			result.Skipped = append(result.Skipped, SkippedFile{Path: rel, Reason: ReasonInternal})
			continue
		case manifest.InitOnly:
			if !opts.Init {
				result.Skipped = append(result.Skipped, SkippedFile{Path: rel, Reason: ReasonInitOnly})
				continue
			}
		}

		e.syncFile(rel, backupDir, opts, prevState, newState, result)
	}

	if opts.DryRun {
		return result, nil
	}

	if opts.Init {
		if created, err := EnsureIgnoreFile(opts.TargetRoot); err != nil {
			result.Errors = append(result.Errors, FileError{Path: manifest.IgnoreFileName, Err: err})
		} else if created {
			result.Written = append(result.Written, manifest.IgnoreFileName)
		}
	}

	if err := SaveState(opts.TargetRoot, newState); err != nil {
		return result, err
	}

	if opts.Strict && len(result.Conflicts) > 0 {
		return result, ErrConflicts
	}
	return result, nil
}

// syncFile handles a single kept path: conflict detection, backup, write.
// Failures are recorded on result; the caller moves on to the next file.
func (e *Engine) syncFile(rel, backupDir string, opts Options, prevState, newState *State, result *SyncResult) {
	srcPath := filepath.Join(e.sourceRoot, filepath.FromSlash(rel))
	dstPath := filepath.Join(opts.TargetRoot, filepath.FromSlash(rel))

	srcData, err := os.ReadFile(srcPath)
	if err != nil {
		result.Errors = append(result.Errors, FileError{Path: rel, Err: fmt.Errorf("reading source: %w", err)})
		return
	}
	incomingHash := fsutil.HashBytes(srcData)

	dstData, err := os.ReadFile(dstPath)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		result.Errors = append(result.Errors, FileError{Path: rel, Err: fmt.Errorf("reading target: %w", err)})
		carryOver(rel, prevState, newState)
		return
	}

	if exists {
		localHash := fsutil.HashBytes(dstData)

		// Identical content is neither a write nor a conflict.
		if localHash == incomingHash {
			result.Skipped = append(result.Skipped, SkippedFile{Path: rel, Reason: ReasonIdentical})
			newState.Files[rel] = incomingHash
			return
		}

		// The baseline is the snapshot of the last sync; without one, the
		// incoming content itself. Any target difference not explained by
		// the incoming change is a local edit.
		baseline, tracked := prevState.Files[rel]
		if !tracked {
			baseline = incomingHash
		}
		if localHash != baseline {
			resolution := ResolutionReplaced
			if opts.DryRun {
				resolution = ResolutionPlanned
			}
			result.Conflicts = append(result.Conflicts, ConflictRecord{
				Path:         rel,
				LocalHash:    localHash,
				IncomingHash: incomingHash,
				Resolution:   resolution,
			})
		}

		if !opts.DryRun {
			// Copy-then-write, scoped per file: a failed backup keeps the
			// local file untouched and the batch moving.
			backupPath := filepath.Join(backupDir, filepath.FromSlash(rel))
			if err := fsutil.CopyFile(dstPath, backupPath); err != nil {
				result.Errors = append(result.Errors, FileError{Path: rel, Err: fmt.Errorf("backing up: %w", err)})
				carryOver(rel, prevState, newState)
				return
			}
			result.Backups = append(result.Backups, BackupEntry{
				OriginalPath: rel,
				BackupPath:   backupPath,
				Timestamp:    e.now().UTC(),
			})
			result.BackupDir = backupDir
		}
	}

	if opts.DryRun {
		result.Written = append(result.Written, rel)
		return
	}

	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		result.Errors = append(result.Errors, FileError{Path: rel, Err: fmt.Errorf("stating source: %w", err)})
		carryOver(rel, prevState, newState)
		return
	}
	if err := fsutil.WriteFileAtomic(dstPath, srcData, srcInfo.Mode()); err != nil {
		result.Errors = append(result.Errors, FileError{Path: rel, Err: fmt.Errorf("writing target: %w", err)})
		carryOver(rel, prevState, newState)
		return
	}

	result.Written = append(result.Written, rel)
	newState.Files[rel] = incomingHash
}

// sourceCommit resolves the upstream HEAD when the source root is a git
// repository. Best effort: a plain directory source is fine.
func (e *Engine) sourceCommit(ctx context.Context) string {
	if e.gateway == nil || !e.gateway.IsRepository(e.sourceRoot) {
		return ""
	}
	commit, err := e.gateway.HeadCommit(ctx, e.sourceRoot)
	if err != nil {
		return ""
	}
	return commit
}

// carryOver keeps the previous snapshot hash for a file this run failed to
// update, so the next sync still has a conflict baseline.
func carryOver(rel string, prevState, newState *State) {
	if hash, ok := prevState.Files[rel]; ok {
		newState.Files[rel] = hash
	}
}
