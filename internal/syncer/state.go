package syncer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/allhands-labs/allhands/internal/branding"
)

const (
	// StateFileName is the snapshot file inside the metadata directory.
	StateFileName = "state.json"
	// BackupDirName holds timestamped backup sets inside the metadata directory.
	BackupDirName = "backups"
)

// State is the snapshot of the last successful sync into a target repo:
// the upstream commit and the content hash of every file written. The next
// sync compares target files against these hashes to tell local edits apart
// from upstream changes.
type State struct {
	SourceCommit string            `json:"sourceCommit,omitempty"`
	Files        map[string]string `json:"files"` // relative path -> sha256
}

// StateDir returns the metadata directory inside a target repo
// (e.g. <target>/.allhands).
func StateDir(targetRoot string) string {
	return filepath.Join(targetRoot, branding.HomeDir())
}

// StatePath returns the snapshot file path inside a target repo.
func StatePath(targetRoot string) string {
	return filepath.Join(StateDir(targetRoot), StateFileName)
}

// BackupRoot returns the directory that holds timestamped backup sets.
func BackupRoot(targetRoot string) string {
	return filepath.Join(StateDir(targetRoot), BackupDirName)
}

// LoadState reads the sync snapshot from a target repo. A missing snapshot
// is not an error: it returns an empty state, and conflict detection falls
// back to comparing against incoming content.
func LoadState(targetRoot string) (*State, error) {
	data, err := os.ReadFile(StatePath(targetRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Files: make(map[string]string)}, nil
		}
		return nil, fmt.Errorf("reading sync state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing sync state: %w", err)
	}
	if state.Files == nil {
		state.Files = make(map[string]string)
	}
	return &state, nil
}

// SaveState writes the sync snapshot into the target repo, creating the
// metadata directory if needed.
func SaveState(targetRoot string, state *State) error {
	if err := os.MkdirAll(StateDir(targetRoot), 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling sync state: %w", err)
	}

	if err := os.WriteFile(StatePath(targetRoot), data, 0644); err != nil {
		return fmt.Errorf("writing sync state: %w", err)
	}
	return nil
}
