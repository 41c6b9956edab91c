package syncer

import (
	"os"
	"path/filepath"

	"github.com/allhands-labs/allhands/internal/manifest"
)

// ignoreTemplate seeds a first-time sync with a documented ignore file.
// Patterns added here keep project-specific files out of upstream pushes.
const ignoreTemplate = `# Paths listed here are never contributed upstream by 'allhands push'.
# Uses gitignore-style globs; a leading ! re-includes a path.
#
# Keep here: project-specific agents, skills, commands, and local settings.
# Do NOT add framework bug fixes or reusable improvements - those belong
# upstream where every repository benefits.

# Local settings (never shared)
.claude/settings.local.json

# Example: project-specific agent
# .claude/agents/my-project-specialist.md
`

// EnsureIgnoreFile writes the ignore file template into a target repo if it
// does not already exist. Returns true when the file was created.
func EnsureIgnoreFile(targetRoot string) (bool, error) {
	path := filepath.Join(targetRoot, manifest.IgnoreFileName)

	if _, err := os.Stat(path); err == nil {
		return false, nil // already present, never overwrite
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if err := os.WriteFile(path, []byte(ignoreTemplate), 0644); err != nil {
		return false, err
	}
	return true, nil
}
