package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the consumer-side ignore file. Paths matching its
// patterns are kept out of upstream contributions.
const IgnoreFileName = ".allhandsignore"

// LoadIgnoreFile reads repoRoot's ignore file and compiles its patterns.
// Comment lines (#) and blank lines are skipped; a missing file yields an
// empty list. Negated entries re-include paths, last match wins.
func LoadIgnoreFile(repoRoot string) (*PatternList, error) {
	path := filepath.Join(repoRoot, IgnoreFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &PatternList{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", IgnoreFileName, err)
	}

	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}

	list, err := CompilePatterns(IgnoreFileName, entries)
	if err != nil {
		return nil, err
	}
	return list, nil
}
