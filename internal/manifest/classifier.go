package manifest

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// PatternError reports a glob pattern that failed to compile, including its
// list and position so the manifest author can find it.
type PatternError struct {
	List    string // list name, e.g. "internal" or "initOnly"
	Index   int    // zero-based position within the list
	Pattern string // pattern text as written (negation marker included)
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("%s[%d]: invalid pattern %q: %v", e.List, e.Index, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// pattern is a single compiled list entry.
type pattern struct {
	raw       string
	negated   bool
	matcher   glob.Glob
	matchBase bool // pattern contains no slash: also match the base name
}

func (pat *pattern) matches(p string) bool {
	if pat.matcher.Match(p) {
		return true
	}
	return pat.matchBase && pat.matcher.Match(path.Base(p))
}

// PatternList is an ordered, negation-aware glob list. A "!" prefix negates
// an entry, inverting a prior match within the list.
type PatternList struct {
	patterns []pattern
}

// CompilePatterns compiles an ordered list of glob entries. listName is used
// only in error reporting. Any malformed entry fails the whole compilation.
func CompilePatterns(listName string, entries []string) (*PatternList, error) {
	patterns := make([]pattern, 0, len(entries))
	for i, entry := range entries {
		text := entry
		negated := false
		if strings.HasPrefix(text, "!") {
			negated = true
			text = text[1:]
		}
		if text == "" {
			return nil, &PatternError{
				List:    listName,
				Index:   i,
				Pattern: entry,
				Err:     fmt.Errorf("empty pattern"),
			}
		}

		matcher, err := glob.Compile(text, '/')
		if err != nil {
			return nil, &PatternError{List: listName, Index: i, Pattern: entry, Err: err}
		}

		patterns = append(patterns, pattern{
			raw:       entry,
			negated:   negated,
			matcher:   matcher,
			matchBase: !strings.Contains(text, "/"),
		})
	}
	return &PatternList{patterns: patterns}, nil
}

// Match scans the list in order and tracks the polarity of the last entry
// that matched. Implemented as a single ordered scan: splitting into separate
// positive/negative sets would lose ordering and break exception carve-outs.
func (l *PatternList) Match(relPath string) bool {
	p := normalize(relPath)
	matched := false
	for i := range l.patterns {
		if l.patterns[i].matches(p) {
			matched = !l.patterns[i].negated
		}
	}
	return matched
}

// Empty reports whether the list has no entries.
func (l *PatternList) Empty() bool { return len(l.patterns) == 0 }

// Classifier classifies relative paths against a loaded manifest. It is
// immutable after construction and safe for concurrent use.
type Classifier struct {
	internal *PatternList
	initOnly *PatternList
}

// NewClassifier compiles the manifest's pattern lists. Any malformed glob
// fails the whole construction; no partial classifier is returned.
func NewClassifier(m *Manifest) (*Classifier, error) {
	internal, err := CompilePatterns("internal", m.Internal)
	if err != nil {
		return nil, err
	}
	initOnly, err := CompilePatterns("initOnly", m.InitOnly)
	if err != nil {
		return nil, err
	}
	return &Classifier{internal: internal, initOnly: initOnly}, nil
}

// Classify returns the distribution class for a path relative to the source
// root. Internal always wins; within initOnly the last matching pattern's
// polarity decides, so later negated entries carve exceptions out of earlier
// broad ones.
func (c *Classifier) Classify(relPath string) Classification {
	if c.internal.Match(relPath) {
		return Internal
	}
	if c.initOnly.Match(relPath) {
		return InitOnly
	}
	return Distributable
}

// normalize converts OS-specific separators to slashes and trims any leading
// "./" so patterns always see clean relative paths.
func normalize(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	return p
}
