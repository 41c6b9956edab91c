package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigError is a fatal manifest problem: a missing or unreadable
// descriptor, a schema violation, or a malformed glob pattern. Nothing is
// classified, synced, or pushed once a ConfigError is raised.
type ConfigError struct {
	Path   string // descriptor path that failed to load
	Issues []ValidationIssue
	Err    error
}

func (e *ConfigError) Error() string {
	if len(e.Issues) > 0 {
		parts := make([]string, len(e.Issues))
		for i, issue := range e.Issues {
			parts[i] = issue.String()
		}
		return fmt.Sprintf("invalid manifest %s: %s", e.Path, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("invalid manifest %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads the manifest descriptor from sourceRoot, validates it against
// the embedded schema, and compiles a Classifier. The classifier is loaded
// once per invocation and treated as immutable for the run.
func Load(sourceRoot string) (*Classifier, error) {
	descriptorPath := filepath.Join(sourceRoot, FileName)

	data, err := os.ReadFile(descriptorPath)
	if err != nil {
		return nil, &ConfigError{Path: descriptorPath, Err: fmt.Errorf("reading descriptor: %w", err)}
	}

	return Parse(data, descriptorPath)
}

// Parse validates and compiles raw descriptor bytes. The path is used only
// for error reporting.
func Parse(data []byte, descriptorPath string) (*Classifier, error) {
	issues, err := validateDescriptor(data)
	if err != nil {
		return nil, &ConfigError{Path: descriptorPath, Err: err}
	}
	if len(issues) > 0 {
		return nil, &ConfigError{Path: descriptorPath, Issues: issues}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ConfigError{Path: descriptorPath, Err: fmt.Errorf("parsing descriptor: %w", err)}
	}

	c, err := NewClassifier(&m)
	if err != nil {
		return nil, &ConfigError{Path: descriptorPath, Err: err}
	}
	return c, nil
}
