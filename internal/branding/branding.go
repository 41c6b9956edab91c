// Package branding provides compile-time identity values for the CLI.
//
// Forkers edit branding.yaml in this package, then rebuild. Go's //go:embed
// bakes the values into the binary, so a rebranded distribution needs no
// runtime configuration.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName         string `yaml:"cli_name"`
	DisplayName     string `yaml:"display_name"`
	Description     string `yaml:"description"`
	HomeDir         string `yaml:"home_dir"`
	EnvPrefix       string `yaml:"env_prefix"`
	GoModule        string `yaml:"go_module"`
	GitHubRepo      string `yaml:"github_repo"`
	UpstreamRepoURL string `yaml:"upstream_repo_url"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:         "allhands",
			DisplayName:     "AllHands",
			Description:     "Distributes a shared agent tooling framework across repositories",
			HomeDir:         ".allhands",
			EnvPrefix:       "ALLHANDS",
			GoModule:        "github.com/allhands-labs/allhands",
			GitHubRepo:      "allhands-labs/claude-all-hands",
			UpstreamRepoURL: "https://github.com/allhands-labs/claude-all-hands.git",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "allhands").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name (e.g., "AllHands").
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name used both under $HOME for user
// config and inside consumer repos for state and backups (e.g., ".allhands").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "ALLHANDS").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Used by rebranding scripts, not
// consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// GitHubRepo returns the upstream "owner/repo" string.
func GitHubRepo() string { load(); return defaults.GitHubRepo }

// UpstreamRepoURL returns the default git URL of the upstream template repo.
func UpstreamRepoURL() string { load(); return defaults.UpstreamRepoURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("PATH") →
// "ALLHANDS_PATH".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
