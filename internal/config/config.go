package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/allhands-labs/allhands/internal/branding"
	"github.com/spf13/viper"
)

// keyReplacer maps config keys onto environment variable names, so
// upstream.path reads ALLHANDS_UPSTREAM_PATH.
var keyReplacer = strings.NewReplacer(".", "_")

const (
	fileName = "config"
	fileType = "yaml"
)

// Well-known configuration keys. Environment overrides use the brand prefix
// with dots replaced (e.g. ALLHANDS_UPSTREAM_PATH).
const (
	KeyUpstreamPath   = "upstream.path"    // local checkout of the template repo
	KeyUpstreamRemote = "upstream.remote"  // remote name in that checkout
	KeyPushBaseBranch = "push.base_branch" // branch pull requests target
)

// Dir returns the path to the AllHands config directory (~/.allhands/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.allhands/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(keyReplacer)
	viper.AutomaticEnv()

	viper.SetDefault(KeyUpstreamRemote, "origin")
	viper.SetDefault(KeyPushBaseBranch, "main")

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// UpstreamPath resolves the template repository checkout. An empty value
// means the user has not run configuration yet; callers turn that into a
// usage error with the key name.
func UpstreamPath() string {
	return Get(KeyUpstreamPath)
}
