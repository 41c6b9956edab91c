// Package config manages user-level settings stored at ~/.allhands/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the local path of the upstream template checkout used by sync and push.
package config
