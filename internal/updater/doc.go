// Package updater checks GitHub Releases for newer versions of the allhands
// binary. A daily-cached version check powers the startup banner; the banner
// points at the releases page rather than replacing the running executable.
package updater
