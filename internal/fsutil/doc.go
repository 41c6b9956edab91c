// Package fsutil provides the small filesystem primitives shared by the
// sync and push engines: deterministic tree enumeration, content hashing,
// and atomic file writes.
package fsutil
