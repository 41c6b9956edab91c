// Package syncer computes and applies the file set distributed from an
// upstream source tree into a consumer repository. It drops internal files,
// ships init-only files on first-time syncs, detects conflicts against the
// snapshot recorded by the previous sync, and backs up every file it
// overwrites. A run always reports partial completion per file rather than
// failing all-or-nothing.
package syncer
