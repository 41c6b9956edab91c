// Package vcs wraps execution of version-control commands (git and gh) and
// returns structured results. The sync and push engines depend only on the
// Gateway interface; ShellGateway is the production implementation that
// shells out. The gateway issues no retries of its own — retry policy, if
// any, belongs to callers.
package vcs
