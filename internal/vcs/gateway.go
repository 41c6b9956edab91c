package vcs

import (
	"context"
	"fmt"
	"strings"
)

// Result is the structured outcome of a single version-control command.
type Result struct {
	Success bool
	Stdout  string
	Stderr  string
}

// GatewayError is a failed version-control command. It carries the command
// line and the underlying stderr text; the message always includes both so
// failures surface verbatim to the user.
type GatewayError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("command %q failed", strings.Join(e.Args, " "))
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Gateway executes version-control operations against a working tree.
// Mutating calls must be issued as a strict sequence; the engines assume
// exclusive access to the repository for the duration of a run.
type Gateway interface {
	// RunGit executes git with the given arguments in cwd.
	RunGit(ctx context.Context, cwd string, args ...string) (Result, error)

	// RunGH executes the GitHub CLI with the given arguments in cwd.
	RunGH(ctx context.Context, cwd string, args ...string) (Result, error)

	// CurrentBranch returns the checked-out branch name, or "" for a
	// detached HEAD or an unborn repository.
	CurrentBranch(ctx context.Context, path string) (string, error)

	// HeadCommit returns the commit hash of HEAD.
	HeadCommit(ctx context.Context, path string) (string, error)

	// IsRepository reports whether path is inside a git working tree.
	IsRepository(path string) bool

	// RemoteURL returns the URL of the named remote.
	RemoteURL(ctx context.Context, path, remote string) (string, error)

	// CheckIgnore returns the subset of candidate paths matched by the
	// repository's own ignore rules.
	CheckIgnore(ctx context.Context, path string, candidates []string) ([]string, error)
}

// RepoNameFromURL extracts the repository name from a git remote URL.
// "git@github.com:org/widgets.git" and "https://github.com/org/widgets"
// both yield "widgets".
func RepoNameFromURL(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	name := url
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		name = url[i+1:]
	}
	return strings.TrimSuffix(name, ".git")
}
