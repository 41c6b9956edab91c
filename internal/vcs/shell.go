package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ShellGateway implements Gateway by shelling out to the git and gh binaries.
type ShellGateway struct {
	gitBin string
	ghBin  string
}

// NewShellGateway creates a gateway using the git and gh binaries on PATH.
func NewShellGateway() *ShellGateway {
	return &ShellGateway{gitBin: "git", ghBin: "gh"}
}

// RunGit executes git with the given arguments in cwd.
func (g *ShellGateway) RunGit(ctx context.Context, cwd string, args ...string) (Result, error) {
	return g.run(ctx, cwd, g.gitBin, args...)
}

// RunGH executes the GitHub CLI with the given arguments in cwd.
func (g *ShellGateway) RunGH(ctx context.Context, cwd string, args ...string) (Result, error) {
	if _, err := exec.LookPath(g.ghBin); err != nil {
		return Result{}, &GatewayError{
			Args: append([]string{g.ghBin}, args...),
			Err:  fmt.Errorf("gh CLI not found on PATH: %w", err),
		}
	}
	return g.run(ctx, cwd, g.ghBin, args...)
}

func (g *ShellGateway) run(ctx context.Context, cwd, bin string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Success: err == nil,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err != nil {
		return res, &GatewayError{
			Args:   append([]string{bin}, args...),
			Stderr: res.Stderr,
			Err:    err,
		}
	}
	return res, nil
}

// CurrentBranch returns the checked-out branch name. Detached HEAD and
// unborn repositories yield "" without an error.
func (g *ShellGateway) CurrentBranch(ctx context.Context, path string) (string, error) {
	res, err := g.RunGit(ctx, path, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", nil
	}
	branch := strings.TrimSpace(res.Stdout)
	if branch == "HEAD" {
		return "", nil // detached
	}
	return branch, nil
}

// HeadCommit returns the commit hash of HEAD.
func (g *ShellGateway) HeadCommit(ctx context.Context, path string) (string, error) {
	res, err := g.RunGit(ctx, path, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// IsRepository reports whether path is inside a git working tree.
func (g *ShellGateway) IsRepository(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	res, err := g.RunGit(context.Background(), path, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(res.Stdout) == "true"
}

// RemoteURL returns the URL of the named remote.
func (g *ShellGateway) RemoteURL(ctx context.Context, path, remote string) (string, error) {
	res, err := g.RunGit(ctx, path, "remote", "get-url", remote)
	if err != nil {
		return "", fmt.Errorf("resolving remote %q: %w", remote, err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// CheckIgnore returns the subset of candidates matched by the repository's
// ignore rules. git exits 1 when nothing matches, which is not a failure.
func (g *ShellGateway) CheckIgnore(ctx context.Context, path string, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, g.gitBin, "check-ignore", "--stdin")
	cmd.Dir = path
	cmd.Stdin = strings.NewReader(strings.Join(candidates, "\n") + "\n")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		// Exit status 1 means no paths are ignored.
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, &GatewayError{
			Args:   []string{g.gitBin, "check-ignore", "--stdin"},
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	var ignored []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ignored = append(ignored, line)
		}
	}
	return ignored, nil
}
