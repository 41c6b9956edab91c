package vcs

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// initRepo creates a git repository with identity configured.
func initRepo(t *testing.T, dir string) {
	t.Helper()
	cmds := [][]string{
		{"git", "init", "-b", "main", dir},
		{"git", "-C", dir, "config", "user.email", "test@test.com"},
		{"git", "-C", dir, "config", "user.name", "Test"},
	}
	for _, args := range cmds {
		if out, err := exec.Command(args[0], args[1:]...).CombinedOutput(); err != nil {
			t.Fatalf("%v: %s", err, out)
		}
	}
}

// commitFile writes a file and commits it.
func commitFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	for _, args := range [][]string{
		{"git", "-C", dir, "add", name},
		{"git", "-C", dir, "commit", "-m", "add " + name},
	} {
		if out, err := exec.Command(args[0], args[1:]...).CombinedOutput(); err != nil {
			t.Fatalf("%v: %s", err, out)
		}
	}
}

func TestIsRepository(t *testing.T) {
	g := NewShellGateway()

	repo := t.TempDir()
	initRepo(t, repo)
	if !g.IsRepository(repo) {
		t.Error("expected repository to be detected")
	}

	if g.IsRepository(t.TempDir()) {
		t.Error("plain directory should not be a repository")
	}
	if g.IsRepository(filepath.Join(t.TempDir(), "missing")) {
		t.Error("missing path should not be a repository")
	}
}

func TestCurrentBranchAndHeadCommit(t *testing.T) {
	ctx := context.Background()
	g := NewShellGateway()

	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, "README.md", "hello\n")

	branch, err := g.CurrentBranch(ctx, repo)
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "main" {
		t.Errorf("branch = %q, want main", branch)
	}

	commit, err := g.HeadCommit(ctx, repo)
	if err != nil {
		t.Fatalf("HeadCommit: %v", err)
	}
	if len(commit) != 40 {
		t.Errorf("commit = %q, want 40-char hash", commit)
	}
}

func TestRunGitFailureCarriesStderr(t *testing.T) {
	ctx := context.Background()
	g := NewShellGateway()

	repo := t.TempDir()
	initRepo(t, repo)

	_, err := g.RunGit(ctx, repo, "rev-parse", "--verify", "no-such-ref")
	if err == nil {
		t.Fatal("expected error for unknown ref")
	}
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *GatewayError, got %T", err)
	}
	if gwErr.Error() == "" {
		t.Error("error message should not be empty")
	}
}

func TestCheckIgnore(t *testing.T) {
	ctx := context.Background()
	g := NewShellGateway()

	repo := t.TempDir()
	initRepo(t, repo)
	commitFile(t, repo, ".gitignore", "dist/\n*.log\n")

	ignored, err := g.CheckIgnore(ctx, repo, []string{
		"dist/bundle.js",
		"debug.log",
		"src/app.go",
	})
	if err != nil {
		t.Fatalf("CheckIgnore: %v", err)
	}

	want := map[string]bool{"dist/bundle.js": true, "debug.log": true}
	if len(ignored) != len(want) {
		t.Fatalf("ignored = %v, want %v", ignored, want)
	}
	for _, p := range ignored {
		if !want[p] {
			t.Errorf("unexpected ignored path %q", p)
		}
	}
}

func TestCheckIgnoreNothingMatches(t *testing.T) {
	ctx := context.Background()
	g := NewShellGateway()

	repo := t.TempDir()
	initRepo(t, repo)

	ignored, err := g.CheckIgnore(ctx, repo, []string{"src/app.go"})
	if err != nil {
		t.Fatalf("CheckIgnore: %v", err)
	}
	if len(ignored) != 0 {
		t.Errorf("expected no ignored paths, got %v", ignored)
	}
}

func TestRepoNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"git@github.com:org/widgets.git", "widgets"},
		{"https://github.com/org/widgets", "widgets"},
		{"https://github.com/org/widgets.git/", "widgets"},
		{"widgets", "widgets"},
	}
	for _, tt := range tests {
		if got := RepoNameFromURL(tt.url); got != tt.want {
			t.Errorf("RepoNameFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
