package push

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/allhands-labs/allhands/internal/branding"
	"github.com/allhands-labs/allhands/internal/fsutil"
	"github.com/allhands-labs/allhands/internal/manifest"
	"github.com/allhands-labs/allhands/internal/syncer"
	"github.com/allhands-labs/allhands/internal/vcs"
)

const ignoreFileLabel = manifest.IgnoreFileName

// forkRemote is the remote name used for the user's fork of the upstream
// repository.
const forkRemote = "fork"

// Engine plans and materializes upstream contributions from a consumer repo.
type Engine struct {
	repoRoot     string
	upstreamRoot string
	classifier   *manifest.Classifier
	gateway      vcs.Gateway
	baseBranch   string
}

// New creates a push engine. upstreamRoot is the local checkout of the
// template repository used both as the byte-diff reference and as the
// working tree for branch/commit/PR operations.
func New(repoRoot, upstreamRoot string, classifier *manifest.Classifier, gateway vcs.Gateway, baseBranch string) *Engine {
	if baseBranch == "" {
		baseBranch = "main"
	}
	return &Engine{
		repoRoot:     repoRoot,
		upstreamRoot: upstreamRoot,
		classifier:   classifier,
		gateway:      gateway,
		baseBranch:   baseBranch,
	}
}

// Plan runs the filter pipeline over the consumer repository and returns the
// contribution set. Every enumerated path lands in either Entries or Dropped
// with a reason; nothing is dropped silently.
func (e *Engine) Plan(ctx context.Context, opts PlanOptions) (*Plan, error) {
	include, err := manifest.CompilePatterns("--include", opts.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := manifest.CompilePatterns("--exclude", opts.Exclude)
	if err != nil {
		return nil, err
	}
	ignore, err := manifest.LoadIgnoreFile(e.repoRoot)
	if err != nil {
		return nil, err
	}

	files, err := fsutil.EnumerateFiles(e.repoRoot)
	if err != nil {
		return nil, fmt.Errorf("enumerating repository: %w", err)
	}

	plan := &Plan{}

	// Stage 1: base set. Distributable survives; an include pattern can pull
	// in anything else, except init-only paths, which are consumer-owned
	// configuration and never leak upstream regardless of flags.
	// Stages 2-3 fold in the user's excludes and both layers of ignore rules.
	var candidates []Entry
	for _, rel := range files {
		if isSyncMetadata(rel) {
			plan.Dropped = append(plan.Dropped, Entry{Path: rel, Reason: ReasonSyncMetadata})
			continue
		}

		var base string
		switch e.classifier.Classify(rel) {
		case manifest.InitOnly:
			plan.Dropped = append(plan.Dropped, Entry{Path: rel, Reason: ReasonInitOnly})
			continue
		case manifest.Internal:
			if !include.Match(rel) {
				plan.Dropped = append(plan.Dropped, Entry{Path: rel, Reason: ReasonInternal})
				continue
			}
			base = ReasonIncluded
		default:
			base = ReasonDistributable
		}

		if exclude.Match(rel) {
			plan.Dropped = append(plan.Dropped, Entry{Path: rel, Reason: ReasonExcluded})
			continue
		}
		if ignore.Match(rel) {
			plan.Dropped = append(plan.Dropped, Entry{Path: rel, Reason: ReasonIgnoreFile})
			continue
		}

		candidates = append(candidates, Entry{Path: rel, Reason: base})
	}

	candidates, err = e.applyRepoIgnoreRules(ctx, plan, candidates)
	if err != nil {
		return nil, err
	}

	// Stage 4: byte diff against the upstream reference tree. Identical
	// content has nothing to contribute.
	for _, cand := range candidates {
		diff, err := e.diffAgainstUpstream(cand.Path)
		if err != nil {
			return nil, fmt.Errorf("comparing %s against upstream: %w", cand.Path, err)
		}
		if diff == "" {
			plan.Dropped = append(plan.Dropped, Entry{Path: cand.Path, Reason: ReasonIdentical})
			continue
		}
		plan.Entries = append(plan.Entries, Entry{Path: cand.Path, Reason: cand.Reason + ", " + diff})
	}

	return plan, nil
}

// applyRepoIgnoreRules drops candidates matched by the consumer repository's
// own ignore rules (git check-ignore). A non-repository consumer has none.
func (e *Engine) applyRepoIgnoreRules(ctx context.Context, plan *Plan, candidates []Entry) ([]Entry, error) {
	if e.gateway == nil || !e.gateway.IsRepository(e.repoRoot) || len(candidates) == 0 {
		return candidates, nil
	}

	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.Path
	}
	ignored, err := e.gateway.CheckIgnore(ctx, e.repoRoot, paths)
	if err != nil {
		return nil, fmt.Errorf("consulting repository ignore rules: %w", err)
	}
	ignoredSet := make(map[string]bool, len(ignored))
	for _, p := range ignored {
		ignoredSet[p] = true
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if ignoredSet[c.Path] {
			plan.Dropped = append(plan.Dropped, Entry{Path: c.Path, Reason: ReasonRepoIgnored})
			continue
		}
		kept = append(kept, c)
	}
	return kept, nil
}

// diffAgainstUpstream returns "" for byte-identical content, otherwise the
// reason the candidate survives the diff stage.
func (e *Engine) diffAgainstUpstream(rel string) (string, error) {
	upstreamPath := filepath.Join(e.upstreamRoot, filepath.FromSlash(rel))
	if _, err := os.Stat(upstreamPath); err != nil {
		if os.IsNotExist(err) {
			return ReasonNewFile, nil
		}
		return "", err
	}

	localHash, err := fsutil.HashFile(filepath.Join(e.repoRoot, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	upstreamHash, err := fsutil.HashFile(upstreamPath)
	if err != nil {
		return "", err
	}
	if localHash == upstreamHash {
		return "", nil
	}
	return ReasonModified, nil
}

// isSyncMetadata reports whether rel is state the sync engine wrote into the
// consumer repo: the snapshot, backup sets, and the ignore file itself. None
// of it is framework content.
func isSyncMetadata(rel string) bool {
	if rel == manifest.IgnoreFileName {
		return true
	}
	home := branding.HomeDir()
	return rel == path.Join(home, syncer.StateFileName) ||
		strings.HasPrefix(rel, path.Join(home, syncer.BackupDirName)+"/")
}

// Materialize turns a plan into a pull request: ensure a fork remote exists,
// branch off the base branch in the upstream checkout, stage and commit the
// plan's files, push to the fork, open the PR. The gateway sequence is
// strictly serial; dry-run returns before any gateway call.
//
// Failures after the branch is created are reported with the branch name so
// the user can recover manually. Nothing is rolled back automatically.
func (e *Engine) Materialize(ctx context.Context, plan *Plan, opts MaterializeOptions) (*PullRequestHandle, error) {
	if opts.DryRun || len(plan.Entries) == 0 {
		return nil, nil
	}

	branch, err := e.gateway.CurrentBranch(ctx, e.repoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving current branch: %w", err)
	}
	if branch == "" {
		return nil, fmt.Errorf("repository %s has a detached HEAD; check out a branch before pushing", e.repoRoot)
	}

	repoName := e.repoName(ctx)
	prBranch := repoName + "/" + branch
	title, body := opts.Title, opts.Body
	if title == "" {
		title = fmt.Sprintf("Sync from %s/%s", repoName, branch)
	}
	if body == "" {
		body = fmt.Sprintf("Contributes %d file(s) from %s (branch %s).", len(plan.Entries), repoName, branch)
	}

	if err := e.ensureFork(ctx); err != nil {
		return nil, err
	}

	if _, err := e.gateway.RunGit(ctx, e.upstreamRoot, "checkout", "-B", prBranch, e.baseBranch); err != nil {
		return nil, fmt.Errorf("creating branch %s: %w", prBranch, err)
	}

	for _, entry := range plan.Entries {
		if err := e.stageFile(entry.Path); err != nil {
			return nil, fmt.Errorf("staging %s on branch %s (recover manually, nothing rolled back): %w", entry.Path, prBranch, err)
		}
	}

	if _, err := e.gateway.RunGit(ctx, e.upstreamRoot, "add", "-A"); err != nil {
		return nil, fmt.Errorf("staging changes on branch %s: %w", prBranch, err)
	}

	status, err := e.gateway.RunGit(ctx, e.upstreamRoot, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("inspecting branch %s: %w", prBranch, err)
	}
	if strings.TrimSpace(status.Stdout) == "" {
		// The upstream branch already carries these exact bytes.
		e.restoreBase(ctx)
		return nil, nil
	}

	if _, err := e.gateway.RunGit(ctx, e.upstreamRoot, "commit", "-m", title); err != nil {
		return nil, fmt.Errorf("committing on branch %s: %w", prBranch, err)
	}
	if _, err := e.gateway.RunGit(ctx, e.upstreamRoot, "push", "-u", forkRemote, prBranch); err != nil {
		return nil, fmt.Errorf("pushing branch %s (commit is local, recover manually): %w", prBranch, err)
	}

	result, err := e.gateway.RunGH(ctx, e.upstreamRoot,
		"pr", "create",
		"--base", e.baseBranch,
		"--head", prBranch,
		"--title", title,
		"--body", body,
	)
	if err != nil {
		return nil, fmt.Errorf("opening pull request for branch %s (branch is pushed, recover manually): %w", prBranch, err)
	}

	e.restoreBase(ctx)
	return &PullRequestHandle{Branch: prBranch, URL: strings.TrimSpace(result.Stdout)}, nil
}

// ensureFork makes sure the fork remote exists in the upstream checkout,
// forking through the GitHub CLI only when it does not.
func (e *Engine) ensureFork(ctx context.Context) error {
	if _, err := e.gateway.RunGit(ctx, e.upstreamRoot, "remote", "get-url", forkRemote); err == nil {
		return nil
	}
	if _, err := e.gateway.RunGH(ctx, e.upstreamRoot, "repo", "fork", "--remote", "--remote-name", forkRemote); err != nil {
		return fmt.Errorf("forking upstream repository: %w", err)
	}
	return nil
}

// stageFile copies one plan file from the consumer repo into the upstream
// working tree, preserving its mode.
func (e *Engine) stageFile(rel string) error {
	src := filepath.Join(e.repoRoot, filepath.FromSlash(rel))
	dst := filepath.Join(e.upstreamRoot, filepath.FromSlash(rel))
	return fsutil.CopyFile(src, dst)
}

// restoreBase checks the upstream working tree back out on the base branch.
// Best effort: the PR branch is already pushed when this runs.
func (e *Engine) restoreBase(ctx context.Context) {
	_, _ = e.gateway.RunGit(ctx, e.upstreamRoot, "checkout", e.baseBranch)
}

// repoName resolves the consumer repository's name from its origin remote,
// falling back to the directory name for non-repository consumers.
func (e *Engine) repoName(ctx context.Context) string {
	if e.gateway != nil && e.gateway.IsRepository(e.repoRoot) {
		if url, err := e.gateway.RemoteURL(ctx, e.repoRoot, "origin"); err == nil {
			if name := vcs.RepoNameFromURL(url); name != "" {
				return name
			}
		}
	}
	return filepath.Base(e.repoRoot)
}
