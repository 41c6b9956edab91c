package push

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/allhands-labs/allhands/internal/manifest"
	"github.com/allhands-labs/allhands/internal/vcs"
)

// fakeGateway records every command and answers from canned state. It never
// touches a real repository.
type fakeGateway struct {
	calls []string

	isRepo    bool
	branch    string
	remoteURL string
	ignored   []string
	hasFork   bool
	statusOut string
	prURL     string
	failCmd   string // commands containing this substring fail
}

func (g *fakeGateway) run(bin string, args []string) (vcs.Result, error) {
	line := bin + " " + strings.Join(args, " ")
	g.calls = append(g.calls, line)

	if g.failCmd != "" && strings.Contains(line, g.failCmd) {
		return vcs.Result{Stderr: "boom"}, &vcs.GatewayError{Args: append([]string{bin}, args...), Stderr: "boom"}
	}

	switch {
	case bin == "git" && len(args) >= 2 && args[0] == "remote" && args[1] == "get-url":
		if !g.hasFork {
			return vcs.Result{}, &vcs.GatewayError{Args: append([]string{bin}, args...), Stderr: "No such remote"}
		}
	case bin == "git" && args[0] == "status":
		return vcs.Result{Success: true, Stdout: g.statusOut}, nil
	case bin == "gh" && args[0] == "pr":
		return vcs.Result{Success: true, Stdout: g.prURL + "\n"}, nil
	}
	return vcs.Result{Success: true}, nil
}

func (g *fakeGateway) RunGit(ctx context.Context, cwd string, args ...string) (vcs.Result, error) {
	return g.run("git", args)
}

func (g *fakeGateway) RunGH(ctx context.Context, cwd string, args ...string) (vcs.Result, error) {
	return g.run("gh", args)
}

func (g *fakeGateway) CurrentBranch(ctx context.Context, path string) (string, error) {
	return g.branch, nil
}

func (g *fakeGateway) HeadCommit(ctx context.Context, path string) (string, error) {
	return "abc123", nil
}

func (g *fakeGateway) IsRepository(path string) bool { return g.isRepo }

func (g *fakeGateway) RemoteURL(ctx context.Context, path, remote string) (string, error) {
	if g.remoteURL == "" {
		return "", &vcs.GatewayError{Stderr: "No such remote"}
	}
	return g.remoteURL, nil
}

func (g *fakeGateway) CheckIgnore(ctx context.Context, path string, candidates []string) ([]string, error) {
	var out []string
	for _, c := range candidates {
		for _, ig := range g.ignored {
			if c == ig {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (g *fakeGateway) callIndex(substr string) int {
	for i, c := range g.calls {
		if strings.Contains(c, substr) {
			return i
		}
	}
	return -1
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func newClassifier(t *testing.T) *manifest.Classifier {
	t.Helper()
	c, err := manifest.NewClassifier(&manifest.Manifest{
		Internal: []string{"scripts/**", manifest.FileName},
		InitOnly: []string{".claude/settings.json"},
	})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

// planFixture builds a consumer repo with one file of every fate, plus the
// upstream tree the byte-diff stage compares against.
func planFixture(t *testing.T) (repo, upstream string) {
	t.Helper()
	repo, upstream = t.TempDir(), t.TempDir()

	writeTree(t, repo, map[string]string{
		".claude/flows/review.md":       "review flow v2\n", // modified locally
		".claude/skills/SKILL.md":       "skill v1\n",       // identical
		".claude/agents/helper.md":      "new agent\n",      // not upstream yet
		".claude/agents/local-notes.md": "project only\n",   // ignore-file match
		".claude/settings.json":         "{}\n",             // init-only
		"scripts/release.sh":            "#!/bin/sh\n",      // internal
		".allhands/state.json":          "{}\n",             // sync metadata
		manifest.IgnoreFileName:         ".claude/agents/local-*.md\n",
	})
	writeTree(t, upstream, map[string]string{
		".claude/flows/review.md": "review flow v1\n",
		".claude/skills/SKILL.md": "skill v1\n",
	})
	return repo, upstream
}

func findEntry(entries []Entry, path string) (Entry, bool) {
	for _, e := range entries {
		if e.Path == path {
			return e, true
		}
	}
	return Entry{}, false
}

func requireDropped(t *testing.T, plan *Plan, path, reason string) {
	t.Helper()
	e, ok := findEntry(plan.Dropped, path)
	if !ok {
		t.Fatalf("%s missing from dropped set: %v", path, plan.Dropped)
	}
	if e.Reason != reason {
		t.Errorf("%s drop reason = %q, want %q", path, e.Reason, reason)
	}
	if _, ok := findEntry(plan.Entries, path); ok {
		t.Errorf("%s must not also survive", path)
	}
}

func TestPlanPipeline(t *testing.T) {
	repo, upstream := planFixture(t)
	g := &fakeGateway{isRepo: true}
	e := New(repo, upstream, newClassifier(t), g, "main")

	plan, err := e.Plan(context.Background(), PlanOptions{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if entry, ok := findEntry(plan.Entries, ".claude/flows/review.md"); !ok {
		t.Errorf("modified file must survive: %v", plan.Entries)
	} else if entry.Reason != ReasonDistributable+", "+ReasonModified {
		t.Errorf("reason = %q", entry.Reason)
	}
	if entry, ok := findEntry(plan.Entries, ".claude/agents/helper.md"); !ok {
		t.Errorf("new file must survive: %v", plan.Entries)
	} else if entry.Reason != ReasonDistributable+", "+ReasonNewFile {
		t.Errorf("reason = %q", entry.Reason)
	}

	requireDropped(t, plan, ".claude/skills/SKILL.md", ReasonIdentical)
	requireDropped(t, plan, ".claude/settings.json", ReasonInitOnly)
	requireDropped(t, plan, "scripts/release.sh", ReasonInternal)
	requireDropped(t, plan, ".claude/agents/local-notes.md", ReasonIgnoreFile)
	requireDropped(t, plan, ".allhands/state.json", ReasonSyncMetadata)
	requireDropped(t, plan, manifest.IgnoreFileName, ReasonSyncMetadata)

	// Full accounting: every enumerated path lands somewhere.
	if got := len(plan.Entries) + len(plan.Dropped); got != 8 {
		t.Errorf("accounted paths = %d, want 8", got)
	}
}

func TestPlanIncludeNeverResurrectsInitOnly(t *testing.T) {
	repo, upstream := planFixture(t)
	e := New(repo, upstream, newClassifier(t), &fakeGateway{}, "main")

	plan, err := e.Plan(context.Background(), PlanOptions{Include: []string{".claude/settings.json"}})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	requireDropped(t, plan, ".claude/settings.json", ReasonInitOnly)
}

func TestPlanIncludeResurrectsInternal(t *testing.T) {
	repo, upstream := planFixture(t)
	e := New(repo, upstream, newClassifier(t), &fakeGateway{}, "main")

	plan, err := e.Plan(context.Background(), PlanOptions{Include: []string{"scripts/**"}})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	entry, ok := findEntry(plan.Entries, "scripts/release.sh")
	if !ok {
		t.Fatalf("included internal file must survive: %v", plan.Entries)
	}
	if entry.Reason != ReasonIncluded+", "+ReasonNewFile {
		t.Errorf("reason = %q", entry.Reason)
	}
}

func TestPlanExcludeFilter(t *testing.T) {
	repo, upstream := planFixture(t)
	e := New(repo, upstream, newClassifier(t), &fakeGateway{}, "main")

	plan, err := e.Plan(context.Background(), PlanOptions{Exclude: []string{".claude/flows/**"}})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	requireDropped(t, plan, ".claude/flows/review.md", ReasonExcluded)
}

func TestPlanRepoIgnoreRules(t *testing.T) {
	repo, upstream := planFixture(t)
	g := &fakeGateway{isRepo: true, ignored: []string{".claude/agents/helper.md"}}
	e := New(repo, upstream, newClassifier(t), g, "main")

	plan, err := e.Plan(context.Background(), PlanOptions{})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	requireDropped(t, plan, ".claude/agents/helper.md", ReasonRepoIgnored)
}

func TestPlanBadIncludePattern(t *testing.T) {
	repo, upstream := planFixture(t)
	e := New(repo, upstream, newClassifier(t), &fakeGateway{}, "main")

	_, err := e.Plan(context.Background(), PlanOptions{Include: []string{"bad/[unclosed"}})

	var patErr *manifest.PatternError
	if !errors.As(err, &patErr) {
		t.Fatalf("err = %v, want PatternError", err)
	}
	if patErr.List != "--include" {
		t.Errorf("list = %q, want --include", patErr.List)
	}
}

func materializeFixture(t *testing.T, g *fakeGateway) (*Engine, *Plan) {
	t.Helper()
	repo, upstream := t.TempDir(), t.TempDir()
	writeTree(t, repo, map[string]string{".claude/flows/review.md": "review flow v2\n"})

	e := New(repo, upstream, newClassifier(t), g, "main")
	plan := &Plan{Entries: []Entry{
		{Path: ".claude/flows/review.md", Reason: ReasonDistributable + ", " + ReasonNewFile},
	}}
	return e, plan
}

func TestMaterializeDryRunIssuesNoCommands(t *testing.T) {
	g := &fakeGateway{}
	e, plan := materializeFixture(t, g)

	handle, err := e.Materialize(context.Background(), plan, MaterializeOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if handle != nil {
		t.Errorf("dry-run handle = %v, want nil", handle)
	}
	if len(g.calls) != 0 {
		t.Errorf("dry-run issued commands: %v", g.calls)
	}
}

func TestMaterializeEmptyPlanIsNoop(t *testing.T) {
	g := &fakeGateway{}
	e, _ := materializeFixture(t, g)

	handle, err := e.Materialize(context.Background(), &Plan{}, MaterializeOptions{})
	if err != nil || handle != nil {
		t.Fatalf("empty plan: handle=%v err=%v", handle, err)
	}
	if len(g.calls) != 0 {
		t.Errorf("empty plan issued commands: %v", g.calls)
	}
}

func TestMaterializeSequence(t *testing.T) {
	g := &fakeGateway{
		isRepo:    true,
		branch:    "feature-x",
		remoteURL: "git@github.com:org/widgets.git",
		statusOut: "A  .claude/flows/review.md\n",
		prURL:     "https://github.com/allhands-labs/claude-all-hands/pull/12",
	}
	e, plan := materializeFixture(t, g)

	handle, err := e.Materialize(context.Background(), plan, MaterializeOptions{})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	if handle.Branch != "widgets/feature-x" {
		t.Errorf("branch = %q, want widgets/feature-x", handle.Branch)
	}
	if handle.URL != "https://github.com/allhands-labs/claude-all-hands/pull/12" {
		t.Errorf("url = %q", handle.URL)
	}

	// The plan file landed in the upstream working tree.
	data, err := os.ReadFile(filepath.Join(e.upstreamRoot, ".claude", "flows", "review.md"))
	if err != nil {
		t.Fatalf("staged file: %v", err)
	}
	if string(data) != "review flow v2\n" {
		t.Errorf("staged content = %q", data)
	}

	// No fork remote existed, so one was created before anything else mutated.
	steps := []string{
		"gh repo fork --remote --remote-name fork",
		"git checkout -B widgets/feature-x main",
		"git add -A",
		"git commit -m Sync from widgets/feature-x",
		"git push -u fork widgets/feature-x",
		"gh pr create --base main --head widgets/feature-x",
	}
	prev := -1
	for _, step := range steps {
		i := g.callIndex(step)
		if i < 0 {
			t.Fatalf("missing command %q in %v", step, g.calls)
		}
		if i < prev {
			t.Errorf("command %q out of order in %v", step, g.calls)
		}
		prev = i
	}
}

func TestMaterializeExistingForkSkipsForkCall(t *testing.T) {
	g := &fakeGateway{
		isRepo:    true,
		branch:    "main",
		remoteURL: "https://github.com/org/widgets",
		statusOut: "A  x\n",
		prURL:     "https://example.test/pr/1",
		hasFork:   true,
	}
	e, plan := materializeFixture(t, g)

	if _, err := e.Materialize(context.Background(), plan, MaterializeOptions{}); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if g.callIndex("repo fork") >= 0 {
		t.Errorf("fork must not be recreated: %v", g.calls)
	}
}

func TestMaterializeNothingStaged(t *testing.T) {
	g := &fakeGateway{isRepo: true, branch: "main", remoteURL: "https://github.com/org/widgets"}
	e, plan := materializeFixture(t, g)

	handle, err := e.Materialize(context.Background(), plan, MaterializeOptions{})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if handle != nil {
		t.Errorf("handle = %v, want nil when nothing is staged", handle)
	}
	if g.callIndex("commit") >= 0 {
		t.Errorf("empty stage must not commit: %v", g.calls)
	}
}

func TestMaterializePushFailureNamesBranch(t *testing.T) {
	g := &fakeGateway{
		isRepo:    true,
		branch:    "feature-x",
		remoteURL: "git@github.com:org/widgets.git",
		statusOut: "A  x\n",
		failCmd:   "push -u",
	}
	e, plan := materializeFixture(t, g)

	_, err := e.Materialize(context.Background(), plan, MaterializeOptions{})
	if err == nil {
		t.Fatal("expected push failure")
	}
	if !strings.Contains(err.Error(), "widgets/feature-x") {
		t.Errorf("error must name the branch for recovery: %v", err)
	}
}

func TestMaterializeSynthesizedTitle(t *testing.T) {
	g := &fakeGateway{
		isRepo:    true,
		branch:    "feature-x",
		remoteURL: "git@github.com:org/widgets.git",
		statusOut: "A  x\n",
		prURL:     "https://example.test/pr/2",
	}
	e, plan := materializeFixture(t, g)

	if _, err := e.Materialize(context.Background(), plan, MaterializeOptions{}); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if g.callIndex("--title Sync from widgets/feature-x") < 0 {
		t.Errorf("synthesized title missing: %v", g.calls)
	}
}

func TestMaterializeDetachedHead(t *testing.T) {
	g := &fakeGateway{isRepo: true, branch: ""}
	e, plan := materializeFixture(t, g)

	if _, err := e.Materialize(context.Background(), plan, MaterializeOptions{}); err == nil {
		t.Fatal("detached HEAD must fail before any mutation")
	}
	if len(g.calls) != 0 {
		t.Errorf("detached HEAD issued commands: %v", g.calls)
	}
}
