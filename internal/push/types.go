package push

// Reasons a path was kept in or dropped from a push plan. Every enumerated
// path gets exactly one; dry-run output prints them verbatim.
const (
	ReasonDistributable = "distributable"
	ReasonIncluded      = "matched --include pattern"
	ReasonNewFile       = "new file"
	ReasonModified      = "differs from upstream"

	ReasonInternal     = "internal"
	ReasonInitOnly     = "init-only, never pushed upstream"
	ReasonExcluded     = "matched --exclude pattern"
	ReasonIgnoreFile   = "listed in " + ignoreFileLabel
	ReasonRepoIgnored  = "ignored by repository rules"
	ReasonIdentical    = "identical to upstream"
	ReasonSyncMetadata = "sync metadata"
)

// Entry is one path in a plan with the reason it was kept or dropped.
type Entry struct {
	Path   string
	Reason string
}

// Plan is the computed contribution set. Entries are the surviving paths in
// enumeration order; Dropped accounts for everything filtered out.
type Plan struct {
	Entries []Entry
	Dropped []Entry
}

// Paths returns the surviving paths in order.
func (p *Plan) Paths() []string {
	paths := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		paths[i] = e.Path
	}
	return paths
}

// PlanOptions carry the user-supplied include/exclude pattern lists.
type PlanOptions struct {
	Include []string
	Exclude []string
}

// MaterializeOptions control how a plan becomes a pull request. Empty Title
// and Body are synthesized from the consumer repository name and branch.
type MaterializeOptions struct {
	DryRun bool
	Title  string
	Body   string
}

// PullRequestHandle identifies the opened pull request.
type PullRequestHandle struct {
	Branch string
	URL    string
}
