package manifest

// FileName is the manifest descriptor file expected at the source root.
// The descriptor lists itself under `internal`, so it is never distributed.
const FileName = ".allhands-manifest.json"

// Classification is the distribution class of a single repository path.
type Classification int

const (
	// Distributable files are shipped by both sync and push.
	Distributable Classification = iota

	// InitOnly files are shipped only on a first-time (--init) sync and are
	// never pushed upstream, even when explicitly included.
	InitOnly

	// Internal files are never shipped by any operation.
	Internal
)

// String returns the lowercase name used in reports and audit output.
func (c Classification) String() string {
	switch c {
	case Internal:
		return "internal"
	case InitOnly:
		return "init-only"
	case Distributable:
		return "distributable"
	default:
		return "unknown"
	}
}

// Manifest is the parsed descriptor: two ordered glob pattern lists.
// A "!" prefix negates a pattern, inverting a prior match within its list.
type Manifest struct {
	Internal []string `json:"internal"`
	InitOnly []string `json:"initOnly"`
}
