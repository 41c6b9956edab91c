package updater

import (
	"net/http"
)

// Release represents a GitHub release.
type Release struct {
	Version string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Updater checks for newer released versions.
type Updater struct {
	currentVersion string
	httpClient     *http.Client
	apiBase        string
}

// Option configures an Updater.
type Option func(*Updater)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(u *Updater) {
		u.httpClient = c
	}
}

// WithAPIBase overrides the GitHub API base URL (useful for testing and
// GitHub Enterprise deployments).
func WithAPIBase(base string) Option {
	return func(u *Updater) {
		u.apiBase = base
	}
}

// New creates an Updater with the given current version and options.
func New(currentVersion string, opts ...Option) *Updater {
	u := &Updater{
		currentVersion: currentVersion,
		httpClient:     http.DefaultClient,
		apiBase:        githubAPIBase,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CurrentVersion returns the version this updater was created with.
func (u *Updater) CurrentVersion() string {
	return u.currentVersion
}
