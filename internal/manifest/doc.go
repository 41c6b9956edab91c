// Package manifest loads the distribution manifest from the upstream source
// root and classifies repository paths. Every path falls into exactly one of
// three classes: internal (never shipped), init-only (shipped on first-time
// sync, never pushed upstream), or distributable (shipped by both sync and
// push). The sync and push engines consult a Classifier for every inclusion
// decision they make.
package manifest
