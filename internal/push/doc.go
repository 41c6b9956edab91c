// Package push computes the set of framework files a consumer repository
// contributes back upstream and drives the pull-request workflow.
//
// Planning is a four-stage filter pipeline (base set, excludes, ignore
// rules, byte diff); every dropped path keeps its drop reason so dry-run
// output can account for the full tree. Materializing a plan forks the
// upstream repository when needed, commits the plan's files on a dedicated
// branch, and opens a pull request through the VCS gateway.
package push
