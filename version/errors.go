// Package version implements the draft/saved commit lifecycle: a Version
// wraps a commit object together with the mutable tree being built before
// it is saved.
package version

import "errors"

// ErrImmutable is returned when AddItem/RemoveItem/Save is called on a
// Version that has already been saved. Saved versions wrap an existing
// commit and git commits are immutable, so further edits must start a new
// draft instead.
var ErrImmutable = errors.New("version: saved versions are immutable")

// ErrNoVersions is returned when a repository has no commits yet, or when a
// requested version index is out of range.
var ErrNoVersions = errors.New("version: no versions exist")
