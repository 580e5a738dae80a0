// Package object implements the content-addressed object store: blobs,
// trees, commits and references, persisted in the native git on-disk
// format via go-git.
package object

import "errors"

var (
	// ErrNotFound indicates a requested object does not exist in the store.
	ErrNotFound = errors.New("object: not found")

	// ErrRefNotFound indicates a reference has no target.
	ErrRefNotFound = errors.New("object: reference not found")

	// ErrInvalidRepository indicates a directory is not a valid git
	// repository (no objects/, refs/, or HEAD found walking up from it).
	ErrInvalidRepository = errors.New("object: invalid repository")

	// ErrNotACommit indicates a hash resolved to an object of the wrong type.
	ErrNotACommit = errors.New("object: not a commit")

	// ErrNotATree indicates a hash resolved to an object of the wrong type.
	ErrNotATree = errors.New("object: not a tree")
)
