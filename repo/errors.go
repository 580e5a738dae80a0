// Package repo implements the repository facade (Repo), the on-disk
// repository (Local), and the HTTP-backed repository (Proxy) that spec.md
// §4.1/4.2/4.6 describe, all behind one Repository interface.
package repo

import "errors"

var (
	// ErrRepoNotFound indicates a path or URL does not resolve to a repository.
	ErrRepoNotFound = errors.New("repo: not found")

	// ErrRepoExists indicates New was called with a path that already exists.
	ErrRepoExists = errors.New("repo: path already exists")

	// ErrNotImplemented is returned by operations the original left
	// unimplemented (submodules, tags) and that remain Non-goals here.
	ErrNotImplemented = errors.New("repo: not implemented")

	// ErrProxy wraps a failure response or protocol error from a Proxy's
	// JSON/RPC round trip.
	ErrProxy = errors.New("repo: proxy request failed")

	// ErrGitCommand wraps a non-zero exit from a shelled-out git invocation
	// (clone/pull/push).
	ErrGitCommand = errors.New("repo: git command failed")

	// ErrNoParent indicates a repository has no directory-parent repository.
	ErrNoParent = errors.New("repo: no parent repository")
)
