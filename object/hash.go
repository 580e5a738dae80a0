package object

import "github.com/go-git/go-git/v5/plumbing"

// Hash is the content identity of a stored object: the hash of its
// canonical byte encoding. Two objects with equal Hash are, by the
// content-addressing invariant, byte-for-byte identical.
type Hash = plumbing.Hash

// ZeroHash is the all-zero hash used by the smart-HTTP protocol to mean
// "no object" (e.g. the old value of a newly created ref).
var ZeroHash = plumbing.ZeroHash

// ParseHash parses a hex SHA string into a Hash.
func ParseHash(s string) Hash {
	return plumbing.NewHash(s)
}
