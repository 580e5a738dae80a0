// Package item wraps a single blob or tree object with the path, mode and
// provenance metadata that turns a bare object-store hash into something a
// caller can read, write and check out.
package item

import "errors"

var (
	// ErrNotAFile indicates Data/SetData/Checkout was called on an item
	// whose mode identifies it as a tree, not a blob.
	ErrNotAFile = errors.New("item: not a file")

	// ErrNoData indicates Checkout or Data was called before any content
	// was ever set on a newly constructed item.
	ErrNoData = errors.New("item: no data")
)
