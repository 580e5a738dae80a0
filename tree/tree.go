// Package tree implements the mutable tree builder used while a version is
// being drafted. Unlike object.Entry (an immutable triple read back from
// the store), a Tree accumulates Add/Remove calls in memory and is only
// encoded to an object.Hash when the draft is saved.
package tree

import (
	"sort"

	"github.com/rsgalloway/grit/item"
	"github.com/rsgalloway/grit/object"
)

// Tree is a mutable, in-memory set of named entries keyed by name. It
// mirrors the shape of object.Entry but keeps the originating *item.Item
// around so a draft version can answer Items() without a round trip
// through the store.
type Tree struct {
	items map[string]*item.Item
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{items: make(map[string]*item.Item)}
}

// FromEntries seeds a Tree from entries already stored under store,
// wrapping each one as an Item with the given provenance. This is how a
// new draft version inherits the previous version's full item set before
// any edits are applied.
func FromEntries(store *object.Store, parentPath string, entries []object.Entry, prov item.Provenance) *Tree {
	t := New()
	for _, e := range entries {
		t.items[e.Name] = item.New(store, parentPath, e.Name, e.Mode, e.ID, prov)
	}
	return t
}

// Add inserts or replaces the entry for it.Name().
func (t *Tree) Add(it *item.Item) {
	t.items[it.Name()] = it
}

// Remove deletes the entry named name, if present.
func (t *Tree) Remove(name string) {
	delete(t.items, name)
}

// Clear removes every entry from the tree.
func (t *Tree) Clear() {
	t.items = make(map[string]*item.Item)
}

// Get returns the item named name, or nil if it is not present.
func (t *Tree) Get(name string) *item.Item {
	return t.items[name]
}

// Len returns the number of entries currently in the tree.
func (t *Tree) Len() int {
	return len(t.items)
}

// Items returns the tree's items sorted by name, the order git trees are
// always encoded in.
func (t *Tree) Items() []*item.Item {
	out := make([]*item.Item, 0, len(t.items))
	for _, it := range t.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Encode writes one tree object built from the current entries to store
// and returns its hash. It does not write blobs: each entry's blob is
// expected to be in the store already (item.FromString and SetData write
// theirs eagerly).
func (t *Tree) Encode(store *object.Store) (object.Hash, error) {
	items := t.Items()
	entries := make([]object.Entry, len(items))
	for i, it := range items {
		entries[i] = object.Entry{Name: it.Name(), Mode: it.Mode(), ID: it.ID()}
	}
	return store.PutTree(entries)
}
