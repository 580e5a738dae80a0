package version

import (
	"github.com/rsgalloway/grit/item"
	"github.com/rsgalloway/grit/object"
	"github.com/rsgalloway/grit/tree"
)

// state tags a Version as either still being built (Draft) or already
// written to the object store (Saved). This replaces the original's
// mutable-then-frozen Version object with an explicit state machine: once
// Saved, AddItem/RemoveItem/Save all fail with ErrImmutable instead of
// silently no-oping.
type state int

const (
	draft state = iota
	saved
)

// Version is either a draft being assembled (AddItem/RemoveItem/Save are
// valid) or a saved commit already in the object store (Items/Message/
// Author/When read back its metadata; mutation is no longer possible).
type Version struct {
	store *object.Store
	state state

	tree *tree.Tree // non-nil only while state == draft
	meta object.CommitMeta
	id   object.Hash
	idx  int
}

// New starts a draft version descending from parentID/parentMeta. If
// parentMeta is non-nil, the new draft's tree is seeded with every item
// from the parent version, mirroring the way Version.new in the original
// copies the previous version's tree entries into the new one so a save
// with no edits reproduces the parent unchanged. Pass a zero object.Hash
// and a nil parentMeta to start the first version of a repository.
func New(store *object.Store, parentID object.Hash, parentMeta *object.CommitMeta, index int) (*Version, error) {
	meta := object.CommitMeta{Encoding: "UTF-8"}
	t := tree.New()

	if parentMeta != nil {
		meta.Parents = []object.Hash{parentID}
		entries, err := store.GetTree(parentMeta.Tree)
		if err != nil {
			return nil, err
		}
		prov := item.Provenance{
			Author:  parentMeta.Author.Name,
			Message: parentMeta.Message,
			When:    parentMeta.Committer.When,
		}
		t = tree.FromEntries(store, "", entries, prov)
	}

	return &Version{store: store, state: draft, tree: t, meta: meta, idx: index}, nil
}

// Open wraps an already-saved commit as a Version in the saved state.
func Open(store *object.Store, id object.Hash, index int) (*Version, error) {
	meta, err := store.GetCommit(id)
	if err != nil {
		return nil, err
	}
	return &Version{store: store, state: saved, meta: meta, id: id, idx: index}, nil
}

// IsDraft reports whether this version can still be edited.
func (v *Version) IsDraft() bool { return v.state == draft }

// ID returns the version's commit hash, or object.ZeroHash if it is an
// unsaved draft.
func (v *Version) ID() object.Hash { return v.id }

// Index returns this version's position in the repository's version
// list, where 0 is the newest version, matching spec.md's newest-first
// ancestry-list invariant.
func (v *Version) Index() int { return v.idx }

// Message returns the commit message.
func (v *Version) Message() string { return v.meta.Message }

// Author returns the commit author signature.
func (v *Version) Author() object.Signature { return v.meta.Author }

// Parents returns the hashes of this version's parent commits.
func (v *Version) Parents() []object.Hash { return v.meta.Parents }

// AddItem stages it into the draft's tree. Returns ErrImmutable if the
// version has already been saved.
func (v *Version) AddItem(it *item.Item) error {
	if v.state != draft {
		return ErrImmutable
	}
	v.tree.Add(it)
	return nil
}

// RemoveItem unstages the item named name from the draft's tree. Returns
// ErrImmutable if the version has already been saved.
func (v *Version) RemoveItem(name string) error {
	if v.state != draft {
		return ErrImmutable
	}
	v.tree.Remove(name)
	return nil
}

// Items returns the version's top-level items: the staged tree for a
// draft, or the saved commit's tree entries read back from the store.
func (v *Version) Items() ([]*item.Item, error) {
	if v.state == draft {
		return v.tree.Items(), nil
	}

	entries, err := v.store.GetTree(v.meta.Tree)
	if err != nil {
		return nil, err
	}
	prov := item.Provenance{
		Author:  v.meta.Author.Name,
		Message: v.meta.Message,
		When:    v.meta.Committer.When,
	}
	return tree.FromEntries(v.store, "", entries, prov).Items(), nil
}

// Save encodes the draft's tree, writes the commit object, and moves
// refs/heads/master to point at it. The order matters: blobs are already
// written as items are added (item.FromString/SetData write eagerly), so
// only the tree and commit remain — written tree-then-commit-then-ref so a
// crash between steps never leaves master pointing at an object whose
// children aren't yet reachable.
func (v *Version) Save(message string, author object.Signature) (object.Hash, error) {
	if v.state != draft {
		return v.id, ErrImmutable
	}

	treeID, err := v.tree.Encode(v.store)
	if err != nil {
		return object.ZeroHash, err
	}

	v.meta.Tree = treeID
	v.meta.Message = message
	v.meta.Author = author
	v.meta.Committer = author

	commitID, err := v.store.PutCommit(v.meta)
	if err != nil {
		return object.ZeroHash, err
	}
	if err := v.store.WriteRef("refs/heads/master", commitID); err != nil {
		return object.ZeroHash, err
	}

	v.id = commitID
	v.state = saved
	v.tree = nil
	return commitID, nil
}
