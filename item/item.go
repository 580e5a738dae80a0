package item

import (
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/rsgalloway/grit/object"
)

// Provenance carries the author/message/timestamp of whichever Version or
// Tree an Item was produced from, so an Item can answer "who wrote this"
// without holding a reference back to its parent's full type.
type Provenance struct {
	Author  string
	Message string
	When    time.Time
}

// Item wraps a single blob or tree object with the path, mode and
// provenance it had within its containing tree. Blob content is fetched
// from the store lazily, on first Data/Checkout/Size call, since reading
// every blob up front would be wasted work for callers that only want
// names and modes (e.g. listing a directory).
type Item struct {
	store *object.Store

	path string
	name string
	mode object.Mode
	id   object.Hash
	kind object.Kind

	prov Provenance

	loaded bool
	data   []byte
}

// New wraps an existing (name, mode, id) tree entry found under parentPath
// as an Item bound to store.
func New(store *object.Store, parentPath, name string, mode object.Mode, id object.Hash, prov Provenance) *Item {
	return &Item{
		store: store,
		path:  path.Join(parentPath, name),
		name:  name,
		mode:  mode,
		id:    id,
		kind:  object.KindOf(mode),
		prov:  prov,
	}
}

// FromPath reads a file from the local filesystem and creates a new Item
// from its contents, named after the file's base name.
func FromPath(store *object.Store, filePath string) (*Item, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromString(store, filepath.Base(filePath), content)
}

// FromString creates a new Item wrapping name and content directly,
// without reading from disk. The blob is written to store eagerly so the
// Item's ID is valid immediately.
func FromString(store *object.Store, name string, content []byte) (*Item, error) {
	id, err := store.PutBlob(content)
	if err != nil {
		return nil, err
	}
	return &Item{
		store:  store,
		path:   name,
		name:   name,
		mode:   object.ModeFile,
		id:     id,
		kind:   object.KindBlob,
		loaded: true,
		data:   content,
	}, nil
}

// Path returns the item's path relative to the repository root.
func (i *Item) Path() string { return i.path }

// Name returns the item's base name.
func (i *Item) Name() string { return i.name }

// Mode returns the item's git file mode.
func (i *Item) Mode() object.Mode { return i.mode }

// ID returns the hash of the underlying blob or tree object.
func (i *Item) ID() object.Hash { return i.id }

// Kind reports whether the item is a blob or a tree.
func (i *Item) Kind() object.Kind { return i.kind }

// IsTree reports whether the item refers to a subtree rather than a file.
func (i *Item) IsTree() bool { return i.kind == object.KindTree }

// Provenance returns the author/message/timestamp this item inherited
// from its containing version.
func (i *Item) Provenance() Provenance { return i.prov }

// Data returns the item's blob content, fetching it from the store on
// first call and caching the result.
func (i *Item) Data() ([]byte, error) {
	if i.kind != object.KindBlob {
		return nil, ErrNotAFile
	}
	if !i.loaded {
		content, err := i.store.GetBlob(i.id)
		if err != nil {
			return nil, err
		}
		i.data = content
		i.loaded = true
	}
	return i.data, nil
}

// File returns the item's blob content as a file-like io.Reader, for
// callers that want to stream or read()-by-chunk rather than hold the
// whole byte slice Data returns.
func (i *Item) File() (io.Reader, error) {
	data, err := i.Data()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// SetData replaces the item's content and writes a new blob to the store,
// updating ID to the new blob's hash. Git objects are immutable, so
// "editing" an item always produces a new object; the caller is
// responsible for re-adding the item to a tree to make the change visible.
func (i *Item) SetData(content []byte) error {
	if i.kind != object.KindBlob {
		return ErrNotAFile
	}
	id, err := i.store.PutBlob(content)
	if err != nil {
		return err
	}
	i.id = id
	i.data = content
	i.loaded = true
	return nil
}

// Size returns the number of bytes in the item's blob content.
func (i *Item) Size() (int64, error) {
	data, err := i.Data()
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// Checkout writes the item's content to a file at dst. If dst is an
// existing directory, the file is written inside it under the item's name.
func (i *Item) Checkout(dst string) error {
	data, err := i.Data()
	if err != nil {
		return err
	}

	target := dst
	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		target = filepath.Join(dst, i.name)
	}
	return os.WriteFile(target, data, 0o644)
}
