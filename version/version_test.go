package version

import (
	"os"
	"testing"
	"time"

	"github.com/rsgalloway/grit/item"
	"github.com/rsgalloway/grit/object"
)

func setupStore(t *testing.T) (*object.Store, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "version-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp failed: %v", err)
	}
	store, err := object.Init(dir, true)
	if err != nil {
		os.RemoveAll(dir)
		t.Fatalf("object.Init failed: %v", err)
	}
	return store, func() { os.RemoveAll(dir) }
}

func testSig() object.Signature {
	return object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()}
}

func TestVersion_NewIsDraft(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	v, err := New(store, object.ZeroHash, nil, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !v.IsDraft() {
		t.Error("expected new version to be a draft")
	}
	if v.ID() != object.ZeroHash {
		t.Error("expected zero ID before save")
	}
}

func TestVersion_AddItemAndSave(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	v, err := New(store, object.ZeroHash, nil, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	it, err := item.FromString(store, "a.txt", []byte("hello"))
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}
	if err := v.AddItem(it); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	id, err := v.Save("first version", testSig())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id == object.ZeroHash {
		t.Error("expected non-zero commit ID")
	}
	if v.IsDraft() {
		t.Error("expected version to no longer be a draft after Save")
	}

	head, err := store.ReadRef("refs/heads/master")
	if err != nil {
		t.Fatalf("ReadRef failed: %v", err)
	}
	if head != id {
		t.Errorf("master points at %s, want %s", head, id)
	}
}

func TestVersion_SaveTwiceFails(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	v, _ := New(store, object.ZeroHash, nil, 0)
	if _, err := v.Save("v1", testSig()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := v.Save("v2", testSig()); err != ErrImmutable {
		t.Errorf("expected ErrImmutable, got %v", err)
	}
}

func TestVersion_MutateAfterSaveFails(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	v, _ := New(store, object.ZeroHash, nil, 0)
	if _, err := v.Save("v1", testSig()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	it, _ := item.FromString(store, "b.txt", []byte("b"))
	if err := v.AddItem(it); err != ErrImmutable {
		t.Errorf("expected ErrImmutable from AddItem, got %v", err)
	}
	if err := v.RemoveItem("b.txt"); err != ErrImmutable {
		t.Errorf("expected ErrImmutable from RemoveItem, got %v", err)
	}
}

func TestVersion_InheritsParentItems(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	v1, _ := New(store, object.ZeroHash, nil, 0)
	it, _ := item.FromString(store, "a.txt", []byte("a"))
	v1.AddItem(it)
	id1, err := v1.Save("v1", testSig())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	meta1, err := store.GetCommit(id1)
	if err != nil {
		t.Fatalf("GetCommit failed: %v", err)
	}

	v2, err := New(store, id1, &meta1, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	items, err := v2.Items()
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	if len(items) != 1 || items[0].Name() != "a.txt" {
		t.Errorf("expected v2 to inherit a.txt, got %+v", items)
	}

	id2, err := v2.Save("v2", testSig())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	meta2, _ := store.GetCommit(id2)
	if len(meta2.Parents) != 1 || meta2.Parents[0] != id1 {
		t.Errorf("expected v2's parent to be v1 (%s), got %+v", id1, meta2.Parents)
	}
}

func TestVersion_Open(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	v1, _ := New(store, object.ZeroHash, nil, 0)
	it, _ := item.FromString(store, "a.txt", []byte("a"))
	v1.AddItem(it)
	id, err := v1.Save("hello", testSig())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	opened, err := Open(store, id, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if opened.IsDraft() {
		t.Error("expected opened version to not be a draft")
	}
	if opened.Message() != "hello" {
		t.Errorf("got message %q, want hello", opened.Message())
	}

	items, err := opened.Items()
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	if len(items) != 1 || items[0].Name() != "a.txt" {
		t.Errorf("expected 1 item a.txt, got %+v", items)
	}
}
