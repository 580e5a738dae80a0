package tree

import (
	"os"
	"testing"

	"github.com/rsgalloway/grit/item"
	"github.com/rsgalloway/grit/object"
)

func setupStore(t *testing.T) (*object.Store, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "tree-test-*")
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

func TestTree_AddRemove(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	tr := New()
	it, err := item.FromString(store, "a.txt", []byte("hi"))
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}
	tr.Add(it)

	if tr.Len() != 1 {
		t.Fatalf("got len %d, want 1", tr.Len())
	}
	if tr.Get("a.txt") != it {
		t.Error("Get did not return the added item")
	}

	tr.Remove("a.txt")
	if tr.Len() != 0 {
		t.Errorf("got len %d, want 0 after remove", tr.Len())
	}
}

func TestTree_Clear(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	tr := New()
	a, _ := item.FromString(store, "a.txt", []byte("a"))
	b, _ := item.FromString(store, "b.txt", []byte("b"))
	tr.Add(a)
	tr.Add(b)

	tr.Clear()
	if tr.Len() != 0 {
		t.Errorf("got len %d, want 0 after Clear", tr.Len())
	}
}

func TestTree_Items_Sorted(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	tr := New()
	names := []string{"c.txt", "a.txt", "b.txt"}
	for _, n := range names {
		it, _ := item.FromString(store, n, []byte(n))
		tr.Add(it)
	}

	items := tr.Items()
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	want := []string{"a.txt", "b.txt", "c.txt"}
	for i, it := range items {
		if it.Name() != want[i] {
			t.Errorf("items[%d] = %q, want %q", i, it.Name(), want[i])
		}
	}
}

func TestTree_Encode(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	tr := New()
	it, err := item.FromString(store, "a.txt", []byte("hi"))
	if err != nil {
		t.Fatalf("FromString failed: %v", err)
	}
	tr.Add(it)

	treeID, err := tr.Encode(store)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	entries, err := store.GetTree(treeID)
	if err != nil {
		t.Fatalf("GetTree failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "a.txt" {
		t.Errorf("got entries %+v, want one entry a.txt", entries)
	}
}

func TestTree_Encode_Empty(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	tr := New()
	treeID, err := tr.Encode(store)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	entries, err := store.GetTree(treeID)
	if err != nil {
		t.Fatalf("GetTree failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestFromEntries(t *testing.T) {
	store, cleanup := setupStore(t)
	defer cleanup()

	seed := New()
	it, _ := item.FromString(store, "a.txt", []byte("hi"))
	seed.Add(it)
	treeID, err := seed.Encode(store)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	entries, err := store.GetTree(treeID)
	if err != nil {
		t.Fatalf("GetTree failed: %v", err)
	}

	tr := FromEntries(store, "", entries, item.Provenance{})
	if tr.Len() != 1 {
		t.Fatalf("got len %d, want 1", tr.Len())
	}
	if tr.Get("a.txt") == nil {
		t.Error("expected a.txt to be present")
	}
}
