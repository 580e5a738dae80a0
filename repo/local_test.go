package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewLocal_CreatesFirstVersionAndDescribe(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(filepath.Join(root, "proj"), "a test repo", true)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	desc, err := l.Description()
	if err != nil {
		t.Fatalf("Description failed: %v", err)
	}
	if desc != "a test repo" {
		t.Fatalf("got description %q, want %q", desc, "a test repo")
	}

	versions, err := l.Versions()
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("got %d versions, want 1", len(versions))
	}
	if versions[0].Index != 0 {
		t.Fatalf("got index %d, want 0", versions[0].Index)
	}
	if versions[0].Message != "Repo Initialization" {
		t.Fatalf("got message %q, want %q", versions[0].Message, "Repo Initialization")
	}
}

func TestLocal_VersionsOrderedNewestFirst(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(filepath.Join(root, "proj"), "", true)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}

	if err := l.AddFile(writeTempFile(t, "one.txt", "one"), ""); err != nil {
		t.Fatalf("AddFile one failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := l.AddFile(writeTempFile(t, "two.txt", "two"), ""); err != nil {
		t.Fatalf("AddFile two failed: %v", err)
	}

	versions, err := l.Versions()
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("got %d versions, want 3 (init + 2 adds)", len(versions))
	}
	for i, v := range versions {
		if v.Index != i {
			t.Errorf("version %d has Index %d, want %d", i, v.Index, i)
		}
	}
	for i := 0; i < len(versions)-1; i++ {
		if versions[i].When.Before(versions[i+1].When) {
			t.Fatalf("versions not newest-first: version %d (%v) is before version %d (%v)",
				i, versions[i].When, i+1, versions[i+1].When)
		}
	}
	if versions[0].Message == "Repo Initialization" {
		t.Fatalf("expected newest version first, got init commit at index 0")
	}
}

func TestLocal_BranchInheritsParentItems(t *testing.T) {
	root := t.TempDir()
	parent, err := NewLocal(filepath.Join(root, "parent"), "", true)
	if err != nil {
		t.Fatalf("NewLocal parent failed: %v", err)
	}
	if err := parent.AddFile(writeTempFile(t, "shared.txt", "from parent"), ""); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	child, err := parent.Branch("child", "")
	if err != nil {
		t.Fatalf("Branch failed: %v", err)
	}

	items, err := child.Items("")
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	found := false
	for _, it := range items {
		if it.Name == "shared.txt" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected child to inherit parent item shared.txt, got %+v", items)
	}
}

func TestLocal_ChildOverridesParentItem(t *testing.T) {
	root := t.TempDir()
	parentPath := filepath.Join(root, "parent")
	parent, err := NewLocal(parentPath, "", true)
	if err != nil {
		t.Fatalf("NewLocal parent failed: %v", err)
	}
	if err := parent.AddFile(writeTempFile(t, "shared.txt", "from parent"), ""); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	childRepo, err := parent.Branch("child", "")
	if err != nil {
		t.Fatalf("Branch failed: %v", err)
	}
	child := childRepo.(*Local)
	if err := child.AddFile(writeTempFile(t, "shared.txt", "from child"), ""); err != nil {
		t.Fatalf("AddFile (child) failed: %v", err)
	}

	items, err := child.Items("")
	if err != nil {
		t.Fatalf("Items failed: %v", err)
	}
	var match *ItemInfo
	for i := range items {
		if items[i].Name == "shared.txt" {
			match = &items[i]
		}
	}
	if match == nil {
		t.Fatalf("expected shared.txt in merged items, got %+v", items)
	}

	data, err := child.ItemData(match.Path)
	if err != nil {
		t.Fatalf("ItemData failed: %v", err)
	}
	if string(data) != "from child" {
		t.Fatalf("got content %q, want child's own content %q (child must win over parent)", data, "from child")
	}
}

func TestLocal_ParentRoundTrip(t *testing.T) {
	root := t.TempDir()
	parent, err := NewLocal(filepath.Join(root, "parent"), "", true)
	if err != nil {
		t.Fatalf("NewLocal parent failed: %v", err)
	}
	childRepo, err := parent.Branch("child", "")
	if err != nil {
		t.Fatalf("Branch failed: %v", err)
	}

	got, err := childRepo.Parent()
	if err != nil {
		t.Fatalf("Parent failed: %v", err)
	}
	if got.Name() != parent.Name() {
		t.Fatalf("got parent name %q, want %q", got.Name(), parent.Name())
	}
	if got.(*Local).Path() != parent.Path() {
		t.Fatalf("got parent path %q, want %q", got.(*Local).Path(), parent.Path())
	}
}

func TestLocal_SetVersionResetsToIndex(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(filepath.Join(root, "proj"), "", false)
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	if err := l.AddFile(writeTempFile(t, "one.txt", "one"), ""); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}

	versions, err := l.Versions()
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}
	oldest := versions[len(versions)-1]

	if err := l.SetVersion(len(versions) - 1); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}

	master, err := l.Store().ReadRef("refs/heads/master")
	if err != nil {
		t.Fatalf("ReadRef master failed: %v", err)
	}
	if master.String() != oldest.ID {
		t.Fatalf("master points at %s after SetVersion, want oldest commit %s", master, oldest.ID)
	}
}

func TestFilterItems_AnchoredMatch(t *testing.T) {
	items := []ItemInfo{
		{Path: "x.bin", Name: "x.bin"},
		{Path: "ax.bin", Name: "ax.bin"},
	}
	got := filterItems(items, "x.bin")
	if len(got) != 1 || got[0].Path != "x.bin" {
		t.Fatalf("got %+v, want only x.bin to match (anchored at both ends)", got)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file %s: %v", name, err)
	}
	return path
}
