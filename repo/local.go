package repo

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/rsgalloway/grit/item"
	"github.com/rsgalloway/grit/object"
	"github.com/rsgalloway/grit/version"
)

// Local is an on-disk repository: a thin domain layer over an
// object.Store that adds the version list, item merging, and
// directory-parent semantics spec.md §4.2 describes.
type Local struct {
	store *object.Store
	path  string
	name  string
}

var _ Repository = (*Local)(nil)

// OpenLocal opens an existing repository at or above path, exactly as
// object.Open walks up looking for a bare repo or a worktree's .git dir.
func OpenLocal(path string) (*Local, error) {
	store, err := object.Open(path)
	if err != nil {
		return nil, err
	}
	root := store.WorkDir()
	if root == "" {
		root = store.GitDir()
	}
	return &Local{store: store, path: root, name: filepath.Base(root)}, nil
}

// NewLocal creates a brand new repository at path: the directory must not
// already exist. A first, empty version is saved immediately ("Repo
// Initialization"), mirroring Local.new in the original so a freshly
// created repository always has at least one version.
func NewLocal(path, desc string, bare bool) (*Local, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, ErrRepoExists
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}

	store, err := object.Init(path, bare)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureHEAD(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	l := &Local{store: store, path: abs, name: filepath.Base(abs)}

	if desc != "" {
		if err := l.SetDescription(desc); err != nil {
			return nil, err
		}
	}

	v, err := l.AddVersion()
	if err != nil {
		return nil, err
	}
	if _, err := v.Save("Repo Initialization", systemSignature()); err != nil {
		return nil, err
	}
	return l, nil
}

func systemSignature() object.Signature {
	name := os.Getenv("USER")
	if name == "" {
		name = "grit"
	}
	return object.Signature{Name: name, Email: name + "@localhost", When: time.Now()}
}

// Name returns the repository's directory base name.
func (l *Local) Name() string { return l.name }

// Store returns the repository's underlying object store, for callers
// (such as the HTTP layer) that need to construct items directly.
func (l *Local) Store() *object.Store { return l.store }

// ItemData returns the raw content of the item at relPath in the latest
// version. Only top-level items are addressable: directories-of-trees
// nested more than one level deep are out of scope (see DESIGN.md).
func (l *Local) ItemData(relPath string) ([]byte, error) {
	v, err := l.versionAt(0)
	if err != nil {
		return nil, err
	}
	items, err := v.Items()
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.Path() == relPath || it.Name() == relPath {
			return it.Data()
		}
	}
	return nil, ErrRepoNotFound
}

// IsLocal always returns true for Local.
func (l *Local) IsLocal() bool { return true }

// Path returns the repository's absolute filesystem path.
func (l *Local) Path() string { return l.path }

// Description returns the repository's description file contents.
func (l *Local) Description() (string, error) {
	return l.store.Description()
}

// SetDescription writes the repository's description file.
func (l *Local) SetDescription(desc string) error {
	return l.store.SetDescription(desc)
}

// Serialize returns the repository's string attributes, matching the
// original's Local.serialize: name, path, description and, if a parent
// exists, the parent's name.
func (l *Local) Serialize() (map[string]string, error) {
	desc, err := l.Description()
	if err != nil {
		return nil, err
	}
	out := map[string]string{
		"name": l.name,
		"path": l.path,
		"type": "local",
		"desc": desc,
		"date": time.Now().Format(time.RFC3339),
	}
	if parent, err := l.Parent(); err == nil && parent != nil {
		out["parent"] = parent.Name()
	}
	return out, nil
}

// commits walks the commit ancestry reachable from refs/heads/master and
// returns them sorted newest-first by commit time: a breadth-first walk
// over parent links with insertion-sorted dedup, the same algorithm the
// original's _commits uses. The original's insertion sort produces
// oldest-first order; spec.md's ancestry-list invariant (§2, §4.2, §4.3,
// §8 scenario 2) requires newest-first, so the comparison here is
// flipped from the original's to match that contract directly rather
// than sorting oldest-first and reversing after the fact.
func (l *Local) commits() ([]object.Hash, []object.CommitMeta, error) {
	head, err := l.store.ReadRef("refs/heads/master")
	if err != nil {
		if err == object.ErrRefNotFound {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var ids []object.Hash
	var metas []object.CommitMeta
	seen := make(map[object.Hash]bool)
	pending := []object.Hash{head}

	for len(pending) > 0 {
		id := pending[0]
		pending = pending[1:]
		if seen[id] {
			continue
		}
		meta, err := l.store.GetCommit(id)
		if err != nil {
			return nil, nil, err
		}
		seen[id] = true

		i := sort.Search(len(metas), func(i int) bool { return metas[i].Committer.When.Before(meta.Committer.When) })
		ids = append(ids[:i], append([]object.Hash{id}, ids[i:]...)...)
		metas = append(metas[:i], append([]object.CommitMeta{meta}, metas[i:]...)...)

		pending = append(pending, meta.Parents...)
	}
	return ids, metas, nil
}

// versionAt returns the version at index into the newest-first list
// commits() returns (0 is the latest version), with negative indices
// counting back from the end (-1 is the oldest/root version), matching
// Python-style list indexing.
func (l *Local) versionAt(index int) (*version.Version, error) {
	ids, _, err := l.commits()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, version.ErrNoVersions
	}
	if index < 0 {
		index = len(ids) + index
	}
	if index < 0 || index >= len(ids) {
		return nil, version.ErrNoVersions
	}
	return version.Open(l.store, ids[index], index)
}

// Versions returns every version of the repository, newest first,
// matching spec.md §2/§4.2's ancestry-list invariant.
func (l *Local) Versions() ([]VersionInfo, error) {
	ids, metas, err := l.commits()
	if err != nil {
		return nil, err
	}
	out := make([]VersionInfo, len(ids))
	for i, id := range ids {
		out[i] = VersionInfo{
			ID:      id.String(),
			Index:   i,
			Message: metas[i].Message,
			Author:  metas[i].Author.Name,
			When:    metas[i].Committer.When,
		}
	}
	return out, nil
}

// AddVersion starts a new draft version descending from the current
// latest version (or an empty root version if none exists yet). Once
// saved, the new version is the newest, so its index is always 0 in the
// newest-first numbering commits()/Versions() use.
func (l *Local) AddVersion() (*version.Version, error) {
	ids, metas, err := l.commits()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return version.New(l.store, object.ZeroHash, nil, 0)
	}
	latest := metas[0]
	return version.New(l.store, ids[0], &latest, 0)
}

// AddItem is the single-item convenience wrapper the original exposes as
// Local.addItem/addFile: start a draft, add one item, save it.
func (l *Local) AddItem(it *item.Item, message string) error {
	if message == "" {
		message = fmt.Sprintf("Adding item %s", it.Path())
	}
	v, err := l.AddVersion()
	if err != nil {
		return err
	}
	if err := v.AddItem(it); err != nil {
		return err
	}
	_, err = v.Save(message, systemSignature())
	return err
}

// AddFile reads path from the local filesystem and adds it as an item.
func (l *Local) AddFile(path, message string) error {
	it, err := item.FromPath(l.store, path)
	if err != nil {
		return err
	}
	return l.AddItem(it, message)
}

// Items returns the latest version's items merged with items inherited
// from directory-parent repositories, filtered by pathFilter if non-empty.
func (l *Local) Items(pathFilter string) ([]ItemInfo, error) {
	own, err := l.ownItems()
	if err != nil {
		return nil, err
	}
	merged := mergeItems(own, l)
	return filterItems(merged, pathFilter), nil
}

func (l *Local) ownItems() ([]ItemInfo, error) {
	v, err := l.versionAt(0)
	if err != nil {
		if err == version.ErrNoVersions {
			return nil, nil
		}
		return nil, err
	}
	items, err := v.Items()
	if err != nil {
		return nil, err
	}
	out := make([]ItemInfo, len(items))
	for i, it := range items {
		out[i] = ItemInfo{
			Path:    it.Path(),
			Name:    it.Name(),
			Kind:    string(it.Kind()),
			Mode:    it.Mode().String(),
			Comment: it.Provenance().Message,
		}
	}
	return out, nil
}

// filterItems applies spec.md's anchored-regex path filter: the pattern
// must fully match the item's path, not just find a substring ending the
// path, so it's wrapped to anchor both ends (the original's `path += '$'`
// relies on Python re.match's implicit start-anchor; regexp.MatchString
// has no such implicit anchor, so the start has to be added explicitly).
func filterItems(items []ItemInfo, pattern string) []ItemInfo {
	if pattern == "" {
		return items
	}
	regex, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return items
	}
	out := make([]ItemInfo, 0, len(items))
	for _, it := range items {
		if regex.MatchString(it.Path) {
			out = append(out, it)
		}
	}
	return out
}

// Repos lists the immediate subdirectories of path that are themselves
// valid repositories, backing the original's module-level get_repos and
// the JSON/RPC "repos" action.
func (l *Local) Repos() ([]Repository, error) {
	return reposUnder(l.path)
}

func reposUnder(dir string) ([]Repository, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Repository
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if l, err := OpenLocal(sub); err == nil && l.Path() == sub {
			out = append(out, l)
		}
	}
	return out, nil
}

// Parent returns the repository rooted at this repository's parent
// directory, if that directory is itself a valid repository. Note this is
// directory-parent inheritance, unrelated to commit-parent ancestry.
func (l *Local) Parent() (Repository, error) {
	dir := filepath.Dir(l.path)
	parent, err := OpenLocal(dir)
	if err != nil {
		return nil, ErrNoParent
	}
	return parent, nil
}

// Branch creates a new bare repository named name nested inside this
// repository's directory. Nested branches are independent repositories
// related only by directory-parent inheritance, not refs within one repo.
func (l *Local) Branch(name, desc string) (Repository, error) {
	return NewLocal(filepath.Join(l.path, name), desc, true)
}

// Delete removes the repository's entire directory tree.
func (l *Local) Delete() error {
	return l.store.Delete()
}

// SetVersion resets the working tree to the commit at index (newest-first,
// per commits()/Versions()), a hard reset equivalent to the original's
// Local.setVersion.
func (l *Local) SetVersion(index int) error {
	v, err := l.versionAt(index)
	if err != nil {
		return err
	}
	return l.git("reset", "--hard", v.ID().String())
}

// Pull fetches and merges from the repository's configured origin,
// preferring the local tree on conflict ("-s ours"), exactly as the
// original's Local.pull.
func (l *Local) Pull() error {
	return l.git("pull", "-s", "ours")
}

// Push pushes refs/heads/master to the repository's configured origin.
func (l *Local) Push() error {
	return l.git("push", "origin", "master")
}

func (l *Local) git(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = l.path
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: git %v: %s", ErrGitCommand, args, out)
	}
	return nil
}

// GetRepoParent returns the repository that contains path: path itself if
// it is a repository, or the nearest ancestor directory that is, walking
// up to the filesystem root. It returns ErrRepoNotFound if no ancestor is
// a repository, matching the original's get_repo_parent fallback of
// returning the bare input path.
func GetRepoParent(path string) (Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	for dir := abs; ; {
		if l, err := OpenLocal(dir); err == nil {
			return l, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, ErrRepoNotFound
}

// Clone clones the repository at from into a new local repository at to,
// using the native git binary (the only native-transport requirement the
// whole package has: spec.md requires Clone/Pull/Push to speak real git
// transport, not a reimplementation of it).
func Clone(from, to string, bare bool) (*Local, error) {
	args := []string{"clone"}
	if bare {
		args = append(args, "--bare")
	}
	args = append(args, from, to)

	cmd := exec.Command("git", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: git %v: %s", ErrGitCommand, args, out)
	}
	return OpenLocal(to)
}
