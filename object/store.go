package object

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	gitobject "github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// Store is a content-addressed object store bound to one repository's git
// directory. It is a thin, typed wrapper over go-git's storer.Storer so
// that callers never have to reach into go-git's plumbing types directly.
type Store struct {
	repo    *gogit.Repository
	storer  *filesystem.Storage
	gitDir  string // absolute path to the directory holding objects/, refs/, HEAD
	workDir string // absolute path to the working tree root ("" for bare repos)
}

// Init creates a new repository at path (bare or with a working tree) and
// returns its Store.
func Init(path string, bare bool) (*Store, error) {
	repo, err := gogit.PlainInit(path, bare)
	if err != nil {
		return nil, fmt.Errorf("object: init %s: %w", path, err)
	}
	return newStore(repo, path, bare)
}

// Open walks up from path looking for a directory that is itself a bare
// repository, or whose .git subdirectory is one, exactly as spec.md §4.2
// describes. It fails with ErrInvalidRepository if none is found.
func Open(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("object: %w", err)
	}
	for dir := abs; ; {
		if repo, err := gogit.PlainOpen(dir); err == nil {
			return newStore(repo, dir, isBareStorer(repo))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrInvalidRepository
		}
		dir = parent
	}
}

func newStore(repo *gogit.Repository, path string, bare bool) (*Store, error) {
	fsStorer, ok := repo.Storer.(*filesystem.Storage)
	if !ok {
		return nil, fmt.Errorf("object: unsupported storage backend")
	}

	gitDir := fsStorer.Filesystem().Root()
	workDir := ""
	if !bare {
		workDir = filepath.Dir(gitDir)
		if filepath.Base(gitDir) != ".git" {
			// Non-standard layout (e.g. --separate-git-dir); fall back to
			// treating the git dir itself as the root for path resolution.
			workDir = gitDir
		}
	}

	return &Store{repo: repo, storer: fsStorer, gitDir: gitDir, workDir: workDir}, nil
}

func isBareStorer(repo *gogit.Repository) bool {
	wt, err := repo.Worktree()
	return err != nil || wt == nil
}

// GitDir returns the absolute path to the directory holding objects/,
// refs/ and HEAD (the repository root for a bare repo).
func (s *Store) GitDir() string { return s.gitDir }

// WorkDir returns the absolute path to the working tree root, or "" for a
// bare repository.
func (s *Store) WorkDir() string { return s.workDir }

// IsBare reports whether this repository has no working tree.
func (s *Store) IsBare() bool { return s.workDir == "" }

// PutBlob writes content as a blob object and returns its hash. Writing an
// already-stored blob is a no-op beyond recomputing its hash (idempotent).
func (s *Store) PutBlob(content []byte) (Hash, error) {
	obj := s.storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(content)))

	w, err := obj.Writer()
	if err != nil {
		return ZeroHash, fmt.Errorf("object: blob writer: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return ZeroHash, fmt.Errorf("object: blob write: %w", err)
	}
	if err := w.Close(); err != nil {
		return ZeroHash, fmt.Errorf("object: blob close: %w", err)
	}

	return s.storer.SetEncodedObject(obj)
}

// GetBlob reads back the raw bytes of a blob by hash.
func (s *Store) GetBlob(id Hash) ([]byte, error) {
	blob, err := gitobject.GetBlob(s.storer, id)
	if err != nil {
		if err == plumbing.ErrObjectNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("object: get blob %s: %w", id, err)
	}
	r, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("object: blob reader: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("object: blob read: %w", err)
	}
	return buf.Bytes(), nil
}

// PutTree encodes a sorted set of entries into a tree object and returns
// its hash. Identity is the hash of the canonical encoding, so two calls
// with the same entries always return the same hash.
func (s *Store) PutTree(entries []Entry) (Hash, error) {
	gitEntries := make([]gitobject.TreeEntry, len(entries))
	for i, e := range entries {
		gitEntries[i] = gitobject.TreeEntry{Name: e.Name, Mode: e.Mode, Hash: e.ID}
	}
	tree := &gitobject.Tree{Entries: gitEntries}

	obj := s.storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return ZeroHash, fmt.Errorf("object: tree encode: %w", err)
	}
	return s.storer.SetEncodedObject(obj)
}

// GetTree reads back a tree's entries by hash.
func (s *Store) GetTree(id Hash) ([]Entry, error) {
	tree, err := gitobject.GetTree(s.storer, id)
	if err != nil {
		if err == plumbing.ErrObjectNotFound {
			return nil, s.notFoundOrWrongType(id, ErrNotATree)
		}
		return nil, fmt.Errorf("object: get tree %s: %w", id, err)
	}
	entries := make([]Entry, len(tree.Entries))
	for i, e := range tree.Entries {
		entries[i] = Entry{Name: e.Name, Mode: e.Mode, ID: e.Hash}
	}
	return entries, nil
}

// PutCommit encodes commit metadata into a commit object and returns its
// hash.
func (s *Store) PutCommit(meta CommitMeta) (Hash, error) {
	commit := &gitobject.Commit{
		Author:       toGitSignature(meta.Author),
		Committer:    toGitSignature(meta.Committer),
		Message:      meta.Message,
		TreeHash:     meta.Tree,
		ParentHashes: meta.Parents,
	}

	obj := s.storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return ZeroHash, fmt.Errorf("object: commit encode: %w", err)
	}
	return s.storer.SetEncodedObject(obj)
}

// GetCommit reads back a commit's metadata by hash.
func (s *Store) GetCommit(id Hash) (CommitMeta, error) {
	commit, err := gitobject.GetCommit(s.storer, id)
	if err != nil {
		if err == plumbing.ErrObjectNotFound {
			return CommitMeta{}, s.notFoundOrWrongType(id, ErrNotACommit)
		}
		return CommitMeta{}, fmt.Errorf("object: get commit %s: %w", id, err)
	}
	return CommitMeta{
		Tree:      commit.TreeHash,
		Parents:   commit.ParentHashes,
		Author:    fromGitSignature(commit.Author),
		Committer: fromGitSignature(commit.Committer),
		Encoding:  "UTF-8",
		Message:   commit.Message,
	}, nil
}

// notFoundOrWrongType distinguishes "no object at this hash" from "an
// object exists at this hash, but not of the expected type": GetCommit/
// GetTree request a specific plumbing object type, so go-git reports both
// cases as the same plumbing.ErrObjectNotFound. A second, untyped lookup
// tells them apart so callers can get ErrNotACommit/ErrNotATree instead of
// a misleading ErrNotFound when the hash is simply the wrong kind of
// object (e.g. a blob hash passed where a commit was expected).
func (s *Store) notFoundOrWrongType(id Hash, wrongType error) error {
	if _, err := s.storer.EncodedObject(plumbing.AnyObject, id); err == nil {
		return wrongType
	}
	return ErrNotFound
}

func toGitSignature(s Signature) gitobject.Signature {
	return gitobject.Signature{Name: s.Name, Email: s.Email, When: s.When}
}

func fromGitSignature(s gitobject.Signature) Signature {
	return Signature{Name: s.Name, Email: s.Email, When: s.When}
}

// ReadRef resolves a reference name to a commit hash. Symbolic references
// (such as HEAD -> refs/heads/master) are followed until a direct one is
// reached.
func (s *Store) ReadRef(name string) (Hash, error) {
	ref, err := s.storer.Reference(plumbing.ReferenceName(name))
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return ZeroHash, ErrRefNotFound
		}
		return ZeroHash, fmt.Errorf("object: read ref %s: %w", name, err)
	}
	if ref.Type() == plumbing.SymbolicReference {
		return s.ReadRef(ref.Target().String())
	}
	return ref.Hash(), nil
}

// WriteRef sets a direct (non-symbolic) reference to point at id.
func (s *Store) WriteRef(name string, id Hash) error {
	ref := plumbing.NewHashReference(plumbing.ReferenceName(name), id)
	if err := s.storer.SetReference(ref); err != nil {
		return fmt.Errorf("object: write ref %s: %w", name, err)
	}
	return nil
}

// EnsureHEAD makes HEAD a symbolic reference to refs/heads/master if HEAD
// does not already exist. Called once at Init time.
func (s *Store) EnsureHEAD() error {
	if _, err := s.storer.Reference(plumbing.HEAD); err == nil {
		return nil
	}
	ref := plumbing.NewSymbolicReference(plumbing.HEAD, "refs/heads/master")
	return s.storer.SetReference(ref)
}

// Description reads the repository's free-text description file.
func (s *Store) Description() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.gitDir, "description"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("object: read description: %w", err)
	}
	return string(bytes.TrimRight(data, "\n")), nil
}

// SetDescription writes the repository's free-text description file.
func (s *Store) SetDescription(text string) error {
	path := filepath.Join(s.gitDir, "description")
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("object: write description: %w", err)
	}
	return nil
}

// Delete recursively removes the repository directory. For a non-bare
// repository this removes the whole working tree, not just .git.
func (s *Store) Delete() error {
	root := s.workDir
	if root == "" {
		root = s.gitDir
	}
	return os.RemoveAll(root)
}
