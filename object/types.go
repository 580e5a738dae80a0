package object

import (
	"time"

	"github.com/go-git/go-git/v5/plumbing/filemode"
)

// Kind distinguishes the two object types an Item can reference. Commits
// and tags are never addressed through Item; they live in Commit below.
type Kind string

const (
	KindBlob Kind = "blob"
	KindTree Kind = "tree"
)

// Mode is a git file mode: it encodes the file/directory/executable bits
// tree entries carry. It is a thin re-export of go-git's filemode so that
// callers outside this package never import go-git directly.
type Mode = filemode.FileMode

const (
	ModeFile       = filemode.Regular
	ModeExecutable = filemode.Executable
	ModeSymlink    = filemode.Symlink
	ModeDir        = filemode.Dir
	ModeSubmodule  = filemode.Submodule
)

// KindOf reports the object kind a tree entry's mode refers to: ModeDir
// means the entry is itself a tree, anything else is a blob.
func KindOf(mode Mode) Kind {
	if mode == ModeDir {
		return KindTree
	}
	return KindBlob
}

// Entry is one (name, mode, object-id) triple within a Tree.
type Entry struct {
	Name string
	Mode Mode
	ID   Hash
}

// Signature is an author or committer record on a Commit.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// CommitMeta is the full metadata of a commit object, independent of its
// runtime representation in package version.
type CommitMeta struct {
	Tree      Hash
	Parents   []Hash
	Author    Signature
	Committer Signature
	Encoding  string
	Message   string
}
