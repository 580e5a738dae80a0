package repo

import (
	"strings"
	"time"
)

// VersionInfo is the wire/domain-neutral description of one version,
// shared by Local (read straight off a commit) and Proxy (decoded from a
// JSON/RPC response). It replaces the original's free-attribute
// Version/Proxy duck typing with an explicit, typed contract.
type VersionInfo struct {
	ID      string    `json:"id"`
	Index   int       `json:"index"`
	Message string    `json:"comment"`
	Author  string    `json:"user"`
	When    time.Time `json:"date"`
}

// ItemInfo is the wire/domain-neutral description of one item.
type ItemInfo struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Kind    string `json:"type"` // "blob" or "tree"
	Mode    string `json:"mode"`
	Comment string `json:"comment"`
	URL     string `json:"url,omitempty"`
}

// Repository is the interface both Local and Proxy satisfy. A caller that
// holds a Repository never needs to know whether it is talking to an
// on-disk repository or one served over HTTP by another grit process.
type Repository interface {
	// Name is the repository's base name.
	Name() string

	// IsLocal reports whether this repository lives on the local
	// filesystem (true) or is a Proxy to a remote one (false).
	IsLocal() bool

	// Serialize returns the string-keyed attribute map the JSON/RPC "read"
	// action and Proxy's bootstrap request exchange.
	Serialize() (map[string]string, error)

	// Description returns the repository's free-text description.
	Description() (string, error)

	// SetDescription sets the repository's free-text description.
	SetDescription(desc string) error

	// Versions returns every version of the repository, newest first.
	Versions() ([]VersionInfo, error)

	// Items returns the repository's items, merged with directory-parent
	// items per spec.md §4.2, optionally filtered to paths matching the
	// anchored regex pathFilter (empty string means no filter).
	Items(pathFilter string) ([]ItemInfo, error)

	// Repos lists the immediate subdirectories that are themselves valid
	// repositories.
	Repos() ([]Repository, error)

	// Parent returns the directory-parent repository, or ErrNoParent if
	// this repository has none.
	Parent() (Repository, error)

	// Branch creates a new nested bare repository named name under this
	// one's path.
	Branch(name, desc string) (Repository, error)

	// Delete permanently removes the repository.
	Delete() error
}

// Open resolves url to a Repository: a Proxy if it starts with "http://"
// or "https://", a Local otherwise. This mirrors Repo._set_repo in the
// original: the same calls work against either kind of URL.
func Open(url string) (Repository, error) {
	if isRemote(url) {
		return OpenProxy(url)
	}
	return OpenLocal(url)
}

// New creates a new repository at url: a clone of cloneFrom if given,
// otherwise an empty repository. url's scheme determines whether the new
// repository is created locally or by asking a remote grit server to
// create it.
func New(url, cloneFrom string, bare bool) (Repository, error) {
	if cloneFrom != "" {
		return Clone(cloneFrom, url, bare)
	}
	if isRemote(url) {
		return NewProxyRepo(url, bare)
	}
	return NewLocal(url, "", bare)
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
