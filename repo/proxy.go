package repo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// rpcResponse is the wire shape every JSON/RPC action returns, as fixed by
// spec.md §4.8: {success, failure, data, msg?}.
type rpcResponse struct {
	Success bool            `json:"success"`
	Failure bool            `json:"failure"`
	Data    json.RawMessage `json:"data"`
	Msg     string          `json:"msg"`
}

// Proxy is a Repository served by another grit process over HTTP. Every
// method call becomes one POST request with action=<method>; this
// replaces the original's __getattr__-based dynamic dispatch (any
// attribute access becomes an HTTP call) with one explicit method per
// verb, per the REDESIGN FLAGS note on dynamic attribute delegation.
type Proxy struct {
	baseURL string
	name    string

	client *http.Client
}

var _ Repository = (*Proxy)(nil)

// OpenProxy binds to an existing remote repository at url and fetches its
// attributes via the "read" action, exactly as Proxy.__init__ does in the
// original.
func OpenProxy(rawurl string) (*Proxy, error) {
	p := &Proxy{baseURL: rawurl, client: http.DefaultClient}
	data, err := p.request("read", nil)
	if err != nil {
		return nil, err
	}
	var attrs map[string]string
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("%w: decoding read response: %v", ErrProxy, err)
	}
	p.name = attrs["name"]
	return p, nil
}

// NewProxyRepo asks the remote server at url to create a new repository
// there via the "new" action.
func NewProxyRepo(rawurl string, bare bool) (*Proxy, error) {
	p := &Proxy{baseURL: rawurl, client: http.DefaultClient}
	params := url.Values{"path": {rawurl}, "bare": {strconv.FormatBool(bare)}}
	data, err := p.request("new", params)
	if err != nil {
		return nil, err
	}
	var attrs map[string]string
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("%w: decoding new response: %v", ErrProxy, err)
	}
	p.name = attrs["name"]
	return p, nil
}

// request performs one JSON/RPC POST and unwraps the {success,failure}
// envelope, returning the raw "data" payload for the caller to decode.
func (p *Proxy) request(action string, params url.Values) (json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("action", action)

	resp, err := p.client.PostForm(p.baseURL, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProxy, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrProxy, err)
	}

	var rpc rpcResponse
	if err := json.Unmarshal(body, &rpc); err != nil {
		return nil, fmt.Errorf("%w: decoding envelope: %v", ErrProxy, err)
	}
	if !rpc.Success || rpc.Failure {
		msg := rpc.Msg
		if msg == "" {
			msg = string(rpc.Data)
		}
		return nil, fmt.Errorf("%w: %s", ErrProxy, msg)
	}
	return rpc.Data, nil
}

// Name returns the repository's name as reported by the remote server.
func (p *Proxy) Name() string { return p.name }

// IsLocal always returns false for Proxy.
func (p *Proxy) IsLocal() bool { return false }

// Serialize fetches the remote repository's attribute map.
func (p *Proxy) Serialize() (map[string]string, error) {
	data, err := p.request("read", nil)
	if err != nil {
		return nil, err
	}
	var attrs map[string]string
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProxy, err)
	}
	return attrs, nil
}

// Description returns the remote repository's description.
func (p *Proxy) Description() (string, error) {
	attrs, err := p.Serialize()
	if err != nil {
		return "", err
	}
	return attrs["desc"], nil
}

// SetDescription is not supported through a Proxy: the original's
// Proxy.update explicitly raises "cannot update a proxy repo", and
// spec.md names no JSON/RPC action for it.
func (p *Proxy) SetDescription(desc string) error {
	return fmt.Errorf("%w: cannot set description on a proxy repository", ErrNotImplemented)
}

// Versions fetches the remote repository's version list via "versions".
func (p *Proxy) Versions() ([]VersionInfo, error) {
	data, err := p.request("versions", nil)
	if err != nil {
		return nil, err
	}
	var out []VersionInfo
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProxy, err)
	}
	return out, nil
}

// Items fetches the remote repository's items via "items", passing
// pathFilter through as the "path" form parameter.
func (p *Proxy) Items(pathFilter string) ([]ItemInfo, error) {
	params := url.Values{}
	if pathFilter != "" {
		params.Set("path", pathFilter)
	}
	data, err := p.request("items", params)
	if err != nil {
		return nil, err
	}
	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProxy, err)
	}
	out := make([]ItemInfo, len(raw))
	for i, m := range raw {
		out[i] = ItemInfo{Path: m["path"], Name: m["name"], Kind: m["type"], Mode: m["mode"], Comment: m["comment"]}
	}
	return out, nil
}

// Repos fetches the list of repositories nested under the remote
// repository's path via "repos", wrapping each as its own Proxy bound to
// the URL the server reports.
func (p *Proxy) Repos() ([]Repository, error) {
	data, err := p.request("repos", nil)
	if err != nil {
		return nil, err
	}
	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProxy, err)
	}
	out := make([]Repository, 0, len(raw))
	for _, m := range raw {
		child := childURL(p.baseURL, m)
		out = append(out, &Proxy{baseURL: child, name: m["name"], client: p.client})
	}
	return out, nil
}

// Parent fetches the remote repository's directory-parent via "parent".
func (p *Proxy) Parent() (Repository, error) {
	data, err := p.request("parent", nil)
	if err != nil {
		return nil, err
	}
	var raw []map[string]string
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) == 0 {
		return nil, ErrNoParent
	}
	m := raw[0]
	child := childURL(p.baseURL, m)
	return &Proxy{baseURL: child, name: m["name"], client: p.client}, nil
}

// Branch asks the remote server to create a nested branch via "branch".
func (p *Proxy) Branch(name, desc string) (Repository, error) {
	params := url.Values{"name": {name}}
	if desc != "" {
		params.Set("desc", desc)
	}
	data, err := p.request("branch", params)
	if err != nil {
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProxy, err)
	}
	child := childURL(p.baseURL, m)
	return &Proxy{baseURL: child, name: m["name"], client: p.client}, nil
}

// Delete asks the remote server to delete the repository via "delete".
// Note: spec.md's JSON/RPC dispatch table does not name a "delete"
// action; this is retained for interface parity with Local but will fail
// with ErrProxy against a server that doesn't recognize it.
func (p *Proxy) Delete() error {
	_, err := p.request("delete", nil)
	return err
}

// childURL builds the URL for a nested repository reported by the
// server, using the "url" attribute if present and falling back to
// appending the reported path/name to this proxy's base URL, matching
// the original's `Proxy(item.get('url', self.url))` fallback.
func childURL(base string, attrs map[string]string) string {
	if u, ok := attrs["url"]; ok && u != "" {
		return u
	}
	name := attrs["path"]
	if name == "" {
		name = attrs["name"]
	}
	return strings.TrimRight(base, "/") + "/" + name
}
