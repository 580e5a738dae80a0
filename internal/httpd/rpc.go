package httpd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rsgalloway/grit/item"
	"github.com/rsgalloway/grit/repo"
)

// rpcEnvelope is the wire format every JSON/RPC response is wrapped in,
// fixed by spec.md §4.8.
type rpcEnvelope struct {
	Success bool `json:"success"`
	Failure bool `json:"failure"`
	Data    any  `json:"data"`
}

// paramKind names the few shapes a JSON/RPC action parameter can take.
// This replaces the original's `eval(value)` literal-evaluation (a code
// execution hole) with an explicit, closed set of decodings per the
// REDESIGN FLAGS note.
type paramKind int

const (
	kindString paramKind = iota
	kindInt
	kindBool
)

type paramSpec struct {
	name string
	kind paramKind
}

// actionFunc implements one JSON/RPC action against the repository (or
// item) resolved from the request path.
type actionFunc func(target repo.Repository, itemPath string, args map[string]any) (any, error)

type actionSpec struct {
	params []paramSpec
	fn     actionFunc
}

// RPCHandler implements the JSON/RPC dispatch table spec.md §4.8 names:
// read, new, branch, repos, items, versions, submodules, addSubmodule,
// addVersion, parent, upload, plus the "data" action (handled specially,
// since it returns raw bytes rather than a JSON envelope).
type RPCHandler struct {
	contentRoot string
	actions     map[string]actionSpec
}

// NewRPCHandler builds an RPCHandler resolving repository paths under
// contentRoot.
func NewRPCHandler(contentRoot string) *RPCHandler {
	h := &RPCHandler{contentRoot: contentRoot}
	h.actions = map[string]actionSpec{
		"read": {fn: actionRead},
		"new": {
			params: []paramSpec{{"path", kindString}, {"bare", kindBool}},
			fn:     actionNew,
		},
		"branch": {
			params: []paramSpec{{"name", kindString}, {"desc", kindString}},
			fn:     actionBranch,
		},
		"repos": {fn: actionRepos},
		"items": {
			params: []paramSpec{{"path", kindString}},
			fn:     actionItems,
		},
		"versions": {fn: actionVersions},
		"submodules": {
			fn: actionNotImplemented,
		},
		"addSubmodule": {
			params: []paramSpec{{"url", kindString}, {"name", kindString}},
			fn:     actionNotImplemented,
		},
		"addVersion": {fn: actionAddVersion},
		"parent":     {fn: actionParent},
		"upload": {
			params: []paramSpec{{"filename", kindString}, {"filedata", kindString}},
			fn:     actionUpload,
		},
	}
	return h
}

// Handle resolves the repository (or item) addressed by the request path
// and dispatches to the named action.
func (h *RPCHandler) Handle(c *Ctx) error {
	req := c.Request()
	if err := req.ParseForm(); err != nil {
		return writeRPCFailure(c, err)
	}

	action := req.Form.Get("action")
	if action == "" {
		action = "read"
	}

	workingPath := c.Param("working_path")
	if isPathEscape(workingPath) {
		http.Error(c.Writer(), "forbidden", http.StatusForbidden)
		return nil
	}

	fullPath := resolveContentPath(h.contentRoot, workingPath)
	target, itemPath, err := resolveTarget(fullPath)
	if err != nil {
		return writeRPCFailure(c, err)
	}

	if action == "data" {
		return h.serveData(c, target, itemPath)
	}

	spec, ok := h.actions[action]
	if !ok {
		return writeRPCFailure(c, fmt.Errorf("unknown action %q", action))
	}

	args, err := decodeParams(req.Form, spec.params)
	if err != nil {
		return writeRPCFailure(c, err)
	}

	result, err := spec.fn(target, itemPath, args)
	if err != nil {
		return writeRPCFailure(c, err)
	}
	return writeRPCSuccess(c, result)
}

// isPathEscape reports whether workingPath, taken at face value (before
// resolveContentPath's defensive leading-slash anchor), walks above its
// root via ".." segments. spec.md's path-safety rule (§4.7) requires an
// escape attempt like this to fail the request with 403, rather than
// silently letting the anchor remap it to a different in-root path.
func isPathEscape(workingPath string) bool {
	return strings.HasPrefix(filepath.Clean(strings.TrimLeft(workingPath, "/")), "..")
}

// resolveContentPath joins workingPath onto contentRoot the way the
// original's handler joins PATH_INFO onto content_path. Callers must
// reject escape attempts with isPathEscape first; this only provides a
// defensive second anchor so a path that slips through still can't
// resolve outside contentRoot.
func resolveContentPath(contentRoot, workingPath string) string {
	clean := filepath.Clean("/" + strings.Trim(workingPath, "/"))
	return filepath.Join(contentRoot, clean)
}

// resolveTarget finds the repository containing fullPath and the
// relative item path within it, mirroring the original handler's
// "get the item, swap with repo" step: if the remaining path resolves to
// an item, later action funcs operate on the containing repo with
// itemPath set, rather than on an *item.Item directly, since only the
// "data" action and the <path>/file route need the resolved item at all.
func resolveTarget(fullPath string) (repo.Repository, string, error) {
	target, err := repo.GetRepoParent(fullPath)
	if err != nil {
		return nil, "", err
	}
	local, ok := target.(*repo.Local)
	if !ok {
		return target, "", nil
	}
	rel := strings.TrimPrefix(fullPath, local.Path())
	rel = strings.TrimPrefix(rel, string(filepath.Separator))
	return target, rel, nil
}

func decodeParams(form url.Values, specs []paramSpec) (map[string]any, error) {
	out := make(map[string]any, len(form))
	known := make(map[string]paramKind, len(specs))
	for _, s := range specs {
		known[s.name] = s.kind
	}

	for key, values := range form {
		if key == "action" || len(values) == 0 {
			continue
		}
		raw := values[0]
		kind, isKnown := known[key]
		if !isKnown {
			out[key] = raw
			continue
		}
		switch kind {
		case kindInt:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", key, err)
			}
			out[key] = n
		case kindBool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", key, err)
			}
			out[key] = b
		default:
			out[key] = raw
		}
	}
	return out, nil
}

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argBool(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func actionRead(target repo.Repository, itemPath string, args map[string]any) (any, error) {
	return target.Serialize()
}

func actionNew(target repo.Repository, itemPath string, args map[string]any) (any, error) {
	path := argString(args, "path")
	bare := argBool(args, "bare", true)
	r, err := repo.New(path, "", bare)
	if err != nil {
		return nil, err
	}
	return r.Serialize()
}

func actionBranch(target repo.Repository, itemPath string, args map[string]any) (any, error) {
	name := argString(args, "name")
	desc := argString(args, "desc")
	branch, err := target.Branch(name, desc)
	if err != nil {
		return nil, err
	}
	return branch.Serialize()
}

func actionRepos(target repo.Repository, itemPath string, args map[string]any) (any, error) {
	repos, err := target.Repos()
	if err != nil {
		return nil, err
	}
	out := make([]any, len(repos))
	for i, r := range repos {
		s, err := r.Serialize()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func actionItems(target repo.Repository, itemPath string, args map[string]any) (any, error) {
	pathFilter := argString(args, "path")
	return target.Items(pathFilter)
}

func actionVersions(target repo.Repository, itemPath string, args map[string]any) (any, error) {
	return target.Versions()
}

func actionNotImplemented(target repo.Repository, itemPath string, args map[string]any) (any, error) {
	return nil, repo.ErrNotImplemented
}

func actionAddVersion(target repo.Repository, itemPath string, args map[string]any) (any, error) {
	local, ok := target.(*repo.Local)
	if !ok {
		return nil, repo.ErrNotImplemented
	}
	v, err := local.AddVersion()
	if err != nil {
		return nil, err
	}
	return map[string]any{"index": v.Index()}, nil
}

func actionParent(target repo.Repository, itemPath string, args map[string]any) (any, error) {
	parent, err := target.Parent()
	if err != nil {
		if err == repo.ErrNoParent {
			return []any{}, nil
		}
		return nil, err
	}
	s, err := parent.Serialize()
	if err != nil {
		return nil, err
	}
	return []any{s}, nil
}

func actionUpload(target repo.Repository, itemPath string, args map[string]any) (any, error) {
	local, ok := target.(*repo.Local)
	if !ok {
		return nil, repo.ErrNotImplemented
	}
	name := argString(args, "filename")
	if name == "" {
		name = "Untitled"
	}
	data := argString(args, "filedata")

	it, err := item.FromString(local.Store(), name, []byte(data))
	if err != nil {
		return nil, err
	}
	if err := local.AddItem(it, ""); err != nil {
		return nil, err
	}
	return map[string]any{"name": name}, nil
}

// serveData streams an item's raw bytes, honoring the "data" action's
// special contract: it returns the payload directly, with no JSON
// envelope, since a text editor or `curl` downloading a file shouldn't
// have to unwrap one.
func (h *RPCHandler) serveData(c *Ctx, target repo.Repository, itemPath string) error {
	local, ok := target.(*repo.Local)
	if !ok {
		return writeRPCFailure(c, repo.ErrNotImplemented)
	}
	data, err := local.ItemData(itemPath)
	if err != nil {
		http.NotFound(c.Writer(), c.Request())
		return nil
	}
	c.Writer().Write(data)
	return nil
}

func writeRPCSuccess(c *Ctx, data any) error {
	c.Writer().Header().Set("Content-Type", "application/json")
	c.Writer().WriteHeader(http.StatusOK)
	return json.NewEncoder(c.Writer()).Encode(rpcEnvelope{Success: true, Data: data})
}

func writeRPCFailure(c *Ctx, err error) error {
	slog.Error("json/rpc request failed", slog.String("path", c.Request().URL.Path), slog.Any("error", err))
	c.Writer().Header().Set("Content-Type", "application/json")
	c.Writer().WriteHeader(http.StatusBadRequest)
	return json.NewEncoder(c.Writer()).Encode(rpcEnvelope{
		Failure: true,
		Data:    map[string]string{"msg": err.Error()},
	})
}
