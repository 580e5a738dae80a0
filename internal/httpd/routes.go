package httpd

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/rsgalloway/grit/internal/config"
)

// gitCmdPattern matches the git-<cmd> suffix smart-HTTP uses for both the
// info/refs service query and the RPC POST routes (upload-pack,
// receive-pack).
var gitCmdPattern = `git-(?P<cmd>[a-z-]+)`

// BuildApp assembles gritd's full HTTP surface into one *App: the routing
// table of §4.7, in priority order — git info/refs, git smart-HTTP RPC,
// static assets, item file content, and finally the catch-all UI/JSON-RPC
// route — wrapped in request logging and panic recovery.
func BuildApp(cfg config.Config) *App {
	log := cfg.Logger()

	router := NewRouter()
	router.SetLogger(log)
	router.Use(Recover(log), RequestLogger(log))

	if cfg.URIMarker != "" {
		router.Use(stripURIMarker(cfg.URIMarker))
	}

	git := NewGitSmartHandler(cfg.ContentRoot)
	rpc := NewRPCHandler(cfg.ContentRoot)
	static := NewStaticHandler(cfg.StaticDir)
	file := NewFileHandler(cfg.ContentRoot, cfg.StaticDir)

	// <path>/info/refs?...service=git-<cmd> — GET/HEAD smart-HTTP discovery.
	infoRefs := regexp.MustCompile(`^(?P<working_path>.*)/info/refs$`)
	service := regexp.MustCompile(`^` + gitCmdPattern + `$`)
	infoRefsMatcher := func(req *http.Request) (map[string]string, bool) {
		if !service.MatchString(req.URL.Query().Get("service")) {
			return nil, false
		}
		loc := infoRefs.FindStringSubmatchIndex(req.URL.Path)
		if loc == nil {
			return nil, false
		}
		return namedGroups(infoRefs, req.URL.Path, loc), true
	}
	router.Handle(http.MethodGet, infoRefsMatcher, git.Handle)
	router.Handle(http.MethodHead, infoRefsMatcher, git.Handle)

	// <path>/git-<cmd> — POST smart-HTTP RPC (upload-pack / receive-pack).
	router.Post(`^(?P<working_path>.*)/`+gitCmdPattern+`$`, git.Handle)

	// /static/<path> — static UI asset.
	router.Get(`^/static/(?P<working_path>.*)$`, static.ServeAsset)

	// <path>/file — item file content.
	router.Get(`^(?P<working_path>.*)/file$`, file.Handle)

	// <path> — GET/HEAD -> UI index HTML; POST -> JSON/RPC.
	router.Get(`^(?P<working_path>.*)$`, static.ServeIndex)
	router.Post(`^(?P<working_path>.*)$`, rpc.Handle)

	return NewApp(router, WithLogger(log))
}

// stripURIMarker removes any ".*?/<marker>" prefix from the request path
// before routing, so a reverse proxy can mount gritd under a virtual
// folder without the router ever seeing it.
func stripURIMarker(marker string) Middleware {
	re := regexp.MustCompile(`^.*?/` + regexp.QuoteMeta(marker))
	return func(next Handler) Handler {
		return func(c *Ctx) error {
			path := c.Request().URL.Path
			if loc := re.FindStringIndex(path); loc != nil {
				stripped := path[loc[1]:]
				if !strings.HasPrefix(stripped, "/") {
					stripped = "/" + stripped
				}
				c.Request().URL.Path = stripped
			}
			return next(c)
		}
	}
}
