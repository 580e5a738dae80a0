package httpd

import (
	"net/http/cgi"
	"os"
	"os/exec"
	"path/filepath"
)

// GitSmartHandler serves the smart-HTTP git protocol (info/refs,
// git-upload-pack, git-receive-pack) for repositories rooted at
// contentRoot by shelling out to the `git http-backend` CGI program,
// exactly as repo.Local wraps the git binary for clone/pull/push: rather
// than reimplementing pkt-line/pack negotiation, the native git binary
// does it, byte-compatible with every real git client.
type GitSmartHandler struct {
	contentRoot string
	cgi         *cgi.Handler
}

// NewGitSmartHandler builds a handler that serves repositories under
// contentRoot via git http-backend.
func NewGitSmartHandler(contentRoot string) *GitSmartHandler {
	abs, err := filepath.Abs(contentRoot)
	if err != nil {
		abs = contentRoot
	}
	return &GitSmartHandler{
		contentRoot: abs,
		cgi: &cgi.Handler{
			Path: gitExecutablePath(),
			Args: []string{"http-backend"},
			Dir:  abs,
			Env: []string{
				"GIT_PROJECT_ROOT=" + abs,
				"GIT_HTTP_EXPORT_ALL=1",
			},
			InheritEnv: []string{"PATH"},
		},
	}
}

// gitExecutablePath resolves the git binary cgi.Handler should exec.
// Unlike exec.Command, cgi.Handler execs Path directly without consulting
// PATH, so a bare "git" has to be resolved to an absolute path up front
// via exec.LookPath; if that fails, "git" is left as-is so the error
// surfaces clearly when the handler actually tries to run it.
func gitExecutablePath() string {
	if p := os.Getenv("GRIT_GIT_BINARY"); p != "" {
		return p
	}
	if p, err := exec.LookPath("git"); err == nil {
		return p
	}
	return "git"
}

// Handle serves one smart-HTTP request through git http-backend.
func (g *GitSmartHandler) Handle(c *Ctx) error {
	g.cgi.ServeHTTP(c.Writer(), c.Request())
	return nil
}
