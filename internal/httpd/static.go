package httpd

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/rsgalloway/grit/repo"
)

// StaticHandler serves static UI assets out of staticDir: the marker_regex
// + "/static/..." route of spec.md §6, and the catch-all UI route that
// falls back to index.html for any GET that isn't a git or JSON/RPC call.
type StaticHandler struct {
	staticDir string
}

// NewStaticHandler returns a StaticHandler rooted at staticDir.
func NewStaticHandler(staticDir string) *StaticHandler {
	return &StaticHandler{staticDir: staticDir}
}

// ServeAsset serves the file named by the "working_path" capture directly
// out of staticDir.
func (s *StaticHandler) ServeAsset(c *Ctx) error {
	workingPath := c.Param("working_path")
	if isPathEscape(workingPath) {
		http.Error(c.Writer(), "forbidden", http.StatusForbidden)
		return nil
	}
	http.ServeFile(c.Writer(), c.Request(), filepath.Join(s.staticDir, filepath.Clean("/"+workingPath)))
	return nil
}

// ServeIndex serves staticDir/index.html, the single-page UI entry point.
func (s *StaticHandler) ServeIndex(c *Ctx) error {
	http.ServeFile(c.Writer(), c.Request(), filepath.Join(s.staticDir, "index.html"))
	return nil
}

// FileHandler implements the "<path>/file" route: it streams an item's
// raw content, falling back to a same-named file under staticDir if the
// resolved repository has no matching item (mirroring the original's
// FileServer fallback to GRIT_STATIC_DIR).
type FileHandler struct {
	contentRoot string
	staticDir   string
}

// NewFileHandler returns a FileHandler rooted at contentRoot, falling
// back to staticDir.
func NewFileHandler(contentRoot, staticDir string) *FileHandler {
	return &FileHandler{contentRoot: contentRoot, staticDir: staticDir}
}

// Handle resolves the repository-relative item at the request's working
// path and streams its content.
func (f *FileHandler) Handle(c *Ctx) error {
	workingPath := c.Param("working_path")
	if isPathEscape(workingPath) {
		http.Error(c.Writer(), "forbidden", http.StatusForbidden)
		return nil
	}
	fullPath := resolveContentPath(f.contentRoot, workingPath)
	target, itemPath, err := resolveTarget(fullPath)
	if err == nil {
		if local, ok := target.(*repo.Local); ok {
			if data, derr := local.ItemData(itemPath); derr == nil {
				c.Writer().Write(data)
				return nil
			}
		}
	}

	fallback := filepath.Join(f.staticDir, filepath.Base(itemPath))
	if _, statErr := os.Stat(fallback); statErr != nil {
		http.NotFound(c.Writer(), c.Request())
		return nil
	}
	http.ServeFile(c.Writer(), c.Request(), fallback)
	return nil
}
