package httpd

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rsgalloway/grit/internal/config"
	"github.com/rsgalloway/grit/repo"
)

func TestBuildApp_StaticRouteBeatsCatchAll(t *testing.T) {
	root := t.TempDir()
	static := t.TempDir()
	if err := writeFile(filepath.Join(static, "index.html"), "<html>ui</html>"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(static, "app.js"), "console.log(1)"); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{ServerPort: 0, LogLevel: 0, StaticDir: static, ContentRoot: root}
	app := BuildApp(cfg)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example/static/app.js", nil)
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "console.log(1)" {
		t.Fatalf("got body %q", rr.Body.String())
	}
}

func TestBuildApp_CatchAllServesIndex(t *testing.T) {
	root := t.TempDir()
	static := t.TempDir()
	if err := writeFile(filepath.Join(static, "index.html"), "<html>ui</html>"); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.NewLocal(filepath.Join(root, "proj"), "", true); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{StaticDir: static, ContentRoot: root}
	app := BuildApp(cfg)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://example/proj", nil)
	app.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "<html>ui</html>" {
		t.Fatalf("got body %q, want index.html content", rr.Body.String())
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
