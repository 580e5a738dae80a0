package httpd

import (
	"path/filepath"
	"testing"
)

func TestNewGitSmartHandler_ResolvesContentRoot(t *testing.T) {
	g := NewGitSmartHandler(".")
	if g.contentRoot == "" || g.contentRoot == "." {
		t.Fatalf("expected contentRoot to be resolved to an absolute path, got %q", g.contentRoot)
	}
	if g.cgi.Path == "" {
		t.Fatalf("expected a git executable path to be configured")
	}
}

func TestGitExecutablePath_EnvOverride(t *testing.T) {
	t.Setenv("GRIT_GIT_BINARY", "/opt/custom/git")
	if got := gitExecutablePath(); got != "/opt/custom/git" {
		t.Fatalf("got %q, want /opt/custom/git", got)
	}
}

func TestGitExecutablePath_Default(t *testing.T) {
	t.Setenv("GRIT_GIT_BINARY", "")
	got := gitExecutablePath()
	if got == "" {
		t.Fatal("expected a non-empty git executable path")
	}
	if filepath.Base(got) != "git" {
		t.Fatalf("got %q, want a path resolving to the git binary", got)
	}
}
