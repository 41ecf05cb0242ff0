package workspace

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestIsBlockedPath(t *testing.T) {
	if runtime.GOOS != "windows" {
		for _, path := range []string{"/", "/etc", "/usr", "/root"} {
			if !IsBlockedPath(path) {
				t.Fatalf("expected %s to be blocked", path)
			}
		}
		if IsBlockedPath("/home/user/notes.txt") {
			t.Fatalf("expected user path to be allowed")
		}
		// only the protected directory itself is refused
		if IsBlockedPath("/etc/myapp") {
			t.Fatalf("expected subpath of /etc to be allowed")
		}
	}
}

func TestIsDenylisted(t *testing.T) {
	denied := []string{
		".env",
		".env.local",
		"secret.pem",
		"server.key",
		filepath.Join("home", "user", ".ssh", "id_rsa"),
		filepath.Join(".aws", "credentials"),
		".npmrc",
	}
	for _, path := range denied {
		if !IsDenylisted(path) {
			t.Fatalf("expected %s to be denylisted", path)
		}
	}
	if IsDenylisted("notes.txt") {
		t.Fatalf("expected plain file to pass")
	}
}

func TestResolvePathExpandsHome(t *testing.T) {
	resolved, err := ResolvePath("~/notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filepath.IsAbs(resolved) {
		t.Fatalf("expected absolute path, got %s", resolved)
	}
}

func TestBuildContextSummary(t *testing.T) {
	ctx, err := BuildContext()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary := ctx.Summary()
	if summary == "" {
		t.Fatalf("expected non-empty summary")
	}
}
