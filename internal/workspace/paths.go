package workspace

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// System locations where writes and deletes are refused.
var blockedPaths = []string{
	"/",
	"/etc",
	"/usr",
	"/bin",
	"/sbin",
	"/var",
	"/root",
	`C:\Windows`,
	`C:\Windows\System32`,
	`C:\Program Files`,
}

// ResolvePath expands ~ and returns an absolute, cleaned path.
func ResolvePath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(filepath.Clean(path))
}

// IsBlockedPath reports whether path is one of the protected system
// locations. Only the location itself is blocked, not files beneath it,
// except for the filesystem root where everything direct is refused.
func IsBlockedPath(path string) bool {
	cleaned := filepath.Clean(path)
	for _, blocked := range blockedPaths {
		if strings.EqualFold(cleaned, blocked) {
			return true
		}
	}
	return false
}

// IsDenylisted returns true if the file likely holds credentials and
// should never be read or written by a tool.
func IsDenylisted(path string) bool {
	lower := strings.ToLower(path)
	base := strings.ToLower(filepath.Base(path))

	if strings.HasPrefix(base, ".env") {
		return true
	}
	if strings.HasSuffix(base, ".pem") || strings.HasSuffix(base, ".key") || strings.HasSuffix(base, ".p12") || strings.HasSuffix(base, ".pfx") {
		return true
	}
	if strings.HasPrefix(base, "id_rsa") || strings.HasPrefix(base, "id_ed25519") {
		return true
	}
	if base == ".npmrc" || base == ".netrc" {
		return true
	}
	if strings.Contains(lower, filepath.ToSlash(filepath.Join(".aws", "credentials"))) {
		return true
	}
	if strings.Contains(lower, filepath.ToSlash(filepath.Join(".docker", "config.json"))) {
		return true
	}
	return false
}

// DesktopPath returns the user's desktop directory, falling back to the
// home directory when none exists.
func DesktopPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	desktop := filepath.Join(home, "Desktop")
	if runtime.GOOS == "windows" {
		if _, err := os.Stat(desktop); err != nil {
			onedrive := filepath.Join(home, "OneDrive", "Desktop")
			if _, err := os.Stat(onedrive); err == nil {
				return onedrive
			}
		}
	}
	if _, err := os.Stat(desktop); err == nil {
		return desktop
	}
	return home
}
