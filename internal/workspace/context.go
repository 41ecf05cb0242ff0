package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// Context summarizes the host for prompting, so the model knows which
// machine it is driving before it calls any tool.
type Context struct {
	Hostname  string
	OS        string
	Platform  string
	Arch      string
	Home      string
	Desktop   string
	Folders   []string
	Processes uint64
	Warnings  []string
}

// BuildContext gathers host metadata and well-known user folders.
func BuildContext() (Context, error) {
	ctx := Context{OS: runtime.GOOS, Arch: runtime.GOARCH}

	if info, err := host.Info(); err == nil {
		ctx.Hostname = info.Hostname
		ctx.Platform = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		ctx.Processes = info.Procs
	} else {
		ctx.Warnings = append(ctx.Warnings, "host metadata unavailable: "+err.Error())
	}

	home, err := os.UserHomeDir()
	if err != nil {
		ctx.Warnings = append(ctx.Warnings, "home directory unavailable: "+err.Error())
		return ctx, nil
	}
	ctx.Home = home
	ctx.Desktop = DesktopPath()

	for _, name := range []string{"Desktop", "Documents", "Downloads", "Pictures", "Music", "Videos"} {
		path := filepath.Join(home, name)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			ctx.Folders = append(ctx.Folders, name)
		}
	}
	sort.Strings(ctx.Folders)
	return ctx, nil
}

// Summary renders a concise summary suitable for prompt context.
func (c Context) Summary() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("OS: %s/%s", c.OS, c.Arch))
	if c.Platform != "" {
		b.WriteString(" (" + c.Platform + ")")
	}
	b.WriteString("\n")
	if c.Hostname != "" {
		b.WriteString("Hostname: " + c.Hostname + "\n")
	}
	if c.Home != "" {
		b.WriteString("Home: " + c.Home + "\n")
	}
	if c.Desktop != "" {
		b.WriteString("Desktop: " + c.Desktop + "\n")
	}
	if len(c.Folders) > 0 {
		b.WriteString("User folders: " + strings.Join(c.Folders, ", ") + "\n")
	}
	if c.Processes > 0 {
		b.WriteString(fmt.Sprintf("Running processes: %d\n", c.Processes))
	}
	for _, warning := range c.Warnings {
		b.WriteString("Warning: " + warning + "\n")
	}
	return b.String()
}
