package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"deskagent/internal/util"
)

const maxProcessesDisplay = 50

// protectedProcesses are never killed regardless of what the model asks.
var protectedProcesses = map[string]struct{}{
	"systemd": {}, "init": {}, "kernel_task": {}, "launchd": {},
	"csrss.exe": {}, "wininit.exe": {}, "winlogon.exe": {}, "services.exe": {},
	"lsass.exe": {}, "smss.exe": {}, "explorer.exe": {}, "svchost.exe": {},
}

// appAliases maps friendly names to launch targets per platform.
var appAliases = map[string]map[string]string{
	"darwin": {
		"browser":    "Safari",
		"chrome":     "Google Chrome",
		"firefox":    "Firefox",
		"terminal":   "Terminal",
		"editor":     "TextEdit",
		"calculator": "Calculator",
		"finder":     "Finder",
	},
	"windows": {
		"browser":    "msedge",
		"chrome":     "chrome",
		"firefox":    "firefox",
		"terminal":   "wt",
		"editor":     "notepad",
		"calculator": "calc",
		"explorer":   "explorer",
	},
	"linux": {
		"browser":    "xdg-open https://",
		"chrome":     "google-chrome",
		"firefox":    "firefox",
		"terminal":   "x-terminal-emulator",
		"editor":     "gedit",
		"calculator": "gnome-calculator",
		"files":      "nautilus",
	},
}

// AppTool launches applications and inspects or stops processes.
type AppTool struct{}

func NewAppTool() *AppTool {
	return &AppTool{}
}

func (a *AppTool) Name() string { return "app" }

func (a *AppTool) Description() string {
	return "Manage applications and processes: open (launch an application by name), processes (list top processes by memory), kill (stop a process by PID or name), sysinfo (CPU, memory, disk and host details)."
}

func (a *AppTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{"type": "string", "enum": []string{"open", "processes", "kill", "sysinfo"}},
			"name":   map[string]any{"type": "string", "description": "application or process name"},
			"pid":    map[string]any{"type": "integer"},
			"filter": map[string]any{"type": "string", "description": "substring filter for process listing"},
		},
		"required":             []string{"action"},
		"additionalProperties": false,
	}
}

type appInput struct {
	Action string `json:"action"`
	Name   string `json:"name"`
	PID    int32  `json:"pid"`
	Filter string `json:"filter"`
}

type appOutput struct {
	Content string `json:"content"`
}

func (a *AppTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args appInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, err
	}

	start := time.Now()
	var content string
	var err error
	switch args.Action {
	case "open":
		content, err = a.openApp(ctx, args.Name)
	case "processes":
		content, err = a.listProcesses(args.Filter)
	case "kill":
		content, err = a.killProcess(args.PID, args.Name)
	case "sysinfo":
		content, err = a.systemInfo()
	default:
		return Result{}, fmt.Errorf("unknown action: %s", args.Action)
	}
	if err != nil {
		return Result{}, err
	}

	return Result{
		ToolName:   a.Name(),
		Payload:    appOutput{Content: content},
		Preview:    util.Preview(content, 12, 2000),
		LineCount:  strings.Count(content, "\n") + 1,
		ByteCount:  len(content),
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (a *AppTool) openApp(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("name is required for open")
	}
	target := name
	if aliases, ok := appAliases[runtime.GOOS]; ok {
		if resolved, ok := aliases[strings.ToLower(name)]; ok {
			target = resolved
		}
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", "-a", target)
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/C", "start", "", target)
	default:
		parts := strings.Fields(target)
		cmd = exec.CommandContext(ctx, parts[0], parts[1:]...)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("could not launch %s: %w", name, err)
	}
	// detach; the launched app outlives the tool call
	go func() { _ = cmd.Wait() }()
	return fmt.Sprintf("Launched %s", name), nil
}

type processRow struct {
	pid  int32
	name string
	cpu  float64
	mem  float32
}

func (a *AppTool) listProcesses(filter string) (string, error) {
	procs, err := process.Processes()
	if err != nil {
		return "", fmt.Errorf("could not list processes: %w", err)
	}

	filter = strings.ToLower(filter)
	var rows []processRow
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		if filter != "" && !strings.Contains(strings.ToLower(name), filter) {
			continue
		}
		cpuPct, _ := p.CPUPercent()
		memPct, _ := p.MemoryPercent()
		rows = append(rows, processRow{pid: p.Pid, name: name, cpu: cpuPct, mem: memPct})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].mem > rows[j].mem })

	total := len(rows)
	if len(rows) > maxProcessesDisplay {
		rows = rows[:maxProcessesDisplay]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %-32s %8s %8s\n", "PID", "NAME", "CPU%", "MEM%")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	for _, row := range rows {
		name := row.name
		if len(name) > 32 {
			name = name[:32]
		}
		fmt.Fprintf(&b, "%-8d %-32s %8.1f %8.1f\n", row.pid, name, row.cpu, row.mem)
	}
	fmt.Fprintf(&b, "\nShowing %d of %d processes", len(rows), total)
	return b.String(), nil
}

func (a *AppTool) killProcess(pid int32, name string) (string, error) {
	if pid == 0 && name == "" {
		return "", errors.New("pid or name is required for kill")
	}

	var targets []*process.Process
	if pid != 0 {
		p, err := process.NewProcess(pid)
		if err != nil {
			return "", fmt.Errorf("no process with pid %d", pid)
		}
		targets = append(targets, p)
	} else {
		procs, err := process.Processes()
		if err != nil {
			return "", err
		}
		needle := strings.ToLower(name)
		for _, p := range procs {
			pname, err := p.Name()
			if err != nil {
				continue
			}
			if strings.ToLower(pname) == needle {
				targets = append(targets, p)
			}
		}
		if len(targets) == 0 {
			return "", fmt.Errorf("no process named %q", name)
		}
	}

	var killed []string
	for _, p := range targets {
		pname, _ := p.Name()
		if _, protected := protectedProcesses[strings.ToLower(pname)]; protected {
			return "", fmt.Errorf("refusing to kill protected system process %q", pname)
		}
		// graceful stop first, hard kill if it does not exit
		if err := p.Terminate(); err != nil {
			if err := p.Kill(); err != nil {
				return "", fmt.Errorf("could not stop %s (pid %d): %w", pname, p.Pid, err)
			}
		}
		killed = append(killed, fmt.Sprintf("%s (pid %d)", pname, p.Pid))
	}
	return "Stopped " + strings.Join(killed, ", "), nil
}

func (a *AppTool) systemInfo() (string, error) {
	var b strings.Builder

	if info, err := host.Info(); err == nil {
		fmt.Fprintf(&b, "Host: %s\nOS: %s %s (%s)\nUptime: %s\n",
			info.Hostname, info.Platform, info.PlatformVersion, info.KernelArch,
			(time.Duration(info.Uptime) * time.Second).String())
	}

	if counts, err := cpu.Counts(true); err == nil {
		fmt.Fprintf(&b, "\nCPU: %d logical cores\n", counts)
	}
	if percents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(percents) > 0 {
		fmt.Fprintf(&b, "CPU usage: %.1f%%\n", percents[0])
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(&b, "\nMemory: %s used of %s (%.1f%%)\n",
			util.FormatSize(int64(vm.Used)), util.FormatSize(int64(vm.Total)), vm.UsedPercent)
	}

	diskPath := "/"
	if runtime.GOOS == "windows" {
		diskPath = "C:\\"
	}
	if usage, err := disk.Usage(diskPath); err == nil {
		fmt.Fprintf(&b, "Disk (%s): %s used of %s (%.1f%%), %s free\n",
			diskPath, util.FormatSize(int64(usage.Used)), util.FormatSize(int64(usage.Total)),
			usage.UsedPercent, util.FormatSize(int64(usage.Free)))
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
