package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"

	"deskagent/internal/util"
	"deskagent/internal/workspace"
)

const (
	defaultShellTimeout = 30
	maxShellTimeout     = 300
)

// ShellTool runs a command through the system shell.
type ShellTool struct{}

// NewShellTool constructs a shell tool.
func NewShellTool() *ShellTool {
	return &ShellTool{}
}

func (s *ShellTool) Name() string { return "execute_command" }

func (s *ShellTool) Description() string {
	return "Run a shell command and return stdout, stderr, and the exit code. Destructive commands are blocked; a timeout prevents hanging."
}

func (s *ShellTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command":         map[string]any{"type": "string"},
			"cwd":             map[string]any{"type": "string"},
			"timeout_seconds": map[string]any{"type": "integer", "minimum": 1, "maximum": maxShellTimeout},
		},
		"required":             []string{"command"},
		"additionalProperties": false,
	}
}

type shellInput struct {
	Command        string `json:"command"`
	Cwd            string `json:"cwd"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type shellOutput struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	DurationMs int64  `json:"duration_ms"`
	Truncated  bool   `json:"truncated"`
}

var (
	interactiveCommands = map[string]struct{}{
		"vim": {}, "vi": {}, "nano": {}, "less": {}, "more": {}, "man": {}, "top": {}, "htop": {}, "ssh": {}, "sftp": {},
	}
	destructivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\brm\s+-rf?\s+/(\s|$|\*)`),
		regexp.MustCompile(`(?i)\bmkfs\b`),
		regexp.MustCompile(`(?i)\bdd\s+if=/dev/zero\b`),
		regexp.MustCompile(`(?i)\b(shutdown|reboot|halt|poweroff)\b`),
		regexp.MustCompile(`:\(\)\s*\{`),
		regexp.MustCompile(`(?i)chmod\s+-R\s+777\s+/`),
		regexp.MustCompile(`(?i)(>|>>)\s*(/etc|/bin|/usr|/var|/lib|/sbin|/System|/Library)`),
	}
)

func (s *ShellTool) Execute(ctx context.Context, input json.RawMessage, meta Meta) (Result, error) {
	var args shellInput
	if err := json.Unmarshal(input, &args); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(args.Command) == "" {
		return Result{}, errors.New("command is required")
	}

	first := firstWord(args.Command)
	if _, ok := interactiveCommands[strings.ToLower(first)]; ok {
		return Result{}, fmt.Errorf("interactive commands are not allowed: %s", first)
	}
	if !meta.UnsafeShell {
		for _, re := range destructivePatterns {
			if re.MatchString(args.Command) {
				return Result{}, fmt.Errorf("command blocked for security reasons: %s", first)
			}
		}
	}

	timeout := args.TimeoutSeconds
	if timeout <= 0 {
		timeout = defaultShellTimeout
	}
	if timeout > maxShellTimeout {
		timeout = maxShellTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := shellCommand(ctx, args.Command)
	if strings.TrimSpace(args.Cwd) != "" {
		cwd, err := workspace.ResolvePath(args.Cwd)
		if err != nil {
			return Result{}, err
		}
		cmd.Dir = cwd
	} else {
		cmd.Dir = meta.HomeDir
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start).Milliseconds()

	if ctx.Err() == context.DeadlineExceeded {
		return Result{}, fmt.Errorf("command timed out after %d seconds", timeout)
	}

	exitCode := 0
	if err != nil {
		exitErr := &exec.ExitError{}
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return Result{}, err
		}
	}

	outStr := util.RedactSecrets(stdout.String())
	errStr := util.RedactSecrets(stderr.String())
	truncated := false
	if meta.MaxBytes > 0 {
		if trimmed, did := util.TruncateBytes(outStr, meta.MaxBytes); did {
			outStr = trimmed
			truncated = true
		}
		if trimmed, did := util.TruncateBytes(errStr, meta.MaxBytes); did {
			errStr = trimmed
			truncated = true
		}
	}

	output := shellOutput{
		Stdout:     outStr,
		Stderr:     errStr,
		ExitCode:   exitCode,
		DurationMs: duration,
		Truncated:  truncated,
	}
	preview := util.Preview(strings.TrimSpace(outStr+"\n"+errStr), 12, 2000)
	lineCount := 0
	if preview != "" {
		lineCount = strings.Count(preview, "\n") + 1
	}
	return Result{
		ToolName:   s.Name(),
		Payload:    output,
		Preview:    preview,
		LineCount:  lineCount,
		ByteCount:  len(outStr) + len(errStr),
		Truncated:  truncated,
		DurationMs: duration,
	}, nil
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

func firstWord(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
