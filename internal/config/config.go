package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DefaultModel       = "openrouter/pony-alpha"
	DefaultMaxSteps    = 12
	DefaultTimeout     = 120 * time.Second
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultWebChars    = 50000
	DefaultShellBytes  = 20 * 1024
	DefaultWebBytes    = 200 * 1024
	DefaultSearchBytes = 30 * 1024
	DefaultFileBytes   = 10 * 1024 * 1024
	DefaultDocBytes    = 64 * 1024
)

// ToolLimits controls max output sizes for tools.
type ToolLimits struct {
	ShellMaxBytes  int `mapstructure:"shell_max_bytes"`
	WebMaxBytes    int `mapstructure:"web_max_bytes"`
	WebMaxChars    int `mapstructure:"web_max_chars"`
	SearchMaxBytes int `mapstructure:"search_max_bytes"`
	FileMaxBytes   int `mapstructure:"file_max_bytes"`
	DocMaxBytes    int `mapstructure:"doc_max_bytes"`
}

// Config holds runtime configuration values.
type Config struct {
	Model             string
	MaxSteps          int
	Timeout           time.Duration
	UnsafeShell       bool
	NoWeb             bool
	NoPlan            bool
	Quiet             bool
	JSON              bool
	Verbose           bool
	LogFile           string
	HistoryLines      int
	NoHistory         bool
	OutputFormat      string
	PersistRuns       bool
	OpenRouterBaseURL string
	HTTPReferer       string
	Title             string
	ToolLimits        ToolLimits
}

type rawConfig struct {
	Model              string     `mapstructure:"model"`
	MaxSteps           int        `mapstructure:"max_steps"`
	Timeout            string     `mapstructure:"timeout"`
	UnsafeShell        bool       `mapstructure:"unsafe_shell"`
	UnsafeShellDefault bool       `mapstructure:"unsafe_shell_default"`
	NoWeb              bool       `mapstructure:"no_web"`
	NoPlan             bool       `mapstructure:"no_plan"`
	Quiet              bool       `mapstructure:"quiet"`
	JSON               bool       `mapstructure:"json"`
	Verbose            bool       `mapstructure:"verbose"`
	LogFile            string     `mapstructure:"log_file"`
	HistoryLines       int        `mapstructure:"history_lines"`
	NoHistory          bool       `mapstructure:"no_history"`
	OutputFormat       string     `mapstructure:"output_format"`
	PersistRuns        bool       `mapstructure:"persist_runs"`
	OpenRouterBaseURL  string     `mapstructure:"openrouter_base_url"`
	HTTPReferer        string     `mapstructure:"http_referer"`
	Title              string     `mapstructure:"title"`
	ToolLimits         ToolLimits `mapstructure:"tool_limits"`
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("model", DefaultModel)
	v.SetDefault("max_steps", DefaultMaxSteps)
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("unsafe_shell", false)
	v.SetDefault("unsafe_shell_default", false)
	v.SetDefault("no_web", false)
	v.SetDefault("no_plan", false)
	v.SetDefault("quiet", false)
	v.SetDefault("json", false)
	v.SetDefault("verbose", false)
	v.SetDefault("log_file", "")
	v.SetDefault("history_lines", 50)
	v.SetDefault("no_history", false)
	v.SetDefault("output_format", "text")
	v.SetDefault("persist_runs", false)
	v.SetDefault("openrouter_base_url", DefaultBaseURL)
	v.SetDefault("tool_limits.shell_max_bytes", DefaultShellBytes)
	v.SetDefault("tool_limits.web_max_bytes", DefaultWebBytes)
	v.SetDefault("tool_limits.web_max_chars", DefaultWebChars)
	v.SetDefault("tool_limits.search_max_bytes", DefaultSearchBytes)
	v.SetDefault("tool_limits.file_max_bytes", DefaultFileBytes)
	v.SetDefault("tool_limits.doc_max_bytes", DefaultDocBytes)

	if cmd != nil {
		_ = v.BindPFlag("model", cmd.Flags().Lookup("model"))
		_ = v.BindPFlag("max_steps", cmd.Flags().Lookup("max-steps"))
		_ = v.BindPFlag("timeout", cmd.Flags().Lookup("timeout"))
		_ = v.BindPFlag("unsafe_shell", cmd.Flags().Lookup("unsafe-shell"))
		_ = v.BindPFlag("no_web", cmd.Flags().Lookup("no-web"))
		_ = v.BindPFlag("no_plan", cmd.Flags().Lookup("no-plan"))
		_ = v.BindPFlag("quiet", cmd.Flags().Lookup("quiet"))
		_ = v.BindPFlag("json", cmd.Flags().Lookup("json"))
		_ = v.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
		_ = v.BindPFlag("log_file", cmd.Flags().Lookup("log-file"))
		_ = v.BindPFlag("history_lines", cmd.Flags().Lookup("history-lines"))
		_ = v.BindPFlag("no_history", cmd.Flags().Lookup("no-history"))
	}

	if seconds := os.Getenv("DESK_TIMEOUT_SECONDS"); seconds != "" {
		v.Set("timeout", seconds+"s")
	}
	if model := os.Getenv("DESK_MODEL"); model != "" {
		v.Set("model", model)
	}
	if baseURL := os.Getenv("DESK_BASE_URL"); baseURL != "" {
		v.Set("openrouter_base_url", baseURL)
	}
	if openAIModel := os.Getenv("OPENAI_MODEL"); openAIModel != "" && os.Getenv("DESK_MODEL") == "" {
		v.Set("model", openAIModel)
	}
	if openAIBaseURL := os.Getenv("OPENAI_BASE_URL"); openAIBaseURL != "" && os.Getenv("DESK_BASE_URL") == "" {
		v.Set("openrouter_base_url", openAIBaseURL)
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, _ := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "mapstructure", Result: &raw})
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, err
	}

	timeout := DefaultTimeout
	if raw.Timeout != "" {
		parsed, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid timeout duration: %w", err)
		}
		timeout = parsed
	}

	unsafeShell := raw.UnsafeShell
	if cmd != nil && cmd.Flags().Changed("unsafe-shell") {
		unsafeShell = v.GetBool("unsafe_shell")
	} else if v.IsSet("unsafe_shell_default") {
		unsafeShell = raw.UnsafeShellDefault
	}

	jsonOutput := raw.JSON
	if cmd != nil && cmd.Flags().Changed("json") {
		jsonOutput = v.GetBool("json")
	} else if strings.EqualFold(raw.OutputFormat, "json") {
		jsonOutput = true
	}

	cfg := Config{
		Model:             raw.Model,
		MaxSteps:          raw.MaxSteps,
		Timeout:           timeout,
		UnsafeShell:       unsafeShell,
		NoWeb:             raw.NoWeb,
		NoPlan:            raw.NoPlan,
		Quiet:             raw.Quiet,
		JSON:              jsonOutput,
		Verbose:           raw.Verbose,
		LogFile:           raw.LogFile,
		HistoryLines:      raw.HistoryLines,
		NoHistory:         raw.NoHistory,
		OutputFormat:      raw.OutputFormat,
		PersistRuns:       raw.PersistRuns,
		OpenRouterBaseURL: raw.OpenRouterBaseURL,
		HTTPReferer:       raw.HTTPReferer,
		Title:             raw.Title,
		ToolLimits:        raw.ToolLimits,
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.OpenRouterBaseURL == "" {
		cfg.OpenRouterBaseURL = DefaultBaseURL
	}
	if cfg.HistoryLines < 0 {
		cfg.HistoryLines = 0
	}

	if cfg.ToolLimits.ShellMaxBytes <= 0 {
		cfg.ToolLimits.ShellMaxBytes = DefaultShellBytes
	}
	if cfg.ToolLimits.WebMaxBytes <= 0 {
		cfg.ToolLimits.WebMaxBytes = DefaultWebBytes
	}
	if cfg.ToolLimits.WebMaxChars <= 0 {
		cfg.ToolLimits.WebMaxChars = DefaultWebChars
	}
	if cfg.ToolLimits.SearchMaxBytes <= 0 {
		cfg.ToolLimits.SearchMaxBytes = DefaultSearchBytes
	}
	if cfg.ToolLimits.FileMaxBytes <= 0 {
		cfg.ToolLimits.FileMaxBytes = DefaultFileBytes
	}
	if cfg.ToolLimits.DocMaxBytes <= 0 {
		cfg.ToolLimits.DocMaxBytes = DefaultDocBytes
	}

	return cfg, nil
}

func loadConfigFile(v *viper.Viper) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, "deskagent")
	candidates := []string{
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
		filepath.Join(base, "config.json"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
			return nil
		}
	}
	return nil
}
