// Package config defines the tandem.toml schema, its defaults, and the
// load/validate/write-back cycle used by the CLI.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/tandem/internal/agent"
	"github.com/Iron-Ham/tandem/internal/errors"
)

// Config represents the complete tandem configuration.
type Config struct {
	PRD         PRDConfig      `mapstructure:"prd" toml:"prd"`
	Workflow    WorkflowConfig `mapstructure:"workflow" toml:"workflow"`
	Logging     LoggingConfig  `mapstructure:"logging" toml:"logging"`
	LoopAgent   AgentConfig    `mapstructure:"loop_agent" toml:"loop_agent"`
	WorkerAgent AgentConfig    `mapstructure:"worker_agent" toml:"worker_agent"`
}

// PRDConfig locates the checklist and controls auto-marking.
type PRDConfig struct {
	// File is the checklist path, relative to the config file's directory
	// unless absolute.
	File string `mapstructure:"file" toml:"file"`
	// AutoMarkCompleted marks checklist items done after a successful
	// iteration (default: true)
	AutoMarkCompleted bool `mapstructure:"auto_mark_completed" toml:"auto_mark_completed"`
}

// WorkflowConfig bounds the orchestration loop.
type WorkflowConfig struct {
	// MaxIterations is the maximum number of loop iterations per run (default: 12)
	MaxIterations int `mapstructure:"max_iterations" toml:"max_iterations"`
	// MaxFixAttempts is how many worker retries a failing test suite gets
	// before the iteration is abandoned (default: 2, 0 = no retries)
	MaxFixAttempts int `mapstructure:"max_fix_attempts" toml:"max_fix_attempts"`
	// AutoCommit commits the working tree after a successful iteration (default: true)
	AutoCommit bool `mapstructure:"auto_commit" toml:"auto_commit"`
	// ExecutionTests are shell commands run after every worker turn, in order
	ExecutionTests []string `mapstructure:"execution_tests" toml:"execution_tests"`
}

// LoggingConfig controls the JSON debug log.
type LoggingConfig struct {
	// Enabled turns the debug log on (default: true)
	Enabled bool `mapstructure:"enabled" toml:"enabled"`
	// Level is one of "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" toml:"level"`
	// Dir is the log directory, relative to the config file's directory
	// unless absolute (default: ".tandem")
	Dir string `mapstructure:"dir" toml:"dir"`
	// MaxSizeMB caps the log file size before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" toml:"max_size_mb"`
	// MaxBackups is how many rotated files survive (default: 3)
	MaxBackups int `mapstructure:"max_backups" toml:"max_backups"`
}

// AgentConfig describes how to invoke one agent CLI.
type AgentConfig struct {
	// Provider is one of "codex", "opencode", "custom"
	Provider string `mapstructure:"provider" toml:"provider"`
	// Command is the executable to spawn
	Command string `mapstructure:"command" toml:"command"`
	// Args are the command arguments; {model}, {prompt} and {prompt_file}
	// are substituted per invocation
	Args []string `mapstructure:"args" toml:"args"`
	// Model is the model identifier passed via {model}
	Model string `mapstructure:"model" toml:"model"`
	// VisibleFiles are paths the agent is told it may focus on
	VisibleFiles []string `mapstructure:"visible_files" toml:"visible_files"`
	// VisibleTests are test commands the agent is told to validate against
	VisibleTests []string `mapstructure:"visible_tests" toml:"visible_tests"`
	// SystemPrompt is prepended to every prompt sent to this agent
	SystemPrompt string `mapstructure:"system_prompt" toml:"system_prompt"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		PRD: PRDConfig{
			File:              "PRD.md",
			AutoMarkCompleted: true,
		},
		Workflow: WorkflowConfig{
			MaxIterations:  12,
			MaxFixAttempts: 2,
			AutoCommit:     true,
			ExecutionTests: []string{"go test ./..."},
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        ".tandem",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		LoopAgent: AgentConfig{
			Provider:     string(agent.ProviderCodex),
			Command:      "codex",
			Args:         agent.DefaultArgs(agent.ProviderCodex),
			Model:        "gpt-5-mini",
			VisibleFiles: []string{"PRD.md", "docs/"},
			VisibleTests: []string{"go test ./internal/... -run TestLoop -v"},
			SystemPrompt: "You are a fast loop manager. Keep tasks moving with small scoped worker instructions.",
		},
		WorkerAgent: AgentConfig{
			Provider:     string(agent.ProviderCodex),
			Command:      "codex",
			Args:         agent.DefaultArgs(agent.ProviderCodex),
			Model:        "gpt-5",
			VisibleFiles: []string{"internal/", "go.mod"},
			VisibleTests: []string{"go test ./..."},
			SystemPrompt: "You are the implementation agent. Apply code changes, run commands, and report concise outcomes.",
		},
	}
}

// SetDefaults registers every config key with the given viper instance.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	// PRD defaults
	v.SetDefault("prd.file", defaults.PRD.File)
	v.SetDefault("prd.auto_mark_completed", defaults.PRD.AutoMarkCompleted)

	// Workflow defaults
	v.SetDefault("workflow.max_iterations", defaults.Workflow.MaxIterations)
	v.SetDefault("workflow.max_fix_attempts", defaults.Workflow.MaxFixAttempts)
	v.SetDefault("workflow.auto_commit", defaults.Workflow.AutoCommit)
	v.SetDefault("workflow.execution_tests", defaults.Workflow.ExecutionTests)

	// Logging defaults
	v.SetDefault("logging.enabled", defaults.Logging.Enabled)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// Agent defaults
	setAgentDefaults(v, "loop_agent", &defaults.LoopAgent)
	setAgentDefaults(v, "worker_agent", &defaults.WorkerAgent)
}

func setAgentDefaults(v *viper.Viper, section string, a *AgentConfig) {
	v.SetDefault(section+".provider", a.Provider)
	v.SetDefault(section+".command", a.Command)
	v.SetDefault(section+".args", a.Args)
	v.SetDefault(section+".model", a.Model)
	v.SetDefault(section+".visible_files", a.VisibleFiles)
	v.SetDefault(section+".visible_tests", a.VisibleTests)
	v.SetDefault(section+".system_prompt", a.SystemPrompt)
}

// Load reads, unmarshals, and validates the config file at path.
// TANDEM_* environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("TANDEM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config at %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse TOML from %s", path)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// WriteFile serializes the config as TOML to path.
func (c *Config) WriteFile(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write config to %s", path)
	}
	return nil
}

// DefaultPRD returns the checklist scaffolded by `tandem init`.
func DefaultPRD() string {
	return `# Product Requirements

## Checklist
- [ ] Define dual-agent responsibilities and handoff contract
- [ ] Implement the first CLI command surface
- [ ] Add orchestration loop for delegate -> test -> commit
- [ ] Add retry path for failing tests
`
}

// RelativePRDPath returns the PRD path to store in the config: relative
// to the config file's directory when the PRD lives under it, otherwise
// prdPath unchanged.
func RelativePRDPath(configPath, prdPath string) string {
	configDir := canonicalize(filepath.Dir(configPath))
	prdAbs := canonicalize(prdPath)

	rel, err := filepath.Rel(configDir, prdAbs)
	if err != nil || rel == "" || rel == "." || strings.HasPrefix(rel, "..") {
		return prdPath
	}
	return rel
}

// canonicalize resolves path to an absolute, symlink-free form, falling
// back to the best form available when resolution fails.
func canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
