package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/tandem/internal/agent"
	"github.com/Iron-Ham/tandem/internal/logging"
)

// ValidationError flags one invalid config value.
type ValidationError struct {
	Field   string // dotted path into the TOML, e.g. "workflow.max_iterations"
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors renders a single failure bare and several as a
// numbered list.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// validator accumulates failures across the per-section checks.
type validator struct {
	errs []ValidationError
}

func (v *validator) flag(field string, value any, message string) {
	v.errs = append(v.errs, ValidationError{Field: field, Value: value, Message: message})
}

// Validate checks every section and returns all failures found, not just
// the first, so a user can fix a config in one pass.
func (c *Config) Validate() []ValidationError {
	var v validator
	c.checkWorkflow(&v)
	checkAgent(&v, "loop_agent", c.LoopAgent)
	checkAgent(&v, "worker_agent", c.WorkerAgent)
	c.checkLogging(&v)
	return v.errs
}

func (c *Config) checkWorkflow(v *validator) {
	if c.Workflow.MaxIterations < 1 {
		v.flag("workflow.max_iterations", c.Workflow.MaxIterations, "must be at least 1")
	}
	if c.Workflow.MaxFixAttempts < 0 {
		v.flag("workflow.max_fix_attempts", c.Workflow.MaxFixAttempts, "must be non-negative")
	}
}

func checkAgent(v *validator, section string, a AgentConfig) {
	if strings.TrimSpace(a.Command) == "" {
		v.flag(section+".command", a.Command, "cannot be empty")
	}
	if _, err := agent.ParseProvider(a.Provider); err != nil {
		v.flag(section+".provider", a.Provider,
			"must be one of: "+strings.Join(agent.ValidProviders(), ", "))
	}
}

func (c *Config) checkLogging(v *validator) {
	if c.Logging.Level != "" && !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		v.flag("logging.level", c.Logging.Level,
			"must be one of: "+strings.ToLower(strings.Join(logging.ValidLevels(), ", ")))
	}
	if c.Logging.MaxSizeMB < 1 {
		v.flag("logging.max_size_mb", c.Logging.MaxSizeMB, "must be at least 1")
	}
	if c.Logging.MaxBackups < 0 {
		v.flag("logging.max_backups", c.Logging.MaxBackups, "must be non-negative")
	}
}
