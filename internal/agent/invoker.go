package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/execx"
	"github.com/Iron-Ham/tandem/internal/logging"
)

// Profile describes one configured agent: which CLI to run, how to pass the
// prompt to it, and what context the prompts advertise to the model.
// It is immutable for the duration of a run.
type Profile struct {
	// Role labels the agent in logs and errors: "loop" or "worker".
	Role         string
	Provider     Provider
	Command      string
	Args         []string
	Model        string
	VisibleFiles []string
	VisibleTests []string
	SystemPrompt string
}

// Result is a successful agent reply.
type Result struct {
	// Stdout is the agent's standard output, trimmed.
	Stdout string
}

// Invoker runs one configured agent.
type Invoker struct {
	profile Profile
	runner  execx.Runner
	logger  *logging.Logger
}

// NewInvoker creates an Invoker for the given profile. A nil logger
// disables logging.
func NewInvoker(profile Profile, runner execx.Runner, logger *logging.Logger) *Invoker {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Invoker{
		profile: profile,
		runner:  runner,
		logger:  logger.WithAgent(profile.Role),
	}
}

// Profile returns the invoker's immutable profile.
func (inv *Invoker) Profile() Profile {
	return inv.profile
}

// Invoke sends one prompt to the agent and returns its trimmed stdout.
//
// The prompt is written to a temp file so arg templates can pass it by path
// ({prompt_file}) instead of inline ({prompt}); the file is removed when the
// call returns. Spawn failure and non-zero exit both surface as AgentError
// with the captured streams.
func (inv *Invoker) Invoke(prompt string) (Result, error) {
	tmp, err := os.CreateTemp("", "tandem-prompt-*.md")
	if err != nil {
		return Result{}, errors.NewAgentError("failed to create prompt file", err).
			WithAgent(inv.profile.Role)
	}
	promptPath := tmp.Name()
	defer os.Remove(promptPath)

	if _, err := tmp.WriteString(prompt); err != nil {
		tmp.Close()
		return Result{}, errors.NewAgentError("failed to write prompt file", err).
			WithAgent(inv.profile.Role)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, errors.NewAgentError("failed to write prompt file", err).
			WithAgent(inv.profile.Role)
	}

	// Hand the CLI a stable absolute path.
	promptFile := promptPath
	if resolved, err := filepath.EvalSymlinks(promptPath); err == nil {
		promptFile = resolved
	}

	args := RenderArgs(inv.profile.Args, inv.profile.Model, prompt, promptFile)

	inv.logger.Debug("invoking agent",
		"command", inv.profile.Command,
		"model", inv.profile.Model,
		"arg_count", len(args),
		"prompt_bytes", len(prompt))

	start := time.Now()
	result, err := inv.runner.Run("", inv.profile.Command, args...)
	duration := time.Since(start)

	if err != nil {
		inv.logger.Error("agent spawn failed", "command", inv.profile.Command, "error", err.Error())
		// A spawn failure means the configured agent command itself is
		// broken, so no later iteration can succeed either.
		return Result{}, errors.NewAgentError(
			fmt.Sprintf("failed to run %s for model %s", inv.profile.Command, inv.profile.Model), err).
			WithAgent(inv.profile.Role).
			WithCommand(inv.profile.Command).
			WithSeverity(errors.SeverityCritical)
	}

	if !result.Success() {
		inv.logger.Error("agent exited non-zero",
			"command", inv.profile.Command,
			"exit_code", result.ExitCode,
			"duration_ms", duration.Milliseconds())
		return Result{}, errors.NewAgentError("agent command failed", errors.ErrAgentNonZeroExit).
			WithAgent(inv.profile.Role).
			WithCommand(inv.profile.Command).
			WithExitCode(result.ExitCode).
			WithStdout(strings.TrimSpace(result.Stdout)).
			WithStderr(strings.TrimSpace(result.Stderr))
	}

	inv.logger.Debug("agent completed",
		"duration_ms", duration.Milliseconds(),
		"stdout_bytes", len(result.Stdout))

	return Result{Stdout: strings.TrimSpace(result.Stdout)}, nil
}

// RenderArgs substitutes {model}, {prompt}, and {prompt_file} in each arg
// template.
func RenderArgs(args []string, model, prompt, promptFile string) []string {
	replacer := strings.NewReplacer(
		"{model}", model,
		"{prompt}", prompt,
		"{prompt_file}", promptFile,
	)
	rendered := make([]string, len(args))
	for i, arg := range args {
		rendered[i] = replacer.Replace(arg)
	}
	return rendered
}
