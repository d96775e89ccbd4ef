// Package testrun executes the configured test suite and collects a
// transcript of command output for the orchestration loop.
package testrun

import (
	"strings"
	"time"

	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/execx"
	"github.com/Iron-Ham/tandem/internal/logging"
)

// Result is the outcome of one test suite run. Output holds a transcript
// of every command executed, in order, up to and including the first
// failing command.
type Result struct {
	Success bool
	Output  string
}

// Executor runs test commands through a shell in a fixed working
// directory.
type Executor struct {
	runner execx.Runner
	dir    string
	logger *logging.Logger
}

// NewExecutor creates an Executor that runs commands in dir.
func NewExecutor(runner execx.Runner, dir string, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Executor{
		runner: runner,
		dir:    dir,
		logger: logger,
	}
}

// Run executes each command in order and stops at the first failure.
// An empty command list is reported as success. In dry-run mode no
// command is executed; the transcript records what would have run.
//
// A failing command is a normal outcome, reported through Result. The
// returned error is reserved for commands that could not be started at
// all.
func (e *Executor) Run(commands []string, dryRun bool) (Result, error) {
	if len(commands) == 0 {
		return Result{Success: true, Output: "No tests configured."}, nil
	}

	var transcript strings.Builder
	for _, cmd := range commands {
		if dryRun {
			transcript.WriteString("[dry-run] " + cmd + "\n")
			continue
		}

		start := time.Now()
		res, err := e.runner.Shell(e.dir, cmd)
		if err != nil {
			return Result{}, errors.NewTestError("failed to run test command", err).
				WithCommand(cmd)
		}

		e.logger.Debug("test command finished",
			"command", cmd,
			"exit_code", res.ExitCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		transcript.WriteString("$ " + cmd + "\n" + res.Combined() + "\n")
		if !res.Success() {
			return Result{Success: false, Output: transcript.String()}, nil
		}
	}

	return Result{Success: true, Output: transcript.String()}, nil
}
