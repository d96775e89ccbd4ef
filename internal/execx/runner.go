// Package execx abstracts external command execution for testability.
//
// Every component that spawns a subprocess (agent invocation, test
// commands, git) does so through the Runner interface, so tests can
// substitute a scripted fake and run without touching the system.
package execx

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/Iron-Ham/tandem/internal/errors"
)

// Result captures the outcome of a finished command.
type Result struct {
	// ExitCode is the process exit status. Zero means success.
	ExitCode int
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
}

// Success reports whether the command exited with status zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Combined returns stdout followed by stderr, trimmed of surrounding
// whitespace. Useful for echoing mixed command output to the user.
func (r Result) Combined() string {
	return strings.TrimSpace(r.Stdout + r.Stderr)
}

// Runner executes external commands.
//
// A command that starts and exits non-zero is NOT an error: it returns a
// Result carrying the exit code. Only the inability to start the process
// returns a non-nil error.
type Runner interface {
	// Run executes a command directly (no shell) with stdin closed and
	// stdout/stderr captured separately.
	Run(dir string, name string, args ...string) (Result, error)

	// Shell executes a command line through `sh -lc`, for commands that
	// need shell word splitting, pipes, or quoting.
	Shell(dir string, command string) (Result, error)
}

// Local executes commands on the local machine using os/exec.
type Local struct{}

// NewLocal creates a new local command runner.
func NewLocal() *Local {
	return &Local{}
}

// Run executes a command directly and captures its streams.
func (l *Local) Run(dir string, name string, args ...string) (Result, error) {
	return run(dir, name, args...)
}

// Shell executes a command line through `sh -lc`.
func (l *Local) Shell(dir string, command string) (Result, error) {
	return run(dir, "sh", "-lc", command)
}

func run(dir string, name string, args ...string) (Result, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Stdin stays nil so the child reads EOF instead of blocking on input.

	err := cmd.Run()

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		result.ExitCode = -1
		return result, err
	}

	return result, nil
}

// Ensure Local satisfies the interface at compile time.
var _ Runner = (*Local)(nil)
