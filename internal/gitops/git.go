// Package gitops wraps the git operations the orchestration loop
// performs in the project working tree: dirty detection and stage-all
// commits.
package gitops

import (
	"strings"

	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/execx"
	"github.com/Iron-Ham/tandem/internal/logging"
	"github.com/Iron-Ham/tandem/internal/util"
)

// Gateway runs git commands through a shell in a fixed working
// directory.
type Gateway struct {
	runner execx.Runner
	dir    string
	logger *logging.Logger
}

// NewGateway creates a Gateway operating on the repository at dir.
func NewGateway(runner execx.Runner, dir string, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Gateway{
		runner: runner,
		dir:    dir,
		logger: logger,
	}
}

// HasUncommittedChanges reports whether the working tree is dirty,
// including untracked files.
func (g *Gateway) HasUncommittedChanges() (bool, error) {
	res, err := g.git("git status --porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// CommitAll stages every change and commits it with message, returning
// the short hash of the new commit.
func (g *Gateway) CommitAll(message string) (string, error) {
	if _, err := g.git("git add -A"); err != nil {
		return "", err
	}
	if _, err := g.git("git commit -m " + util.ShellQuote(message)); err != nil {
		return "", err
	}
	res, err := g.git("git rev-parse --short HEAD")
	if err != nil {
		return "", err
	}

	hash := strings.TrimSpace(res.Stdout)
	g.logger.Info("created commit", "hash", hash, "message", message)
	return hash, nil
}

// git runs one git command, converting spawn failures and non-zero
// exits into GitErrors.
func (g *Gateway) git(command string) (execx.Result, error) {
	res, err := g.runner.Shell(g.dir, command)
	if err != nil {
		return res, errors.NewGitError("failed to run git command", err).
			WithCommand(command)
	}
	if !res.Success() {
		output := res.Combined()
		gitErr := errors.NewGitError("git command failed", classify(output)).
			WithCommand(command).
			WithOutput(output)
		// An index.lock collision means another git process is mid-write;
		// the same command usually succeeds moments later.
		if strings.Contains(output, "index.lock") {
			gitErr = gitErr.WithRetryable(true)
		}
		return res, gitErr
	}
	return res, nil
}

// classify maps well-known git failure output onto sentinel causes so
// callers can branch with errors.Is.
func classify(output string) error {
	switch {
	case strings.Contains(output, "not a git repository"):
		return errors.ErrNotGitRepository
	case strings.Contains(output, "nothing to commit"):
		return errors.ErrNothingToCommit
	default:
		return nil
	}
}
