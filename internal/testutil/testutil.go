// Package testutil provides git repository fixtures for tandem tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// SetupTestRepo returns a temporary git repository containing a single
// seed commit. The directory is removed when the test completes.
func SetupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	git(t, dir, "init")

	// The identity has to live in repo config: commits made by the code
	// under test run without this package's environment.
	git(t, dir, "config", "user.name", "tandem test")
	git(t, dir, "config", "user.email", "tandem-test@example.com")

	WriteFile(t, dir, "README.md", "# fixture\n")
	git(t, dir, "add", "README.md")
	git(t, dir, "commit", "-m", "seed repository")

	return dir
}

// WriteFile writes content to path (relative to repoDir), creating parent
// directories as needed. Nothing is staged or committed.
func WriteFile(t *testing.T, repoDir, path, content string) {
	t.Helper()

	target := filepath.Join(repoDir, path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(target, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// CommitFile writes content to path and commits it with message.
func CommitFile(t *testing.T, repoDir, path, content, message string) {
	t.Helper()

	WriteFile(t, repoDir, path, content)
	git(t, repoDir, "add", path)
	git(t, repoDir, "commit", "-m", message)
}

// GetCommitCount returns how many commits are reachable from HEAD.
func GetCommitCount(t *testing.T, repoDir string) int {
	t.Helper()

	out := git(t, repoDir, "rev-list", "--count", "HEAD")
	count, err := strconv.Atoi(out)
	if err != nil {
		t.Fatalf("unexpected rev-list output %q: %v", out, err)
	}
	return count
}

// LastCommitMessage returns the subject of the HEAD commit.
func LastCommitMessage(t *testing.T, repoDir string) string {
	t.Helper()
	return git(t, repoDir, "log", "-1", "--pretty=%s")
}

// HasUncommittedChanges reports whether the work tree differs from HEAD,
// counting untracked files.
func HasUncommittedChanges(t *testing.T, repoDir string) bool {
	t.Helper()
	return git(t, repoDir, "status", "--porcelain") != ""
}

// SkipIfNoGit skips the test when git is not on PATH.
func SkipIfNoGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// SkipIfNoGolangciLint skips the test when golangci-lint is not on PATH.
func SkipIfNoGolangciLint(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		t.Skip("golangci-lint not installed")
	}
}

// git runs one git command inside dir, failing the test on error, and
// returns trimmed stdout. The fixture identity is also supplied through
// the environment so commits work before repo config is set.
func git(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=tandem test",
		"GIT_AUTHOR_EMAIL=tandem-test@example.com",
		"GIT_COMMITTER_NAME=tandem test",
		"GIT_COMMITTER_EMAIL=tandem-test@example.com",
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, stderr.String())
	}
	return strings.TrimSpace(string(out))
}
