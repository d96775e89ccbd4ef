package testrun

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/execx"
)

type shellCall struct {
	dir     string
	command string
}

// mockRunner returns scripted results for Shell calls in order.
type mockRunner struct {
	calls   []shellCall
	results []execx.Result
	errs    []error
}

func (m *mockRunner) Run(dir, name string, args ...string) (execx.Result, error) {
	return m.Shell(dir, name+" "+strings.Join(args, " "))
}

func (m *mockRunner) Shell(dir, command string) (execx.Result, error) {
	idx := len(m.calls)
	m.calls = append(m.calls, shellCall{dir: dir, command: command})
	if idx < len(m.errs) && m.errs[idx] != nil {
		return execx.Result{ExitCode: -1}, m.errs[idx]
	}
	if idx < len(m.results) {
		return m.results[idx], nil
	}
	return execx.Result{}, nil
}

var _ execx.Runner = (*mockRunner)(nil)

func TestRunNoCommands(t *testing.T) {
	runner := &mockRunner{}
	executor := NewExecutor(runner, ".", nil)

	res, err := executor.Run(nil, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Success {
		t.Error("empty suite should succeed")
	}
	if res.Output != "No tests configured." {
		t.Errorf("Output = %q, want %q", res.Output, "No tests configured.")
	}
	if len(runner.calls) != 0 {
		t.Errorf("executed %d commands, want 0", len(runner.calls))
	}
}

func TestRunDryRun(t *testing.T) {
	runner := &mockRunner{}
	executor := NewExecutor(runner, ".", nil)

	res, err := executor.Run([]string{"go test ./...", "go vet ./..."}, true)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Success {
		t.Error("dry run should succeed")
	}
	want := "[dry-run] go test ./...\n[dry-run] go vet ./...\n"
	if res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
	if len(runner.calls) != 0 {
		t.Errorf("dry run executed %d commands, want 0", len(runner.calls))
	}
}

func TestRunAllPass(t *testing.T) {
	runner := &mockRunner{
		results: []execx.Result{
			{ExitCode: 0, Stdout: "ok  \tpkg\t0.1s\n"},
			{ExitCode: 0, Stdout: "", Stderr: ""},
		},
	}
	executor := NewExecutor(runner, "/work", nil)

	res, err := executor.Run([]string{"go test ./...", "go vet ./..."}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Success {
		t.Errorf("suite failed, output:\n%s", res.Output)
	}

	want := "$ go test ./...\nok  \tpkg\t0.1s\n$ go vet ./...\n\n"
	if res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}

	for i, call := range runner.calls {
		if call.dir != "/work" {
			t.Errorf("call %d dir = %q, want %q", i, call.dir, "/work")
		}
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	runner := &mockRunner{
		results: []execx.Result{
			{ExitCode: 0, Stdout: "ok\n"},
			{ExitCode: 1, Stdout: "--- FAIL: TestThing\n", Stderr: "exit status 1\n"},
			{ExitCode: 0, Stdout: "never runs\n"},
		},
	}
	executor := NewExecutor(runner, ".", nil)

	res, err := executor.Run([]string{"go vet ./...", "go test ./...", "go build ./..."}, false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Success {
		t.Error("suite should report failure")
	}
	if len(runner.calls) != 2 {
		t.Errorf("executed %d commands, want 2", len(runner.calls))
	}

	want := "$ go vet ./...\nok\n$ go test ./...\n--- FAIL: TestThing\nexit status 1\n"
	if res.Output != want {
		t.Errorf("Output = %q, want %q", res.Output, want)
	}
}

func TestRunSpawnFailure(t *testing.T) {
	runner := &mockRunner{
		errs: []error{fmt.Errorf("sh: not found")},
	}
	executor := NewExecutor(runner, ".", nil)

	_, err := executor.Run([]string{"go test ./..."}, false)
	if err == nil {
		t.Fatal("expected error")
	}

	var testErr *errors.TestError
	if !errors.As(err, &testErr) {
		t.Fatalf("error type = %T, want *errors.TestError", err)
	}
	if testErr.Command != "go test ./..." {
		t.Errorf("Command = %q, want %q", testErr.Command, "go test ./...")
	}
}
