// Package errors is the error vocabulary for tandem. It defines typed
// errors for the subsystems the loop touches (agents, tests, git, the
// checklist), sentinel values callers branch on, and classification
// helpers the CLI uses to decide how a failure is presented.
//
// Typed errors are built fluently:
//
//	err := errors.NewAgentError("invocation failed", errors.ErrAgentNonZeroExit).
//		WithAgent("worker").
//		WithExitCode(2)
//
// and matched with the standard helpers re-exported here:
//
//	if errors.Is(err, errors.ErrAgentNonZeroExit) { ... }
//
//	var agentErr *errors.AgentError
//	if errors.As(err, &agentErr) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard library helpers re-exported so callers need a single errors
// import for everything.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel values for conditions callers branch on with Is.
var (
	// ErrChecklistNotFound means the PRD checklist file does not exist.
	ErrChecklistNotFound = New("checklist file not found")

	// ErrAgentNonZeroExit means an agent process ran but exited non-zero.
	ErrAgentNonZeroExit = New("agent exited with non-zero status")

	// ErrNotGitRepository means the project directory has no git repository.
	ErrNotGitRepository = New("not a git repository")

	// ErrNothingToCommit means a commit was requested with a clean tree.
	ErrNothingToCommit = New("nothing to commit")

	// ErrInvalidInput matches every ValidationError.
	ErrInvalidInput = New("invalid input")

	// ErrConfigExists means init would overwrite an existing config file.
	ErrConfigExists = New("config file already exists")
)

// Severity grades an error for presentation. The CLI renders
// SeverityWarning and below in the warning style and everything else as
// a failure.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

var severityNames = [...]string{"debug", "info", "warning", "error", "critical"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// TandemError is implemented by every typed error in this package. It
// adds the classification surface that IsRetryable, IsUserFacing, and
// GetSeverity read.
type TandemError interface {
	error

	Unwrap() error
	Is(target error) bool
	Severity() Severity
	IsRetryable() bool
	IsUserFacing() bool
}

var (
	_ TandemError = (*AgentError)(nil)
	_ TandemError = (*TestError)(nil)
	_ TandemError = (*GitError)(nil)
	_ TandemError = (*ChecklistError)(nil)
	_ TandemError = (*ValidationError)(nil)
)

// baseError carries the fields shared by every typed error.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func newBase(message string, cause error, severity Severity) baseError {
	return baseError{
		message:    message,
		cause:      cause,
		severity:   severity,
		userFacing: true,
	}
}

func (e *baseError) Error() string {
	if e.cause == nil {
		return e.message
	}
	return fmt.Sprintf("%s: %v", e.message, e.cause)
}

func (e *baseError) Unwrap() error { return e.cause }

// Is defers to the cause chain. Concrete types layer their own type
// matching on top of this.
func (e *baseError) Is(target error) bool {
	return e.cause != nil && errors.Is(e.cause, target)
}

func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) IsRetryable() bool  { return e.retryable }
func (e *baseError) IsUserFacing() bool { return e.userFacing }

// sameKind reports whether target has the concrete type T, letting typed
// errors answer probes like Is(err, &AgentError{}).
func sameKind[T error](target error) bool {
	_, ok := target.(T)
	return ok
}

// label renders an error prefix like "agent error [agent=worker, exit=1]".
func label(kind string, parts ...string) string {
	if len(parts) == 0 {
		return kind
	}
	return fmt.Sprintf("%s [%s]", kind, strings.Join(parts, ", "))
}

// AgentError reports a failed agent invocation, either because the
// process could not be spawned or because it exited non-zero. Captured
// output rides along so the CLI can show what the agent said before it
// died.
type AgentError struct {
	baseError
	Agent    string
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// NewAgentError creates an AgentError. The exit code starts at -1,
// meaning the process never reported one.
func NewAgentError(message string, cause error) *AgentError {
	return &AgentError{
		baseError: newBase(message, cause, SeverityError),
		ExitCode:  -1,
	}
}

// WithAgent records which agent role failed.
func (e *AgentError) WithAgent(agent string) *AgentError {
	e.Agent = agent
	return e
}

// WithCommand records the rendered command line.
func (e *AgentError) WithCommand(command string) *AgentError {
	e.Command = command
	return e
}

// WithExitCode records the process exit status.
func (e *AgentError) WithExitCode(code int) *AgentError {
	e.ExitCode = code
	return e
}

// WithStdout records the captured standard output.
func (e *AgentError) WithStdout(stdout string) *AgentError {
	e.Stdout = stdout
	return e
}

// WithStderr records the captured standard error.
func (e *AgentError) WithStderr(stderr string) *AgentError {
	e.Stderr = stderr
	return e
}

// WithSeverity escalates or downgrades the error for presentation.
// Spawn failures grade critical: the configured agent command is broken
// and no iteration can succeed.
func (e *AgentError) WithSeverity(s Severity) *AgentError {
	e.severity = s
	return e
}

func (e *AgentError) Error() string {
	var parts []string
	if e.Agent != "" {
		parts = append(parts, "agent="+e.Agent)
	}
	if e.ExitCode >= 0 {
		parts = append(parts, fmt.Sprintf("exit=%d", e.ExitCode))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Command != "" {
		msg += "\ncommand: " + e.Command
	}
	if e.Stderr != "" {
		msg += "\nagent stderr: " + e.Stderr
	}

	return label("agent error", parts...) + ": " + msg
}

func (e *AgentError) Is(target error) bool {
	return sameKind[*AgentError](target) || e.baseError.Is(target)
}

// TestError reports a test command that could not be spawned. A suite
// that runs and exits non-zero is not a TestError; that surfaces as a
// failed result and feeds the fix loop.
type TestError struct {
	baseError
	Command string
}

// NewTestError creates a TestError.
func NewTestError(message string, cause error) *TestError {
	return &TestError{baseError: newBase(message, cause, SeverityError)}
}

// WithCommand records the test command that failed to start.
func (e *TestError) WithCommand(command string) *TestError {
	e.Command = command
	return e
}

func (e *TestError) Error() string {
	prefix := "test error"
	if e.Command != "" {
		prefix = label("test error", "command="+e.Command)
	}
	return prefix + ": " + e.baseError.Error()
}

func (e *TestError) Is(target error) bool {
	return sameKind[*TestError](target) || e.baseError.Is(target)
}

// GitError reports a failed git operation, carrying the command and its
// combined output.
type GitError struct {
	baseError
	Command string
	Output  string
}

// NewGitError creates a GitError.
func NewGitError(message string, cause error) *GitError {
	return &GitError{baseError: newBase(message, cause, SeverityError)}
}

// WithCommand records the git command line.
func (e *GitError) WithCommand(command string) *GitError {
	e.Command = command
	return e
}

// WithOutput records the command's combined output.
func (e *GitError) WithOutput(output string) *GitError {
	e.Output = output
	return e
}

// WithRetryable marks the failure transient, such as an index.lock held
// by another git process.
func (e *GitError) WithRetryable(r bool) *GitError {
	e.retryable = r
	return e
}

func (e *GitError) Error() string {
	var parts []string
	if e.Command != "" {
		parts = append(parts, "command="+e.Command)
	}

	msg := e.baseError.Error()
	if e.Output != "" {
		msg += "\ngit output: " + e.Output
	}
	return label("git error", parts...) + ": " + msg
}

func (e *GitError) Is(target error) bool {
	return sameKind[*GitError](target) || e.baseError.Is(target)
}

// ChecklistError reports a failure reading or writing the PRD checklist
// file.
type ChecklistError struct {
	baseError
	Path string
}

// NewChecklistError creates a ChecklistError.
func NewChecklistError(message string, cause error) *ChecklistError {
	return &ChecklistError{baseError: newBase(message, cause, SeverityError)}
}

// WithPath records the checklist file path.
func (e *ChecklistError) WithPath(path string) *ChecklistError {
	e.Path = path
	return e
}

func (e *ChecklistError) Error() string {
	prefix := "checklist error"
	if e.Path != "" {
		prefix = label("checklist error", "path="+e.Path)
	}
	return prefix + ": " + e.baseError.Error()
}

func (e *ChecklistError) Is(target error) bool {
	return sameKind[*ChecklistError](target) || e.baseError.Is(target)
}

// ValidationError reports input rejected before any work happened, such
// as a bad flag value. It grades as a warning and matches
// ErrInvalidInput.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{baseError: newBase(message, nil, SeverityWarning)}
}

// WithField records which input was invalid.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue records the rejected value.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, "field="+e.Field)
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return label("validation error", parts...) + ": " + e.message
}

func (e *ValidationError) Is(target error) bool {
	return sameKind[*ValidationError](target) ||
		errors.Is(target, ErrInvalidInput) ||
		e.baseError.Is(target)
}

// IsRetryable reports whether err marks a transient condition worth one
// more attempt.
func IsRetryable(err error) bool {
	var te TandemError
	return As(err, &te) && te.IsRetryable()
}

// IsUserFacing reports whether err's message was written for end users.
// Untyped errors count as internal.
func IsUserFacing(err error) bool {
	var te TandemError
	return As(err, &te) && te.IsUserFacing()
}

// GetSeverity grades err for presentation. Untyped errors grade as
// SeverityError, nil as SeverityDebug.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var te TandemError
	if As(err, &te) {
		return te.Severity()
	}
	return SeverityError
}

// Wrap prefixes err with a context message, preserving the chain for Is
// and As. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf is Wrap with a format string.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
