// Package orchestrator drives the dual-agent delivery loop.
//
// A LoopRunner owns one run: each iteration it re-reads the PRD checklist,
// asks the loop agent for a decision, hands the chosen item to the worker
// agent, runs the configured test suite with bounded fix retries, then
// optionally commits and marks the item done. Free-text loop context carries
// the previous iteration's outcome into the next planning prompt, so the
// planner has continuity without any persisted state.
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/Iron-Ham/tandem/internal/agent"
	"github.com/Iron-Ham/tandem/internal/checklist"
	"github.com/Iron-Ham/tandem/internal/config"
	"github.com/Iron-Ham/tandem/internal/decision"
	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/execx"
	"github.com/Iron-Ham/tandem/internal/gitops"
	"github.com/Iron-Ham/tandem/internal/logging"
	"github.com/Iron-Ham/tandem/internal/prompt"
	"github.com/Iron-Ham/tandem/internal/testrun"
	"github.com/Iron-Ham/tandem/internal/ui"
)

// RunOptions are per-invocation loop parameters.
type RunOptions struct {
	// MaxIterationsOverride replaces the configured iteration bound for
	// this run only. Zero means use the configured value.
	MaxIterationsOverride int
	// DryRun simulates the loop without invoking agents, running tests,
	// committing, or mutating the checklist.
	DryRun bool
}

// RunSummary reports what a run accomplished.
type RunSummary struct {
	// Iterations is the last iteration number that did work (decided,
	// failed, or completed). Zero when the checklist was already complete.
	Iterations int
	// CompletedItems counts checklist items marked done.
	CompletedItems int
	// Commits counts commits created.
	Commits int
}

// StopCause labels why a run ended. It appears in the run log, not in the
// summary.
type StopCause string

const (
	// StopChecklistComplete means no unchecked items remained.
	StopChecklistComplete StopCause = "checklist-complete"
	// StopPlannerDone means the loop agent decided the run is finished.
	StopPlannerDone StopCause = "planner-done"
	// StopExhausted means the iteration budget ran out.
	StopExhausted StopCause = "exhausted"
)

// LoopRunner drives the iteration state machine for one configured project.
//
// Execution is single-threaded and synchronous: agents, tests, and git are
// blocking calls with no timeout, and one iteration fully completes before
// the next begins. A LoopRunner is not safe for concurrent use.
type LoopRunner struct {
	cfg     *config.Config
	prdPath string
	planner *agent.Invoker
	worker  *agent.Invoker
	prompts *prompt.Builder
	tests   *testrun.Executor
	git     *gitops.Gateway
	logger  *logging.Logger
	printer *ui.Printer
}

// New wires a LoopRunner for the project containing configPath. The PRD
// path from the config resolves relative to the config file's directory,
// and tests and git run there. A nil logger disables logging; a nil
// printer writes to stdout. Every log line from the run carries a fresh
// run ID.
func New(cfg *config.Config, configPath string, runner execx.Runner, logger *logging.Logger, printer *ui.Printer) (*LoopRunner, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.WithRun(uuid.NewString())

	if printer == nil {
		printer = ui.NewPrinter(os.Stdout)
	}

	prompts, err := prompt.New()
	if err != nil {
		return nil, err
	}

	root := filepath.Dir(configPath)
	prdPath := cfg.PRD.File
	if !filepath.IsAbs(prdPath) {
		prdPath = filepath.Join(root, prdPath)
	}

	return &LoopRunner{
		cfg:     cfg,
		prdPath: prdPath,
		planner: agent.NewInvoker(profileFor("loop", cfg.LoopAgent), runner, logger),
		worker:  agent.NewInvoker(profileFor("worker", cfg.WorkerAgent), runner, logger),
		prompts: prompts,
		tests:   testrun.NewExecutor(runner, root, logger),
		git:     gitops.NewGateway(runner, root, logger),
		logger:  logger,
		printer: printer,
	}, nil
}

// profileFor converts one agent config section into an invoker profile.
func profileFor(role string, ac config.AgentConfig) agent.Profile {
	return agent.Profile{
		Role:         role,
		Provider:     agent.Provider(ac.Provider),
		Command:      ac.Command,
		Args:         ac.Args,
		Model:        ac.Model,
		VisibleFiles: ac.VisibleFiles,
		VisibleTests: ac.VisibleTests,
		SystemPrompt: ac.SystemPrompt,
	}
}

// PRDPath returns the resolved checklist path the runner operates on.
func (r *LoopRunner) PRDPath() string {
	return r.prdPath
}

// Run executes the delivery loop and reports what it accomplished.
//
// The checklist is re-read from disk at the start of every iteration, so
// edits made between iterations (by the worker or by a human) are observed.
// The run stops when the checklist has no unchecked items, the planner
// decides Done, or the iteration budget is exhausted. A test failure is
// not fatal: after the fix retries are spent, the failure output is handed
// to the planner as context and the loop continues. Checklist IO, agent
// invocation, and git failures abort the run with the summary accumulated
// so far.
func (r *LoopRunner) Run(opts RunOptions) (RunSummary, error) {
	maxIterations := r.cfg.Workflow.MaxIterations
	if opts.MaxIterationsOverride > 0 {
		maxIterations = opts.MaxIterationsOverride
	}

	r.logger.Info("run started",
		"prd", r.prdPath,
		"max_iterations", maxIterations,
		"dry_run", opts.DryRun)

	var summary RunSummary
	loopContext := ""

	for step := 1; step <= maxIterations; step++ {
		doc, err := checklist.Load(r.prdPath)
		if err != nil {
			return summary, err
		}

		unchecked := doc.Unchecked()
		if len(unchecked) == 0 {
			r.printer.Infof("PRD is complete. Stopping.")
			r.logger.Info("run stopped", "cause", string(StopChecklistComplete), "iterations", summary.Iterations)
			return summary, nil
		}

		r.printer.Bannerf("=== Iteration %d/%d ===", step, maxIterations)
		iterLogger := r.logger.WithIteration(step)

		dec, err := r.decide(doc, unchecked, loopContext, opts.DryRun)
		if err != nil {
			return summary, err
		}

		if dec.Action == decision.ActionDone {
			reason := dec.Reason
			if reason == "" {
				reason = "no reason"
			}
			r.printer.Infof("Loop agent decided to stop: %s", reason)
			iterLogger.Info("run stopped", "cause", string(StopPlannerDone), "reason", reason)
			summary.Iterations = step
			return summary, nil
		}

		target := dec.TargetItem
		if target == "" {
			target = unchecked[0].Text
		}
		task := dec.WorkerPrompt
		if task == "" {
			task = fmt.Sprintf("Implement PRD item: %s. Keep changes scoped and verify with tests.", target)
		}

		iterLogger.Info("delegating item", "item", target)

		testResult, err := r.implement(target, task, iterLogger, opts.DryRun)
		if err != nil {
			return summary, err
		}

		if !testResult.Success {
			r.printer.Failf("Tests are still failing. Handing context back to loop agent.")
			iterLogger.Warn("iteration failed, handing context to planner", "item", target)
			loopContext = fmt.Sprintf("Previous attempt failed for item `%s`.\nTest output:\n%s", target, testResult.Output)
			summary.Iterations = step
			continue
		}

		commitHash := ""
		if r.cfg.Workflow.AutoCommit && !opts.DryRun {
			dirty, err := r.git.HasUncommittedChanges()
			if err != nil {
				return summary, err
			}
			if dirty {
				msg := dec.CommitMessage
				if msg == "" {
					msg = fmt.Sprintf("feat: complete PRD item: %s", target)
				}
				commitHash, err = r.commit(msg, iterLogger)
				if err != nil {
					return summary, err
				}
				summary.Commits++
			}
		}

		if r.cfg.PRD.AutoMarkCompleted && !opts.DryRun {
			marked, err := checklist.MarkDone(r.prdPath, target)
			if err != nil {
				return summary, err
			}
			if marked {
				r.printer.Successf("Marked PRD item done: %s", target)
				iterLogger.Info("marked item done", "item", target)
				summary.CompletedItems++
			} else {
				r.printer.Warnf("Could not match PRD item to auto-mark done: %s", target)
				iterLogger.Warn("no unchecked line matched item", "item", target)
			}
		}

		commitLabel := commitHash
		if commitLabel == "" {
			commitLabel = "none"
		}
		loopContext = fmt.Sprintf("Completed item `%s`. Commit: %s", target, commitLabel)
		summary.Iterations = step
	}

	r.logger.Info("run stopped", "cause", string(StopExhausted), "iterations", summary.Iterations)
	return summary, nil
}

// decide produces this iteration's decision. Outside dry runs it renders
// the planning prompt, invokes the loop agent, and parses the reply; in a
// dry run it previews the prompt and synthesizes a delegation for the
// first unchecked item, keeping the run deterministic and spawn-free.
func (r *LoopRunner) decide(doc *checklist.Document, unchecked []checklist.Item, loopContext string, dryRun bool) (decision.Decision, error) {
	promptText, err := r.prompts.Planner(prompt.PlannerData{
		SystemPrompt:   r.cfg.LoopAgent.SystemPrompt,
		PRDPath:        r.prdPath,
		VisibleFiles:   r.cfg.LoopAgent.VisibleFiles,
		VisibleTests:   r.cfg.LoopAgent.VisibleTests,
		ExecutionTests: r.cfg.Workflow.ExecutionTests,
		Completed:      itemTexts(doc.Items, true),
		Remaining:      itemTexts(doc.Items, false),
		Context:        loopContext,
	})
	if err != nil {
		return decision.Decision{}, err
	}

	if dryRun {
		r.printer.Preview("[dry-run] loop prompt preview", promptText)
		return decision.Decision{
			Action:       decision.ActionDelegate,
			TargetItem:   unchecked[0].Text,
			WorkerPrompt: "Implement PRD item: " + unchecked[0].Text,
			Reason:       "dry-run synthetic decision",
		}, nil
	}

	reply, err := r.planner.Invoke(promptText)
	if err != nil {
		return decision.Decision{}, err
	}
	return decision.Parse(reply.Stdout), nil
}

// implement runs the worker for target/task, then the test suite, retrying
// with failure context up to the configured fix attempts. The returned
// result reflects the final test state; a failing suite is a normal
// outcome, not an error.
func (r *LoopRunner) implement(target, task string, logger *logging.Logger, dryRun bool) (testrun.Result, error) {
	workerPrompt, err := r.workerPrompt(target, task, "")
	if err != nil {
		return testrun.Result{}, err
	}

	if dryRun {
		r.printer.Infof("[dry-run] worker prompt for item: %s", target)
	} else {
		reply, err := r.worker.Invoke(workerPrompt)
		if err != nil {
			return testrun.Result{}, err
		}
		r.printer.Preview("Worker response (truncated)", reply.Stdout)
	}

	testResult, err := r.tests.Run(r.cfg.Workflow.ExecutionTests, dryRun)
	if err != nil {
		return testrun.Result{}, err
	}
	if testResult.Success || dryRun {
		return testResult, nil
	}

	for attempt := 1; attempt <= r.cfg.Workflow.MaxFixAttempts; attempt++ {
		r.printer.Warnf("Tests failed. Running fix attempt %d.", attempt)
		logger.Warn("tests failed, retrying",
			"attempt", attempt,
			"max_attempts", r.cfg.Workflow.MaxFixAttempts)

		fixPrompt, err := r.workerPrompt(target, task, testResult.Output)
		if err != nil {
			return testrun.Result{}, err
		}
		if _, err := r.worker.Invoke(fixPrompt); err != nil {
			return testrun.Result{}, err
		}

		testResult, err = r.tests.Run(r.cfg.Workflow.ExecutionTests, dryRun)
		if err != nil {
			return testrun.Result{}, err
		}
		if testResult.Success {
			break
		}
	}

	return testResult, nil
}

// commit stages and commits everything, retrying once when git reports a
// transient failure such as a held index lock.
func (r *LoopRunner) commit(message string, logger *logging.Logger) (string, error) {
	hash, err := r.git.CommitAll(message)
	if err != nil && errors.IsRetryable(err) {
		logger.Warn("retrying transient git failure", "error", err.Error())
		return r.git.CommitAll(message)
	}
	return hash, err
}

// workerPrompt renders the implementation prompt, optionally carrying the
// previous test failure output.
func (r *LoopRunner) workerPrompt(target, task, failureOutput string) (string, error) {
	return r.prompts.Worker(prompt.WorkerData{
		SystemPrompt:   r.cfg.WorkerAgent.SystemPrompt,
		TargetItem:     target,
		Task:           task,
		VisibleFiles:   r.cfg.WorkerAgent.VisibleFiles,
		VisibleTests:   r.cfg.WorkerAgent.VisibleTests,
		ExecutionTests: r.cfg.Workflow.ExecutionTests,
		FailureOutput:  failureOutput,
	})
}

// itemTexts selects item texts by checked state, in document order.
func itemTexts(items []checklist.Item, checked bool) []string {
	var texts []string
	for _, item := range items {
		if item.Checked == checked {
			texts = append(texts, item.Text)
		}
	}
	return texts
}
