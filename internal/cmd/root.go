// Package cmd defines the tandem CLI: init scaffolds a project, run drives
// the orchestration loop, validate checks a project without running it, and
// logs inspects past run logs.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/ui"
)

// defaultConfigPath is the config file every subcommand looks for unless
// --config points elsewhere.
const defaultConfigPath = "tandem.toml"

var rootCmd = &cobra.Command{
	Use:   "tandem",
	Short: "Dual-agent loop orchestrator for PRD delivery",
	Long: `Tandem drives a PRD checklist to completion with two agents working in
tandem: a fast loop manager decides the next task each iteration, and a
stronger implementation agent executes it. After each delegation the
orchestrator runs the configured test suite with bounded fix retries,
optionally commits, and marks the checklist item done.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command, printing any error styled by severity:
// warnings and below render in the warning style, everything else as a
// failure. Errors that were not written for end users point at the debug
// log instead of leaving a bare internal message.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		line := "Error: " + err.Error()
		if errors.GetSeverity(err) <= errors.SeverityWarning {
			fmt.Fprintln(os.Stderr, ui.Warn.Render(line))
		} else {
			fmt.Fprintln(os.Stderr, ui.Failure.Render(line))
		}
		if !errors.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, ui.Muted.Render("Run `tandem logs` to inspect the debug log."))
		}
	}
	return err
}
