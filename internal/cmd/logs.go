package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/tandem/internal/config"
	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/logging"
)

var (
	logsConfigPath string
	logsTail       int
	logsLevel      string
	logsSince      string
	logsRunID      string
	logsAgent      string
	logsIteration  int
	logsGrep       string
	logsOutput     string
	logsFormat     string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View and filter debug logs from past runs",
	Long: `View the JSON debug log written by tandem run, including rotated
backups, filtered and formatted for reading.

Examples:
  # Show the last 50 entries
  tandem logs

  # Show everything from a specific run
  tandem logs --run 8f14e45f -n 0

  # Warnings and errors from the last hour
  tandem logs --level warn --since 1h

  # Only the worker agent's entries for iteration 3
  tandem logs --agent worker --iteration 3

  # Export matching entries as CSV
  tandem logs --grep "tests failed" --output failures.csv --format csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(logsConfigPath)
		if err != nil {
			return err
		}

		dir := cfg.Logging.Dir
		if dir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(filepath.Dir(logsConfigPath), dir)
		}

		entries, err := logging.AggregateLogs(dir)
		if err != nil {
			return err
		}

		filter := logging.LogFilter{
			Level:           logsLevel,
			RunID:           logsRunID,
			Agent:           logsAgent,
			Iteration:       logsIteration,
			MessageContains: logsGrep,
		}
		if logsSince != "" {
			d, err := time.ParseDuration(logsSince)
			if err != nil {
				return errors.Wrapf(err, "invalid --since duration %q", logsSince)
			}
			filter.StartTime = time.Now().Add(-d)
		}
		entries = logging.FilterLogs(entries, filter)

		if logsTail > 0 && len(entries) > logsTail {
			entries = entries[len(entries)-logsTail:]
		}

		out := cmd.OutOrStdout()
		if logsOutput != "" {
			if err := logging.ExportLogEntries(entries, logsOutput, logsFormat); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %d entries to %s\n", len(entries), logsOutput)
			return nil
		}

		if len(entries) == 0 {
			fmt.Fprintln(out, "No matching log entries found.")
			return nil
		}
		for _, entry := range entries {
			fmt.Fprintln(out, logging.FormatLogEntry(entry))
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().StringVar(&logsConfigPath, "config", defaultConfigPath, "path to the config file")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "only entries newer than this duration ago (e.g. 1h, 30m)")
	logsCmd.Flags().StringVar(&logsRunID, "run", "", "only entries from this run ID")
	logsCmd.Flags().StringVar(&logsAgent, "agent", "", "only entries from this agent role (loop/worker)")
	logsCmd.Flags().IntVar(&logsIteration, "iteration", 0, "only entries from this iteration")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "only entries whose message contains this substring")
	logsCmd.Flags().StringVar(&logsOutput, "output", "", "write matching entries to this file instead of stdout")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "export format: json, text, or csv")
	rootCmd.AddCommand(logsCmd)
}
