package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/tandem/internal/config"
	"github.com/Iron-Ham/tandem/internal/errors"
	"github.com/Iron-Ham/tandem/internal/execx"
	"github.com/Iron-Ham/tandem/internal/logging"
	"github.com/Iron-Ham/tandem/internal/orchestrator"
	"github.com/Iron-Ham/tandem/internal/ui"
)

var (
	runConfigPath    string
	runMaxIterations int
	runDryRun        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the dual-agent loop until the PRD is complete",
	RunE: func(cmd *cobra.Command, args []string) error {
		if runMaxIterations < 0 {
			return errors.NewValidationError("must be zero or a positive iteration count").
				WithField("--max-iterations").
				WithValue(runMaxIterations)
		}

		cfg, err := config.Load(runConfigPath)
		if err != nil {
			return err
		}

		logger, err := buildLogger(cfg, runConfigPath, runDryRun)
		if err != nil {
			return err
		}
		defer logger.Close()

		printer := ui.NewPrinter(cmd.OutOrStdout())
		runner, err := orchestrator.New(cfg, runConfigPath, execx.NewLocal(), logger, printer)
		if err != nil {
			return err
		}

		summary, err := runner.Run(orchestrator.RunOptions{
			MaxIterationsOverride: runMaxIterations,
			DryRun:                runDryRun,
		})
		if err != nil {
			return err
		}

		printer.Summary(summary.Iterations, summary.CompletedItems, summary.Commits)
		return nil
	},
}

// buildLogger opens the debug log configured in cfg. Dry runs get the
// no-op logger so they leave no trace on disk.
func buildLogger(cfg *config.Config, configPath string, dryRun bool) (*logging.Logger, error) {
	if !cfg.Logging.Enabled || dryRun {
		return logging.NopLogger(), nil
	}

	dir := cfg.Logging.Dir
	if dir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(filepath.Dir(configPath), dir)
	}

	return logging.NewLoggerWithRotation(dir, logging.ParseLevel(cfg.Logging.Level), logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", defaultConfigPath, "path to the config file")
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "override workflow.max_iterations for this run")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "preview prompts without invoking agents, tests, or git")
	rootCmd.AddCommand(runCmd)
}
