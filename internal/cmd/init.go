package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/tandem/internal/config"
	"github.com/Iron-Ham/tandem/internal/errors"
)

var (
	initConfigPath string
	initPRDPath    string
	initForce      bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a tandem.toml config and starter PRD checklist",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(initConfigPath); err == nil && !initForce {
			return errors.Wrapf(errors.ErrConfigExists,
				"%s already exists. Re-run with --force to overwrite", initConfigPath)
		}

		for _, path := range []string{initConfigPath, initPRDPath} {
			dir := filepath.Dir(path)
			if dir == "" || dir == "." {
				continue
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.Wrapf(err, "failed to create %s", dir)
			}
		}

		if _, err := os.Stat(initPRDPath); os.IsNotExist(err) || initForce {
			if err := os.WriteFile(initPRDPath, []byte(config.DefaultPRD()), 0644); err != nil {
				return errors.Wrapf(err, "failed to write %s", initPRDPath)
			}
		}

		cfg := config.Default()
		cfg.PRD.File = config.RelativePRDPath(initConfigPath, initPRDPath)
		if err := cfg.WriteFile(initConfigPath); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Wrote %s\n", initConfigPath)
		fmt.Fprintf(out, "Wrote %s\n", initPRDPath)
		fmt.Fprintf(out, "Next: tandem run --config %s\n", initConfigPath)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initConfigPath, "config", defaultConfigPath, "path for the generated config file")
	initCmd.Flags().StringVar(&initPRDPath, "prd", "PRD.md", "path for the generated PRD checklist")
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config and PRD files")
	rootCmd.AddCommand(initCmd)
}
