package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/tandem/internal/checklist"
	"github.com/Iron-Ham/tandem/internal/config"
)

var validateConfigPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config and PRD checklist without running the loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(validateConfigPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config is valid: %s\n", validateConfigPath)

		prdPath := cfg.PRD.File
		if !filepath.IsAbs(prdPath) {
			prdPath = filepath.Join(filepath.Dir(validateConfigPath), prdPath)
		}
		doc, err := checklist.Load(prdPath)
		if err != nil {
			return err
		}

		if doc.Meta.Title != "" {
			fmt.Fprintf(out, "PRD title: %s\n", doc.Meta.Title)
		}
		fmt.Fprintf(out, "PRD items: %d unchecked / %d total\n", len(doc.Unchecked()), len(doc.Items))
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateConfigPath, "config", defaultConfigPath, "path to the config file")
	rootCmd.AddCommand(validateCmd)
}
