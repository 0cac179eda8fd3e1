package main

import (
	"github.com/aretw0/concord/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check submissions against the catalog without reconciling",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyCatalogFlags(cmd)
		opts := cli.ValidateOptions{Catalog: cfg.Catalog}
		opts.Preferences, _ = cmd.Flags().GetString("preferences")
		opts.TemplateID, _ = cmd.Flags().GetString("template")
		opts.Format, _ = cmd.Flags().GetString("format")

		_, err := cli.RunValidate(cmd.Context(), opts, cmd.OutOrStdout())
		return err
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	addCatalogFlags(validateCmd)
	validateCmd.Flags().StringP("preferences", "p", "", "Submissions file (YAML or JSON)")
	validateCmd.Flags().StringP("template", "t", "", "Template assumed for submissions that name none")
	validateCmd.Flags().StringP("format", "f", "text", "Output format: text or json")
	_ = validateCmd.MarkFlagRequired("preferences")
}
