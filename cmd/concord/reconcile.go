package main

import (
	"os"

	"github.com/aretw0/concord/internal/cli"
	"github.com/aretw0/concord/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a file of submissions against the catalog",
	Long: `Reads both parties' submissions from a YAML or JSON file and prints the outcome
of every clause group. Exits non-zero when a submission is invalid, or with
--strict when a template is blocked.`,
	Example: `  concord reconcile --catalog catalog.yaml --preferences submissions.yaml
  concord reconcile --preferences submissions.yaml --template nda --format pretty
  concord reconcile --source loam --catalog ./clauses --preferences subs.yaml --format mermaid`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyCatalogFlags(cmd)
		opts := cli.ReconcileOptions{
			Catalog: cfg.Catalog,
			Engine:  cfg.Engine,
		}
		opts.Preferences, _ = cmd.Flags().GetString("preferences")
		opts.TemplateID, _ = cmd.Flags().GetString("template")
		opts.Format, _ = cmd.Flags().GetString("format")
		opts.ShowAll, _ = cmd.Flags().GetBool("all")
		opts.Strict, _ = cmd.Flags().GetBool("strict")
		opts.PublishDir, _ = cmd.Flags().GetString("publish")
		if cmd.Flags().Changed("tie-break") {
			opts.Engine.TieBreak, _ = cmd.Flags().GetString("tie-break")
		}
		if cmd.Flags().Changed("seed") {
			opts.Engine.Seed, _ = cmd.Flags().GetString("seed")
		}
		noColor, _ := cmd.Flags().GetBool("no-color")
		opts.Styled = !noColor && tui.IsTerminal(os.Stdout)

		_, err := cli.RunReconcile(cmd.Context(), opts, cmd.OutOrStdout(), logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	addCatalogFlags(reconcileCmd)
	reconcileCmd.Flags().StringP("preferences", "p", "", "Submissions file (YAML or JSON)")
	reconcileCmd.Flags().StringP("template", "t", "", "Reconcile only this template")
	reconcileCmd.Flags().StringP("format", "f", cli.FormatJSON, "Output format: json, pretty, markdown or mermaid")
	reconcileCmd.Flags().String("tie-break", "", "Override engine.tie_break (lowest-id, seeded-hash)")
	reconcileCmd.Flags().String("seed", "", "Seed for the seeded-hash tie-break")
	reconcileCmd.Flags().Bool("strict", false, "Exit non-zero when a template is blocked")
	reconcileCmd.Flags().Bool("all", false, "Mermaid: draw every variant, not only the selected ones")
	reconcileCmd.Flags().String("publish", "", "Also write each result as <template>.json into this directory")
	reconcileCmd.Flags().Bool("no-color", false, "Disable styled output")
	_ = reconcileCmd.MarkFlagRequired("preferences")
}
