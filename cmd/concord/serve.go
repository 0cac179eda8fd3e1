package main

import (
	"github.com/aretw0/concord/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the negotiation service, exposing a JSON API over HTTP. Parties submit
preferences per clause group and results are recomputed on every submission.
Result changes are streamed as Server-Sent Events on /events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyCatalogFlags(cmd)
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr, _ = cmd.Flags().GetString("addr")
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Serve(ctx, cfg, cmd.OutOrStdout(), logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addCatalogFlags(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default http.addr, :8080)")
}
