package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/concord/internal/cli"
	"github.com/aretw0/concord/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "concord",
	Short: "Concord reconciles two parties' clause preferences",
	Long: `Concord takes each party's ranked and rejected clause variants and settles every
clause group of a contract template on a mutually acceptable variant, or flags it
with a red light when none exists.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			loaded.Log.Level = level
		}
		l, err := cli.NewLogger(loaded.Log)
		if err != nil {
			return err
		}
		cfg, logger = loaded, l
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level (debug, info, warn, error)")
}

// applyCatalogFlags lets --catalog and --source override the configured catalog.
func applyCatalogFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("catalog") {
		cfg.Catalog.Path, _ = cmd.Flags().GetString("catalog")
	}
	if cmd.Flags().Changed("source") {
		cfg.Catalog.Source, _ = cmd.Flags().GetString("source")
	}
}

func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().String("catalog", "", "Catalog file (source=file) or directory (source=loam)")
	cmd.Flags().String("source", "", "Catalog source: file or loam")
}
