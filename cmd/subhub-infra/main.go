package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/subhub-ai/infra/cmd/subhub-infra/commands"
	"github.com/subhub-ai/infra/internal/config"
	"github.com/subhub-ai/infra/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
	)

	// Shared command context, populated in PersistentPreRun
	cmdCtx := &commands.Context{}

	rootCmd := &cobra.Command{
		Use:   "subhub-infra",
		Short: "SubHub infrastructure clients - secrets, Looker, and warehouse access",
		Long: `subhub-infra wraps SubHub's shared infrastructure: the secret store,
the Looker API, and the data warehouse. It reads credentials from the
configured secret store and never accepts them as flags.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Non-interactive runs (CI, cron) get plain output.
			cmdCtx.Logger = logging.New(debug, noColor || nonInteractive)
			cmdCtx.Config = &config.Config{Path: config.ResolvePath(configFile)}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (default: subhub-infra.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Disable prompts and colored output (for CI)")

	rootCmd.AddCommand(
		commands.NewSecretCommand(cmdCtx),
		commands.NewLookerCommand(cmdCtx),
		commands.NewSQLCommand(cmdCtx),
		commands.NewDoctorCommand(cmdCtx),
		commands.NewCompletionCommand(cmdCtx),
	)

	return rootCmd.Execute()
}
