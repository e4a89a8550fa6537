// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "registry-stats",
	Short: "Collects activity and popularity stats for MCP registry servers.",
	Long: `registry-stats pages through the MCP server registry, fetches GitHub
star counts and last-commit recency for every listed server, saves the
result as a sorted CSV table, and renders scatter plots of repository
activity against popularity.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). Exit codes: 0 on success, 1 on any
// handled error, 130 when a run is interrupted by the user.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

// newRunLogger builds the logger injected into gateways and usecases.
// Logs are discarded unless --verbose is set, in which case they go to
// standard error.
func newRunLogger(cmd *cobra.Command) *log.Logger {
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose, _ := cmd.InheritedFlags().GetBool("verbose"); verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}
