package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mcp-community/registry-stats/internal/dataset"
	"github.com/mcp-community/registry-stats/internal/gateway"
	"github.com/mcp-community/registry-stats/internal/usecase"
)

var refetchCmd = &cobra.Command{
	Use:   "refetch <csv-file>",
	Short: "Refetch missing GitHub statistics in an existing CSV table",
	Long: `Loads an existing CSV table, finds rows with a GitHub URL but missing
stats (or every GitHub row with --force), refetches their statistics,
and writes the updated table back, preserving the original row order.

Useful for completing a dataset after an interrupted run, or for
retrying failed fetches with a GitHub token.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputCSV := args[0]
		outputCSV, _ := cmd.Flags().GetString("output-csv")
		maxConcurrent, _ := cmd.Flags().GetInt("max-concurrent")
		token, _ := cmd.Flags().GetString("github-token")
		noProgress, _ := cmd.Flags().GetBool("no-progress")
		force, _ := cmd.Flags().GetBool("force")

		if maxConcurrent < usecase.MinConcurrent || maxConcurrent > usecase.MaxConcurrent {
			return fmt.Errorf("--max-concurrent must be between %d and %d", usecase.MinConcurrent, usecase.MaxConcurrent)
		}
		if outputCSV == "" {
			outputCSV = inputCSV
		}

		if _, err := os.Stat(inputCSV); err != nil {
			fmt.Println(errorf("File not found: %s", inputCSV))
			return fmt.Errorf("input file %s: %w", inputCSV, err)
		}
		table, err := dataset.ReadCSV(inputCSV)
		if err != nil {
			return err
		}
		if !noProgress {
			fmt.Println(headingf("Refetching GitHub Statistics"))
			fmt.Println(successf("Loaded %d rows", table.Len()))
		}

		rows := usecase.SelectRefetchRows(table.Records, force)
		if len(rows) == 0 {
			fmt.Println(successf("All rows already have GitHub stats, nothing to refetch."))
			return nil
		}
		if !noProgress {
			if force {
				fmt.Printf("Force mode: refetching all %d rows with GitHub URLs\n", len(rows))
			} else {
				fmt.Printf("Rows to refetch: %d\n", len(rows))
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logger := newRunLogger(cmd)
		githubGateway, err := gateway.NewGitHubGateway(token, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		collector := usecase.NewCollector(githubGateway, logger, maxConcurrent)

		updated, err := collector.RefetchRows(ctx, table.Records, rows, fetchProgress(noProgress))
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return context.Canceled
			}
			return err
		}

		if err := table.WriteCSV(outputCSV); err != nil {
			return err
		}

		withStats := table.Filter().Len()
		fmt.Println(successf("Refetch complete!"))
		fmt.Println("Summary:")
		fmt.Printf("  Total rows: %d\n", table.Len())
		fmt.Printf("  Attempted to refetch: %d\n", len(rows))
		fmt.Printf("  Successfully updated: %d\n", updated)
		fmt.Printf("  Failed: %d\n", len(rows)-updated)
		fmt.Printf("  Total with stats now: %d/%d\n", withStats, table.Len())
		fmt.Printf("  Updated CSV saved to: %s\n", outputCSV)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refetchCmd)
	refetchCmd.Flags().StringP("output-csv", "o", "", "Path to save updated CSV (defaults to overwriting the input file)")
	refetchCmd.Flags().IntP("max-concurrent", "c", 10, "Maximum concurrent GitHub API requests (1-50)")
	refetchCmd.Flags().StringP("github-token", "t", "", "GitHub API token (or set GITHUB_TOKEN env var)")
	refetchCmd.Flags().Bool("no-progress", false, "Disable progress indicators")
	refetchCmd.Flags().BoolP("force", "f", false, "Refetch all GitHub rows, even those with existing stats")
}
