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
	"github.com/mcp-community/registry-stats/internal/report"
	"github.com/mcp-community/registry-stats/internal/usecase"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect registry and GitHub data, save a CSV table, and render plots",
	Long: `Fetches every server from the MCP registry, retrieves GitHub star counts
and last-commit recency for each repository under a bounded number of
concurrent requests, saves the collected data as a sorted CSV table, and
renders scatter plot visualizations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputCSV, _ := cmd.Flags().GetString("output-csv")
		outputPlot, _ := cmd.Flags().GetString("output-plot")
		enhancedPlot, _ := cmd.Flags().GetString("enhanced-plot")
		maxConcurrent, _ := cmd.Flags().GetInt("max-concurrent")
		logScale, _ := cmd.Flags().GetBool("log-scale")
		token, _ := cmd.Flags().GetString("github-token")
		noProgress, _ := cmd.Flags().GetBool("no-progress")
		skipEnhanced, _ := cmd.Flags().GetBool("skip-enhanced")
		registryURL, _ := cmd.Flags().GetString("registry-url")

		if maxConcurrent < usecase.MinConcurrent || maxConcurrent > usecase.MaxConcurrent {
			return fmt.Errorf("--max-concurrent must be between %d and %d", usecase.MinConcurrent, usecase.MaxConcurrent)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		logger := newRunLogger(cmd)
		registry := gateway.NewRegistryClient(registryURL, logger)
		githubGateway, err := gateway.NewGitHubGateway(token, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		collector := usecase.NewCollector(githubGateway, logger, maxConcurrent)

		if !noProgress {
			fmt.Println(headingf("MCP Server Activity vs Popularity Analysis"))
			fmt.Println(dimf("This may take several minutes..."))
		}

		sp := newPagingSpinner(noProgress, "Fetching MCP servers...")
		entries, err := registry.FetchAllServers(ctx)
		stopSpinner(sp)
		if err != nil {
			if ctx.Err() != nil {
				return context.Canceled
			}
			return err
		}
		if !noProgress {
			fmt.Println(successf("Found %d servers", len(entries)))
		}

		records, err := collector.FetchStats(ctx, entries, fetchProgress(noProgress))
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return context.Canceled
			}
			return err
		}

		table := dataset.New(records)
		if err := table.WriteCSV(outputCSV); err != nil {
			return err
		}
		if !noProgress {
			fmt.Println(successf("Saved data to %s", outputCSV))
		}

		valid := table.Filter()
		if valid.Len() == 0 {
			fmt.Println(errorf("No valid data collected for plotting"))
			return fmt.Errorf("no valid data collected for plotting")
		}

		summary, err := report.ScatterPlot(valid, outputPlot, "MCP Server Activity vs Popularity", logScale)
		if err != nil {
			return err
		}
		if !skipEnhanced {
			if err := report.EnhancedPlot(valid, enhancedPlot, "MCP Server Activity vs Popularity"); err != nil {
				return err
			}
		}

		fmt.Println(successf("Analysis complete!"))
		fmt.Println("Summary:")
		fmt.Printf("  Total servers: %d\n", table.Len())
		fmt.Printf("  Servers with GitHub stats: %d\n", valid.Len())
		fmt.Printf("  Mean stars: %.0f, median stars: %.0f, mean days since commit: %.1f\n",
			summary.MeanStars, summary.MedianStars, summary.MeanDays)
		fmt.Printf("  Data saved to: %s\n", outputCSV)
		fmt.Printf("  Plot saved to: %s\n", outputPlot)
		if !skipEnhanced {
			fmt.Printf("  Enhanced plot saved to: %s\n", enhancedPlot)
		}
		return nil
	},
}

// fetchProgress adapts the progress bar to the collector's completion
// callback. The bar is created lazily because the eligible-fetch total is
// only known once the collector has partitioned the entries.
func fetchProgress(quiet bool) usecase.ProgressFunc {
	if quiet {
		return nil
	}
	h := &barHolder{}
	return func(done, total int) {
		h.ensure(total)
		h.tick()
	}
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().StringP("output-csv", "o", "mcp_servers_data.csv", "Path to save collected data CSV")
	collectCmd.Flags().StringP("output-plot", "p", "mcp_activity_vs_popularity.png", "Path to save scatter plot")
	collectCmd.Flags().StringP("enhanced-plot", "e", "mcp_activity_vs_popularity_enhanced.png", "Path to save enhanced plot with multiple views")
	collectCmd.Flags().IntP("max-concurrent", "c", 10, "Maximum concurrent GitHub API requests (1-50)")
	collectCmd.Flags().BoolP("log-scale", "l", false, "Use log scale for the y-axis in the basic plot")
	collectCmd.Flags().StringP("github-token", "t", "", "GitHub API token (or set GITHUB_TOKEN env var)")
	collectCmd.Flags().Bool("no-progress", false, "Disable progress indicators")
	collectCmd.Flags().Bool("skip-enhanced", false, "Skip creating the enhanced plot")
	collectCmd.Flags().String("registry-url", "", "Override the MCP registry listing endpoint")
}
