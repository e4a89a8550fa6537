package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcp-community/registry-stats/internal/dataset"
	"github.com/mcp-community/registry-stats/internal/report"
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize <csv-file>",
	Short: "Create visualizations from an existing CSV table",
	Long: `Reads a previously collected CSV table and regenerates the scatter plot
visualizations without re-fetching any data.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputCSV := args[0]
		outputPlot, _ := cmd.Flags().GetString("output-plot")
		enhancedPlot, _ := cmd.Flags().GetString("enhanced-plot")
		logScale, _ := cmd.Flags().GetBool("log-scale")
		skipEnhanced, _ := cmd.Flags().GetBool("skip-enhanced")

		if _, err := os.Stat(inputCSV); err != nil {
			fmt.Println(errorf("File not found: %s", inputCSV))
			return fmt.Errorf("input file %s: %w", inputCSV, err)
		}

		table, err := dataset.ReadCSV(inputCSV)
		if err != nil {
			return err
		}
		valid := table.Filter()
		if valid.Len() == 0 {
			fmt.Println(errorf("No valid data found in CSV for plotting"))
			return fmt.Errorf("no valid data found in %s for plotting", inputCSV)
		}
		fmt.Println(successf("Loaded %d valid data points", valid.Len()))

		summary, err := report.ScatterPlot(valid, outputPlot, "MCP Server Activity vs Popularity", logScale)
		if err != nil {
			return err
		}
		if !skipEnhanced {
			if err := report.EnhancedPlot(valid, enhancedPlot, "MCP Server Activity vs Popularity"); err != nil {
				return err
			}
		}

		fmt.Println(successf("Visualizations created!"))
		fmt.Printf("  Plotted points: %d (mean stars %.0f, median %.0f)\n",
			summary.Count, summary.MeanStars, summary.MedianStars)
		fmt.Printf("  Plot saved to: %s\n", outputPlot)
		if !skipEnhanced {
			fmt.Printf("  Enhanced plot saved to: %s\n", enhancedPlot)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(visualizeCmd)
	visualizeCmd.Flags().StringP("output-plot", "p", "mcp_activity_vs_popularity.png", "Path to save scatter plot")
	visualizeCmd.Flags().StringP("enhanced-plot", "e", "mcp_activity_vs_popularity_enhanced.png", "Path to save enhanced plot")
	visualizeCmd.Flags().BoolP("log-scale", "l", false, "Use log scale for the y-axis in the basic plot")
	visualizeCmd.Flags().Bool("skip-enhanced", false, "Skip creating the enhanced plot")
}
