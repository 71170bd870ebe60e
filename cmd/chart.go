package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/paysplit/internal/charts"
	"github.com/theirongolddev/paysplit/internal/pipeline"
)

var (
	flagChartOut        string
	flagChartView       string
	flagChartComparison bool
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Export a PNG chart of a budget view",
	RunE:  runChart,
}

func init() {
	chartCmd.Flags().StringVarP(&flagChartOut, "out", "o", "budget.png", "Output PNG file")
	chartCmd.Flags().StringVar(&flagChartView, "view", "entered", "Budget view: entered, recommended or perfect")
	chartCmd.Flags().BoolVar(&flagChartComparison, "comparison", false, "Bar chart of all three views by category type")
	rootCmd.AddCommand(chartCmd)
}

func runChart(cmd *cobra.Command, _ []string) error {
	view, err := pipeline.ParseView(flagChartView)
	if err != nil {
		return err
	}

	res, err := loadBudget(cmd.Context())
	if err != nil {
		return err
	}

	var png []byte
	if flagChartComparison {
		png, err = charts.Comparison(res.Summary)
	} else {
		png, err = charts.Pie(res, view)
	}
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	if err := os.WriteFile(flagChartOut, png, 0o644); err != nil { //nolint:gosec // user-chosen output file
		return fmt.Errorf("writing chart: %w", err)
	}
	hint("  Wrote %s\n", flagChartOut)
	return nil
}
