package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/medpanel/internal/analysis"
	"github.com/sells-group/medpanel/internal/report"
)

var (
	sumRunID   string
	sumMetric  string
	sumRegions string
	sumFrom    string
	sumTo      string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Per-region statistics for one metric",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := parsePanelFilter(sumRegions, sumFrom, sumTo)
		if err != nil {
			return err
		}
		panel, err := st.LoadPanel(ctx, sumRunID, filter)
		if err != nil {
			return err
		}

		summaries, err := analysis.Summarize(sumMetric, panel)
		if err != nil {
			return err
		}
		return report.WriteSummaries(os.Stdout, sumMetric, summaries)
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&sumRunID, "run", "", "run ID (required)")
	summarizeCmd.Flags().StringVar(&sumMetric, "metric", "vaccination_rate", "metric column to summarize")
	summarizeCmd.Flags().StringVar(&sumRegions, "regions", "", "comma-separated region IDs (default all)")
	summarizeCmd.Flags().StringVar(&sumFrom, "from", "", "start of date range (YYYY-MM-DD)")
	summarizeCmd.Flags().StringVar(&sumTo, "to", "", "end of date range (YYYY-MM-DD)")
	_ = summarizeCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(summarizeCmd)
}
