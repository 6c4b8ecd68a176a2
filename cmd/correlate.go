package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/medpanel/internal/analysis"
	"github.com/sells-group/medpanel/internal/model"
	"github.com/sells-group/medpanel/internal/report"
)

var (
	corrRunID   string
	corrColumns []string
	corrRegions string
	corrFrom    string
	corrTo      string
)

var correlateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Pearson correlation matrix over indicator columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := parsePanelFilter(corrRegions, corrFrom, corrTo)
		if err != nil {
			return err
		}
		panel, err := st.LoadPanel(ctx, corrRunID, filter)
		if err != nil {
			return err
		}

		columns := corrColumns
		if len(columns) == 0 {
			columns = model.IndicatorColumns
		}
		matrix, err := analysis.Correlate(columns, panel)
		if err != nil {
			return err
		}
		return report.WriteCorrelation(os.Stdout, matrix)
	},
}

func init() {
	correlateCmd.Flags().StringVar(&corrRunID, "run", "", "run ID (required)")
	correlateCmd.Flags().StringSliceVar(&corrColumns, "columns", nil, "columns to correlate (default all indicators)")
	correlateCmd.Flags().StringVar(&corrRegions, "regions", "", "comma-separated region IDs (default all)")
	correlateCmd.Flags().StringVar(&corrFrom, "from", "", "start of date range (YYYY-MM-DD)")
	correlateCmd.Flags().StringVar(&corrTo, "to", "", "end of date range (YYYY-MM-DD)")
	_ = correlateCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(correlateCmd)
}
