package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/medpanel/internal/store"
)

var (
	exportRunID  string
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored panel to CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		panel, err := st.LoadPanel(ctx, exportRunID, store.PanelFilter{})
		if err != nil {
			return err
		}

		if err := writePanel(panel, exportFormat, exportOutput); err != nil {
			return err
		}
		cmd.Printf("Wrote %s (%d rows)\n", exportOutput, len(panel))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "run ID (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "output file path (required)")
	_ = exportCmd.MarkFlagRequired("run")
	_ = exportCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(exportCmd)
}
