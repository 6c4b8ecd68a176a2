package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/medpanel/internal/analysis"
	"github.com/sells-group/medpanel/internal/report"
)

var (
	clusterRunID    string
	clusterFeatures []string
	clusterK        int
	clusterSeed     int64
	clusterRegions  string
	clusterFrom     string
	clusterTo       string
	clusterYAML     bool
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "K-means clustering of regions",
	Long:  "Aggregates the panel to per-region feature means, standardizes them, and partitions the regions into k clusters with a seeded k-means.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := parsePanelFilter(clusterRegions, clusterFrom, clusterTo)
		if err != nil {
			return err
		}
		panel, err := st.LoadPanel(ctx, clusterRunID, filter)
		if err != nil {
			return err
		}

		k := clusterK
		if k == 0 {
			k = cfg.Cluster.DefaultK
		}
		seed := clusterSeed
		if seed == 0 {
			seed = cfg.Cluster.Seed
		}

		result, err := analysis.Cluster(clusterFeatures, panel, k, seed)
		if err != nil {
			return err
		}

		if clusterYAML {
			return report.WriteClustersYAML(os.Stdout, result)
		}
		return report.WriteClusters(os.Stdout, result)
	},
}

func init() {
	clusterCmd.Flags().StringVar(&clusterRunID, "run", "", "run ID (required)")
	clusterCmd.Flags().StringSliceVar(&clusterFeatures, "features", []string{"vaccination_rate", "accessibility_score", "income_level"}, "feature columns for clustering")
	clusterCmd.Flags().IntVar(&clusterK, "k", 0, "number of clusters (default from config)")
	clusterCmd.Flags().Int64Var(&clusterSeed, "seed", 0, "centroid-initialization seed (default from config)")
	clusterCmd.Flags().StringVar(&clusterRegions, "regions", "", "comma-separated region IDs (default all)")
	clusterCmd.Flags().StringVar(&clusterFrom, "from", "", "start of date range (YYYY-MM-DD)")
	clusterCmd.Flags().StringVar(&clusterTo, "to", "", "end of date range (YYYY-MM-DD)")
	clusterCmd.Flags().BoolVar(&clusterYAML, "yaml", false, "emit the full result as YAML")
	_ = clusterCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(clusterCmd)
}
