package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/medpanel/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "medpanel",
	Short: "Synthetic health-system panel generator and analyzer",
	Long:  "Generates a multi-region, multi-day panel of correlated health-system indicators, persists it as runs, and derives per-region statistics, correlation matrices, and k-means region clusters.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
