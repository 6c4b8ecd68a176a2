package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/medpanel/internal/export"
	"github.com/sells-group/medpanel/internal/model"
	"github.com/sells-group/medpanel/internal/synth"
)

var (
	genRegions  int
	genDays     int
	genStart    string
	genSeed     int64
	genParallel bool
	genSave     bool
	genFormat   string
	genOutput   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic panel",
	Long:  "Generates the full date x region panel. With --save the panel is persisted as a run; with --output it is exported to CSV or XLSX.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		regions := genRegions
		if regions == 0 {
			regions = cfg.Gen.Regions
		}
		days := genDays
		if days == 0 {
			days = cfg.Gen.Days
		}
		startStr := genStart
		if startStr == "" {
			startStr = cfg.Gen.StartDate
		}
		start, err := time.Parse(model.DateFormat, startStr)
		if err != nil {
			return eris.Wrapf(model.ErrInvalidArgument, "invalid --start date %q", startStr)
		}

		seed := genSeed
		if seed == 0 {
			seed = cfg.Gen.Seed
		}
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		spec := model.GenerationSpec{
			Regions:   regions,
			Days:      days,
			StartDate: start,
			Seed:      seed,
			Parallel:  genParallel,
		}

		began := time.Now()
		var panel model.Panel
		if genParallel {
			panel, err = synth.GeneratePanelParallel(ctx, seed, regions, days, start, cfg.Gen.Workers)
		} else {
			panel, err = synth.GeneratePanel(rand.New(rand.NewSource(seed)), regions, days, start)
		}
		if err != nil {
			return err
		}

		zap.L().Info("panel generated",
			zap.Int("regions", regions),
			zap.Int("days", days),
			zap.Int64("seed", seed),
			zap.Int("rows", len(panel)),
			zap.Duration("elapsed", time.Since(began)),
		)

		if genSave {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			run, err := st.CreateRun(ctx, spec)
			if err != nil {
				return err
			}
			if err := st.SaveObservations(ctx, run.ID, panel); err != nil {
				if stErr := st.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed); stErr != nil {
					zap.L().Warn("mark run failed", zap.Error(stErr))
				}
				return err
			}
			cmd.Printf("Saved run %s (%d rows)\n", run.ID, len(panel))
		}

		if genOutput != "" {
			if err := writePanel(panel, genFormat, genOutput); err != nil {
				return err
			}
			cmd.Printf("Wrote %s (%d rows)\n", genOutput, len(panel))
		}

		if !genSave && genOutput == "" {
			return export.WriteCSV(os.Stdout, panel)
		}
		return nil
	},
}

func writePanel(panel model.Panel, format, path string) error {
	switch format {
	case "csv":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		defer f.Close() //nolint:errcheck
		return export.WriteCSV(f, panel)
	case "xlsx":
		return export.WriteXLSX(path, panel)
	default:
		return eris.Errorf("unsupported format: %s (want csv or xlsx)", format)
	}
}

func init() {
	generateCmd.Flags().IntVar(&genRegions, "regions", 0, "number of regions (default from config)")
	generateCmd.Flags().IntVar(&genDays, "days", 0, "number of days (default from config)")
	generateCmd.Flags().StringVar(&genStart, "start", "", "start date YYYY-MM-DD (default from config)")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "random seed (0 = fresh seed per run)")
	generateCmd.Flags().BoolVar(&genParallel, "parallel", false, "synthesize regions concurrently")
	generateCmd.Flags().BoolVar(&genSave, "save", false, "persist the panel as a run")
	generateCmd.Flags().StringVar(&genFormat, "format", "csv", "output format: csv or xlsx")
	generateCmd.Flags().StringVar(&genOutput, "output", "", "output file path")
	rootCmd.AddCommand(generateCmd)
}
