// Package report renders analysis results for terminal output.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/medpanel/internal/analysis"
)

var printer = message.NewPrinter(language.English)

// WriteSummaries writes a per-region statistics table, regions ascending.
func WriteSummaries(w io.Writer, metric string, summaries map[int]analysis.Summary) error {
	ids := make([]int, 0, len(summaries))
	for id := range summaries {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "REGION\tMEAN\tSTD\tMIN\tMAX\tN\n")
	for _, id := range ids {
		s := summaries[id]
		fmt.Fprintf(tw, "%d\t%.2f\t%s\t%.2f\t%.2f\t%d\n",
			id, s.Mean, formatFloat(s.Std), s.Min, s.Max, s.Count)
	}
	if err := tw.Flush(); err != nil {
		return eris.Wrapf(err, "report: write %s summary", metric)
	}
	return nil
}

// WriteCorrelation writes the correlation matrix as a table. Undefined
// entries print as NaN.
func WriteCorrelation(w io.Writer, m *analysis.CorrelationMatrix) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprint(tw, "\t")
	for _, c := range m.Columns {
		fmt.Fprintf(tw, "%s\t", c)
	}
	fmt.Fprintln(tw)

	for i, c := range m.Columns {
		fmt.Fprintf(tw, "%s\t", c)
		for j := range m.Columns {
			fmt.Fprintf(tw, "%s\t", formatFloat(m.Values[i][j]))
		}
		fmt.Fprintln(tw)
	}
	return eris.Wrap(tw.Flush(), "report: write correlation")
}

// WriteClusters writes one description block per cluster, in the style of
// "vaccination_rate 12.3% above the panel mean".
func WriteClusters(w io.Writer, result *analysis.ClusterResult) error {
	for _, s := range result.Summaries {
		if _, err := printer.Fprintf(w, "Cluster %d (regions: %d", s.Cluster, s.Size); err != nil {
			return eris.Wrap(err, "report: write clusters")
		}
		if s.Size > 0 {
			printer.Fprintf(w, ", mean population: %d", int64(s.MeanPopulation))
		}
		fmt.Fprintln(w, ")")

		if s.Size == 0 {
			fmt.Fprintln(w, "  Empty: initialization collapsed this centroid.")
			fmt.Fprintln(w)
			continue
		}

		distinctive := 0
		for _, f := range s.Features {
			if !f.Distinctive {
				continue
			}
			distinctive++
			fmt.Fprintf(w, "  - %s %.1f%% %s the panel mean (%.2f vs %.2f)\n",
				f.Name, math.Abs(f.DiffPct), f.Direction, f.Mean, f.GlobalMean)
		}
		if distinctive == 0 {
			fmt.Fprintln(w, "  No clear deviation from panel means.")
		}
		fmt.Fprintln(w)
	}

	if !result.Converged {
		fmt.Fprintf(w, "Note: stopped after %d iterations without full convergence.\n", result.Iterations)
	}
	return nil
}

// WriteClustersYAML writes the full cluster result as YAML.
func WriteClustersYAML(w io.Writer, result *analysis.ClusterResult) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return eris.Wrap(enc.Encode(result), "report: encode clusters yaml")
}

// formatFloat renders NaN explicitly; everything else with 2 decimals.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}
