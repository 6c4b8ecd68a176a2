// Package analysis derives descriptive statistics, pairwise correlations, and
// unsupervised region groupings from a panel. Operations take an
// already-filtered panel; filtering by region set or date range is the
// caller's job.
package analysis

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/medpanel/internal/model"
)

// Summary holds the descriptive statistics of one metric for one region.
// Std is the sample standard deviation; it is NaN for a single observation.
type Summary struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Summarize computes per-region mean/std/min/max of the named metric over
// the panel.
func Summarize(metric string, panel model.Panel) (map[int]Summary, error) {
	if !model.IsNumericColumn(metric) {
		return nil, eris.Wrapf(model.ErrInvalidArgument, "analysis: unknown metric %q", metric)
	}
	if len(panel) == 0 {
		return nil, eris.Wrap(model.ErrEmptyInput, "analysis: summarize")
	}

	byRegion := make(map[int][]float64)
	for _, o := range panel {
		v, _ := o.Value(metric)
		byRegion[o.RegionID] = append(byRegion[o.RegionID], v)
	}

	out := make(map[int]Summary, len(byRegion))
	for id, vals := range byRegion {
		s := Summary{
			Mean:  stat.Mean(vals, nil),
			Std:   stat.StdDev(vals, nil),
			Min:   vals[0],
			Max:   vals[0],
			Count: len(vals),
		}
		for _, v := range vals[1:] {
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
		out[id] = s
	}
	return out, nil
}
