package analysis

import (
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/medpanel/internal/model"
)

// CorrelationMatrix is a symmetric Pearson correlation matrix over named
// panel columns. The diagonal is 1.0; entries involving a zero-variance
// column are NaN, the explicit undefined marker, never substituted with zero.
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// At returns the correlation between two named columns.
func (m *CorrelationMatrix) At(a, b string) (float64, bool) {
	ai, bi := -1, -1
	for i, c := range m.Columns {
		if c == a {
			ai = i
		}
		if c == b {
			bi = i
		}
	}
	if ai < 0 || bi < 0 {
		return 0, false
	}
	return m.Values[ai][bi], true
}

// Correlate computes the Pearson correlation matrix over the named numeric
// columns of the panel. At least two rows are required for correlation to be
// defined.
func Correlate(columns []string, panel model.Panel) (*CorrelationMatrix, error) {
	if len(columns) < 2 {
		return nil, eris.Wrap(model.ErrInvalidArgument, "analysis: correlate needs at least 2 columns")
	}
	for _, c := range columns {
		if !model.IsNumericColumn(c) {
			return nil, eris.Wrapf(model.ErrInvalidArgument, "analysis: unknown column %q", c)
		}
	}
	if len(panel) == 0 {
		return nil, eris.Wrap(model.ErrEmptyInput, "analysis: correlate")
	}
	if len(panel) < 2 {
		return nil, eris.Wrapf(model.ErrInsufficientData, "analysis: correlate needs >= 2 rows, got %d", len(panel))
	}

	series := make([][]float64, len(columns))
	for i, c := range columns {
		vals := make([]float64, len(panel))
		for j, o := range panel {
			vals[j], _ = o.Value(c)
		}
		series[i] = vals
	}

	values := make([][]float64, len(columns))
	for i := range values {
		values[i] = make([]float64, len(columns))
		values[i][i] = 1.0
	}
	for i := 0; i < len(columns); i++ {
		for j := i + 1; j < len(columns); j++ {
			// Zero variance in either column yields NaN here.
			r := stat.Correlation(series[i], series[j], nil)
			values[i][j] = r
			values[j][i] = r
		}
	}

	return &CorrelationMatrix{Columns: append([]string(nil), columns...), Values: values}, nil
}
