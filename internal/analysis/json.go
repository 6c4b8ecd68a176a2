package analysis

import (
	"encoding/json"
	"math"
)

// NaN is the undefined marker for zero-variance correlations and
// single-observation deviations. encoding/json rejects NaN, so these types
// marshal it as an explicit null instead of silently substituting a number.

func (m CorrelationMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) {
				v := row[j]
				values[i][j] = &v
			}
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}{m.Columns, values})
}

func (s Summary) MarshalJSON() ([]byte, error) {
	var std *float64
	if !math.IsNaN(s.Std) {
		std = &s.Std
	}
	return json.Marshal(struct {
		Mean  float64  `json:"mean"`
		Std   *float64 `json:"std"`
		Min   float64  `json:"min"`
		Max   float64  `json:"max"`
		Count int      `json:"count"`
	}{s.Mean, std, s.Min, s.Max, s.Count})
}
