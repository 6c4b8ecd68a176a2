package analysis

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationMatrixJSON(t *testing.T) {
	m := CorrelationMatrix{
		Columns: []string{"a", "b"},
		Values: [][]float64{
			{1, math.NaN()},
			{math.NaN(), 1},
		},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []string{"a", "b"}, decoded.Columns)
	require.NotNil(t, decoded.Values[0][0])
	assert.Equal(t, 1.0, *decoded.Values[0][0])
	assert.Nil(t, decoded.Values[0][1], "undefined correlation encodes as null")
}

func TestSummaryJSON(t *testing.T) {
	data, err := json.Marshal(Summary{Mean: 50, Std: 10, Min: 40, Max: 60, Count: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mean":50,"std":10,"min":40,"max":60,"count":2}`, string(data))

	data, err = json.Marshal(Summary{Mean: 40, Std: math.NaN(), Min: 40, Max: 40, Count: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mean":40,"std":null,"min":40,"max":40,"count":1}`, string(data))
}
