package report

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/medpanel/internal/analysis"
)

func TestWriteSummaries(t *testing.T) {
	summaries := map[int]analysis.Summary{
		2: {Mean: 55.5, Std: 3.2, Min: 50, Max: 60, Count: 10},
		1: {Mean: 40, Std: math.NaN(), Min: 40, Max: 40, Count: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaries(&buf, "vaccination_rate", summaries))
	out := buf.String()

	assert.Contains(t, out, "REGION")
	assert.Contains(t, out, "MEAN")
	assert.Contains(t, out, "55.50")
	assert.Contains(t, out, "NaN")

	// Region 1 comes before region 2.
	assert.Less(t, bytes.IndexByte(buf.Bytes(), '1'), bytes.IndexByte(buf.Bytes(), '2'))
}

func TestWriteCorrelation(t *testing.T) {
	m := &analysis.CorrelationMatrix{
		Columns: []string{"a", "b"},
		Values: [][]float64{
			{1, 0.75},
			{0.75, 1},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCorrelation(&buf, m))
	out := buf.String()

	assert.Contains(t, out, "a")
	assert.Contains(t, out, "b")
	assert.Contains(t, out, "1.00")
	assert.Contains(t, out, "0.75")
}

func TestWriteCorrelation_NaN(t *testing.T) {
	m := &analysis.CorrelationMatrix{
		Columns: []string{"a", "b"},
		Values: [][]float64{
			{1, math.NaN()},
			{math.NaN(), 1},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCorrelation(&buf, m))
	assert.Contains(t, buf.String(), "NaN")
}

func clusterResult() *analysis.ClusterResult {
	return &analysis.ClusterResult{
		Features:  []string{"vaccination_rate"},
		K:         2,
		Sizes:     []int{2, 1},
		Converged: true,
		Summaries: []analysis.ClusterSummary{
			{
				Cluster:        0,
				Size:           2,
				Regions:        []int{1, 2},
				MeanPopulation: 1_250_000,
				Features: []analysis.FeatureStat{{
					Name: "vaccination_rate", Mean: 80, GlobalMean: 50,
					DiffPct: 60, Distinctive: true, Direction: "above",
				}},
			},
			{
				Cluster:        1,
				Size:           1,
				Regions:        []int{3},
				MeanPopulation: 400_000,
				Features: []analysis.FeatureStat{{
					Name: "vaccination_rate", Mean: 52, GlobalMean: 50, DiffPct: 4,
				}},
			},
		},
	}
}

func TestWriteClusters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteClusters(&buf, clusterResult()))
	out := buf.String()

	assert.Contains(t, out, "Cluster 0 (regions: 2, mean population: 1,250,000)")
	assert.Contains(t, out, "vaccination_rate 60.0% above the panel mean (80.00 vs 50.00)")
	assert.Contains(t, out, "Cluster 1 (regions: 1, mean population: 400,000)")
	assert.Contains(t, out, "No clear deviation from panel means.")
	assert.NotContains(t, out, "without full convergence")
}

func TestWriteClusters_EmptyAndUnconverged(t *testing.T) {
	result := clusterResult()
	result.Converged = false
	result.Iterations = 300
	result.Summaries = append(result.Summaries, analysis.ClusterSummary{Cluster: 2})

	var buf bytes.Buffer
	require.NoError(t, WriteClusters(&buf, result))
	out := buf.String()

	assert.Contains(t, out, "Cluster 2 (regions: 0)")
	assert.Contains(t, out, "Empty: initialization collapsed this centroid.")
	assert.Contains(t, out, "stopped after 300 iterations")
}

func TestWriteClustersYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteClustersYAML(&buf, clusterResult()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 2, decoded["k"])
	assert.Contains(t, decoded, "summaries")
}
