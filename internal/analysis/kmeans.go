package analysis

import (
	"math"
	"math/rand"
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/medpanel/internal/model"
)

// MaxKMeansIterations caps the assign/recompute loop. Convergence on panels
// of this size normally takes well under 50 iterations.
const MaxKMeansIterations = 300

// MaxClusters is the upper bound on k regardless of region count.
const MaxClusters = 10

// FeatureStat describes one feature of one cluster against the all-region
// mean. A feature is distinctive when its cluster mean deviates more than
// 10% relative from the global mean; Direction is "above" or "below".
type FeatureStat struct {
	Name        string  `json:"name" yaml:"name"`
	Mean        float64 `json:"mean" yaml:"mean"`
	GlobalMean  float64 `json:"global_mean" yaml:"global_mean"`
	DiffPct     float64 `json:"diff_pct" yaml:"diff_pct"`
	Distinctive bool    `json:"distinctive" yaml:"distinctive"`
	Direction   string  `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// ClusterSummary characterizes one cluster in raw (unstandardized) feature
// space.
type ClusterSummary struct {
	Cluster        int           `json:"cluster" yaml:"cluster"`
	Size           int           `json:"size" yaml:"size"`
	Regions        []int         `json:"regions" yaml:"regions"`
	MeanPopulation float64       `json:"mean_population" yaml:"mean_population"`
	Features       []FeatureStat `json:"features" yaml:"features"`
}

// ClusterResult is the outcome of one k-means invocation. Assignments map
// every input region to a cluster label in [0, k). Sizes may contain zeros:
// an initialization that collapses a centroid leaves its cluster empty, which
// is surfaced rather than repaired.
type ClusterResult struct {
	Features    []string         `json:"features" yaml:"features"`
	K           int              `json:"k" yaml:"k"`
	Assignments map[int]int      `json:"assignments" yaml:"assignments"`
	Sizes       []int            `json:"sizes" yaml:"sizes"`
	Centroids   [][]float64      `json:"centroids" yaml:"centroids"` // standardized feature space
	Summaries   []ClusterSummary `json:"summaries" yaml:"summaries"`
	Iterations  int              `json:"iterations" yaml:"iterations"`
	Converged   bool             `json:"converged" yaml:"converged"`
}

// Cluster aggregates the panel to one row per region (mean of each feature),
// standardizes features to zero mean and unit variance across regions, and
// partitions the regions into k groups by iterative centroid assignment.
// Initialization picks k distinct regions as starting centroids using the
// given seed, so results are reproducible. Ties in nearest-centroid
// assignment break to the lowest cluster index.
func Cluster(features []string, panel model.Panel, k int, seed int64) (*ClusterResult, error) {
	if len(features) < 1 {
		return nil, eris.Wrap(model.ErrInvalidArgument, "analysis: cluster needs at least 1 feature")
	}
	for _, f := range features {
		if !model.IsNumericColumn(f) {
			return nil, eris.Wrapf(model.ErrInvalidArgument, "analysis: unknown feature %q", f)
		}
	}
	if len(panel) == 0 {
		return nil, eris.Wrap(model.ErrEmptyInput, "analysis: cluster")
	}

	regions, raw, meanPop := aggregateByRegion(features, panel)

	maxK := min(MaxClusters, len(regions))
	if k < 2 || k > maxK {
		return nil, eris.Wrapf(model.ErrInvalidArgument,
			"analysis: k must be in [2, %d] for %d regions, got %d", maxK, len(regions), k)
	}

	scaled := standardize(raw)

	assign, centroids, iters, converged := kmeans(scaled, k, seed)

	result := &ClusterResult{
		Features:    append([]string(nil), features...),
		K:           k,
		Assignments: make(map[int]int, len(regions)),
		Sizes:       make([]int, k),
		Centroids:   centroids,
		Iterations:  iters,
		Converged:   converged,
	}
	for i, id := range regions {
		result.Assignments[id] = assign[i]
		result.Sizes[assign[i]]++
	}
	result.Summaries = characterize(features, regions, raw, meanPop, assign, k)
	return result, nil
}

// aggregateByRegion reduces the panel to one feature vector per region (the
// mean over the panel's date range) plus the region's mean population.
func aggregateByRegion(features []string, panel model.Panel) (regions []int, raw [][]float64, meanPop map[int]float64) {
	sums := make(map[int][]float64)
	popSums := make(map[int]float64)
	counts := make(map[int]int)
	for _, o := range panel {
		s, ok := sums[o.RegionID]
		if !ok {
			s = make([]float64, len(features))
			sums[o.RegionID] = s
		}
		for i, f := range features {
			v, _ := o.Value(f)
			s[i] += v
		}
		popSums[o.RegionID] += float64(o.Population)
		counts[o.RegionID]++
	}

	regions = make([]int, 0, len(sums))
	for id := range sums {
		regions = append(regions, id)
	}
	sort.Ints(regions)

	raw = make([][]float64, len(regions))
	meanPop = make(map[int]float64, len(regions))
	for i, id := range regions {
		n := float64(counts[id])
		row := make([]float64, len(features))
		for j, s := range sums[id] {
			row[j] = s / n
		}
		raw[i] = row
		meanPop[id] = popSums[id] / n
	}
	return regions, raw, meanPop
}

// standardize scales each feature column to zero mean and unit variance
// across regions, using the population standard deviation. A zero-variance
// feature maps to all zeros.
func standardize(raw [][]float64) [][]float64 {
	if len(raw) == 0 {
		return nil
	}
	nFeatures := len(raw[0])
	col := make([]float64, len(raw))
	means := make([]float64, nFeatures)
	stds := make([]float64, nFeatures)
	for j := 0; j < nFeatures; j++ {
		for i := range raw {
			col[i] = raw[i][j]
		}
		means[j] = stat.Mean(col, nil)
		stds[j] = popStdDev(col, means[j])
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	scaled := make([][]float64, len(raw))
	for i := range raw {
		row := make([]float64, nFeatures)
		for j := range row {
			row[j] = (raw[i][j] - means[j]) / stds[j]
		}
		scaled[i] = row
	}
	return scaled
}

func popStdDev(vals []float64, mean float64) float64 {
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)))
}

// kmeans runs Lloyd's algorithm on standardized rows. Centroids start at k
// distinct rows chosen by the seeded source; an emptied cluster keeps its
// previous centroid position.
func kmeans(rows [][]float64, k int, seed int64) (assign []int, centroids [][]float64, iterations int, converged bool) {
	rng := rand.New(rand.NewSource(seed))

	centroids = make([][]float64, k)
	for i, idx := range rng.Perm(len(rows))[:k] {
		centroids[i] = append([]float64(nil), rows[idx]...)
	}

	assign = make([]int, len(rows))
	for i := range assign {
		assign[i] = -1
	}

	for iterations = 1; iterations <= MaxKMeansIterations; iterations++ {
		changed := false
		for i, row := range rows {
			best, bestDist := 0, sqDist(row, centroids[0])
			for c := 1; c < k; c++ {
				// Strict less-than keeps the lowest index on ties.
				if d := sqDist(row, centroids[c]); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			converged = true
			break
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, len(rows[0]))
		}
		for i, row := range rows {
			counts[assign[i]]++
			for j, v := range row {
				sums[assign[i]][j] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for j := range sums[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}
	return assign, centroids, iterations, converged
}

func sqDist(a, b []float64) float64 {
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

// characterize computes raw per-cluster feature means and flags the
// distinctive ones against the all-region mean.
func characterize(features []string, regions []int, raw [][]float64, meanPop map[int]float64, assign []int, k int) []ClusterSummary {
	global := make([]float64, len(features))
	col := make([]float64, len(raw))
	for j := range features {
		for i := range raw {
			col[i] = raw[i][j]
		}
		global[j] = stat.Mean(col, nil)
	}

	summaries := make([]ClusterSummary, k)
	for c := 0; c < k; c++ {
		s := ClusterSummary{Cluster: c}
		sums := make([]float64, len(features))
		var popSum float64
		for i, id := range regions {
			if assign[i] != c {
				continue
			}
			s.Size++
			s.Regions = append(s.Regions, id)
			popSum += meanPop[id]
			for j := range features {
				sums[j] += raw[i][j]
			}
		}
		if s.Size > 0 {
			s.MeanPopulation = popSum / float64(s.Size)
			for j, f := range features {
				mean := sums[j] / float64(s.Size)
				diffPct := (mean - global[j]) / global[j] * 100
				fs := FeatureStat{
					Name:       f,
					Mean:       mean,
					GlobalMean: global[j],
					DiffPct:    diffPct,
				}
				if math.Abs(diffPct) > 10 {
					fs.Distinctive = true
					if diffPct > 0 {
						fs.Direction = "above"
					} else {
						fs.Direction = "below"
					}
				}
				s.Features = append(s.Features, fs)
			}
		}
		summaries[c] = s
	}
	return summaries
}
