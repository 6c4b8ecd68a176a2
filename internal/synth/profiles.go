// Package synth generates the synthetic health-system panel: static region
// base profiles, per-day observations derived from them, and the assembled
// (date, region) panel. Everything here is deterministic given the caller's
// randomness source; no global random state is touched.
package synth

import (
	"math/rand"

	"github.com/rotisserie/eris"

	"github.com/sells-group/medpanel/internal/model"
)

// Base attribute draw ranges. Facilities are per 100k population.
const (
	minBasePopulation = 100_000
	maxBasePopulation = 5_000_000
	minBaseFacilities = 10
	maxBaseFacilities = 100
	minBaseUrban      = 0.2
	maxBaseUrban      = 0.9
	minBaseEducation  = 0.4
	maxBaseEducation  = 0.9
	minBaseIncome     = 20_000
	maxBaseIncome     = 100_000
)

// GenerateProfiles draws n region base profiles with region IDs 1..n. Each
// base attribute is drawn independently and uniformly from its fixed range.
func GenerateProfiles(rng *rand.Rand, n int) ([]model.RegionProfile, error) {
	if n < 1 {
		return nil, eris.Wrapf(model.ErrInvalidArgument, "synth: n_regions must be >= 1, got %d", n)
	}

	profiles := make([]model.RegionProfile, n)
	for i := range profiles {
		profiles[i] = model.RegionProfile{
			RegionID:              i + 1,
			BasePopulation:        uniform(rng, minBasePopulation, maxBasePopulation),
			BaseMedicalFacilities: uniform(rng, minBaseFacilities, maxBaseFacilities),
			BaseUrbanization:      uniform(rng, minBaseUrban, maxBaseUrban),
			BaseEducationLevel:    uniform(rng, minBaseEducation, maxBaseEducation),
			BaseIncomeLevel:       uniform(rng, minBaseIncome, maxBaseIncome),
		}
	}
	return profiles, nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
