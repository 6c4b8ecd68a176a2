package synth

import (
	"math"
	"math/rand"
	"time"

	"github.com/sells-group/medpanel/internal/model"
)

// Derived-metric weights. The linear-combination-plus-noise structure is what
// makes the indicator columns genuinely inter-correlated, so the downstream
// correlation and cluster analysis has real structure to find.
const (
	awarenessEducationWeight = 0.6
	awarenessUrbanWeight     = 0.4

	accessFacilityWeight = 0.7
	accessUrbanWeight    = 0.3

	vaccAwarenessWeight = 0.3
	vaccAccessWeight    = 0.3
	vaccEducationWeight = 0.2
	vaccIncomeWeight    = 0.2
)

// SeasonalFactor is the shared multiplicative yearly wave applied to facility
// counts and income. All regions share the wave; they differ in base level.
func SeasonalFactor(date time.Time) float64 {
	return 1 + 0.1*math.Sin(2*math.Pi*float64(date.YearDay())/365)
}

// SynthesizeObservation derives one observation for the given region and day.
// Every random draw is independent per row; the profile supplies the only
// cross-row structure. Counts are truncated to integers; rates and indices
// are rounded to their canonical stored precision.
func SynthesizeObservation(rng *rand.Rand, profile model.RegionProfile, date time.Time) model.Observation {
	seasonal := SeasonalFactor(date)

	population := profile.BasePopulation * (1 + rng.NormFloat64()*0.001)
	facilities := profile.BaseMedicalFacilities * seasonal
	urbanization := profile.BaseUrbanization + rng.NormFloat64()*0.01
	education := profile.BaseEducationLevel + rng.NormFloat64()*0.01
	income := profile.BaseIncomeLevel * seasonal

	staff := facilities * uniform(rng, 5, 15)
	elderly := uniform(rng, 0.1, 0.3)

	awareness := awarenessEducationWeight*education + awarenessUrbanWeight*urbanization +
		rng.NormFloat64()*0.05
	accessibility := accessFacilityWeight*(facilities/population*100_000) +
		accessUrbanWeight*urbanization +
		rng.NormFloat64()*0.05

	vaccination := 100 * (vaccAwarenessWeight*awareness +
		vaccAccessWeight*accessibility +
		vaccEducationWeight*education +
		vaccIncomeWeight*(income/100_000))
	vaccination = clamp(vaccination, 0, 100)

	return model.Observation{
		Date:               date,
		RegionID:           profile.RegionID,
		Population:         int(population),
		MedicalFacilities:  int(facilities),
		MedicalStaff:       int(staff),
		VaccinationRate:    round2(vaccination),
		AwarenessIndex:     round3(awareness),
		AccessibilityScore: round3(accessibility),
		IncomeLevel:        round2(income),
		EducationLevel:     round3(education),
		Urbanization:       round3(urbanization),
		ElderlyPopulation:  round3(elderly),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
