package model

import (
	"sort"
	"time"
)

// DateFormat is the canonical day-precision format used in exports, the
// store, and the HTTP API.
const DateFormat = "2006-01-02"

// RegionProfile holds the static base characteristics of one region. Drawn
// once per generation run and never mutated afterwards.
type RegionProfile struct {
	RegionID              int     `json:"region_id"`
	BasePopulation        float64 `json:"base_population"`
	BaseMedicalFacilities float64 `json:"base_medical_facilities"`
	BaseUrbanization      float64 `json:"base_urbanization"`
	BaseEducationLevel    float64 `json:"base_education_level"`
	BaseIncomeLevel       float64 `json:"base_income_level"`
}

// Observation is one panel row: the full indicator set for a single
// (date, region) pair. Immutable after synthesis.
type Observation struct {
	Date               time.Time `json:"date"`
	RegionID           int       `json:"region_id"`
	Population         int       `json:"population"`
	MedicalFacilities  int       `json:"medical_facilities"`
	MedicalStaff       int       `json:"medical_staff"`
	VaccinationRate    float64   `json:"vaccination_rate"`
	AwarenessIndex     float64   `json:"awareness_index"`
	AccessibilityScore float64   `json:"accessibility_score"`
	IncomeLevel        float64   `json:"income_level"`
	EducationLevel     float64   `json:"education_level"`
	Urbanization       float64   `json:"urbanization"`
	ElderlyPopulation  float64   `json:"elderly_population"`
}

// Panel is the ordered table of observations: days x regions rows, sorted by
// (date, region_id), exactly one row per pair.
type Panel []Observation

// Columns lists the canonical column order of a panel row.
var Columns = []string{
	"date",
	"region_id",
	"population",
	"medical_facilities",
	"medical_staff",
	"vaccination_rate",
	"awareness_index",
	"accessibility_score",
	"income_level",
	"education_level",
	"urbanization",
	"elderly_population",
}

// NumericColumns lists the columns that analysis operations accept, in
// canonical order.
var NumericColumns = []string{
	"population",
	"medical_facilities",
	"medical_staff",
	"vaccination_rate",
	"awareness_index",
	"accessibility_score",
	"income_level",
	"education_level",
	"urbanization",
	"elderly_population",
}

// IndicatorColumns is the default correlation column set: every numeric
// indicator except raw population.
var IndicatorColumns = []string{
	"vaccination_rate",
	"medical_facilities",
	"medical_staff",
	"awareness_index",
	"accessibility_score",
	"income_level",
	"education_level",
	"urbanization",
	"elderly_population",
}

// Value returns the named numeric column of the observation. The second
// return is false for unknown or non-numeric columns.
func (o Observation) Value(column string) (float64, bool) {
	switch column {
	case "population":
		return float64(o.Population), true
	case "medical_facilities":
		return float64(o.MedicalFacilities), true
	case "medical_staff":
		return float64(o.MedicalStaff), true
	case "vaccination_rate":
		return o.VaccinationRate, true
	case "awareness_index":
		return o.AwarenessIndex, true
	case "accessibility_score":
		return o.AccessibilityScore, true
	case "income_level":
		return o.IncomeLevel, true
	case "education_level":
		return o.EducationLevel, true
	case "urbanization":
		return o.Urbanization, true
	case "elderly_population":
		return o.ElderlyPopulation, true
	default:
		return 0, false
	}
}

// IsNumericColumn reports whether column names a numeric panel column.
func IsNumericColumn(column string) bool {
	_, ok := Observation{}.Value(column)
	return ok
}

// Sort orders the panel by (date, region_id) with a stable sort.
func (p Panel) Sort() {
	sort.SliceStable(p, func(i, j int) bool {
		if !p[i].Date.Equal(p[j].Date) {
			return p[i].Date.Before(p[j].Date)
		}
		return p[i].RegionID < p[j].RegionID
	})
}

// RegionIDs returns the distinct region IDs present in the panel, ascending.
func (p Panel) RegionIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, o := range p {
		if !seen[o.RegionID] {
			seen[o.RegionID] = true
			ids = append(ids, o.RegionID)
		}
	}
	sort.Ints(ids)
	return ids
}

// Filter returns the rows matching the given region set and date range.
// A nil/empty region set matches all regions; zero from/to bounds are open.
func (p Panel) Filter(regions []int, from, to time.Time) Panel {
	var regionSet map[int]bool
	if len(regions) > 0 {
		regionSet = make(map[int]bool, len(regions))
		for _, id := range regions {
			regionSet[id] = true
		}
	}

	var out Panel
	for _, o := range p {
		if regionSet != nil && !regionSet[o.RegionID] {
			continue
		}
		if !from.IsZero() && o.Date.Before(from) {
			continue
		}
		if !to.IsZero() && o.Date.After(to) {
			continue
		}
		out = append(out, o)
	}
	return out
}
