// Package entities defines the formulary data model: drugs, indications,
// regimens and the dose specification variants used by the evaluator.
// All entities are immutable reference data loaded once at startup.
package entities

import (
	"encoding/json"
	"fmt"
)

// Range holds a numeric value that may be a scalar or a [min,max] pair.
// A scalar is stored with Min == Max. Ranges are carried through every
// computation step, never collapsed to a midpoint.
type Range struct {
	Min float64
	Max float64
}

// NewScalar returns a Range holding a single value.
func NewScalar(v float64) Range {
	return Range{Min: v, Max: v}
}

// IsScalar reports whether the range holds a single value.
func (r Range) IsScalar() bool {
	return r.Min == r.Max
}

// UnmarshalJSON accepts either a JSON number or a two-element array.
func (r *Range) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		r.Min = scalar
		r.Max = scalar
		return nil
	}

	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("range must be a number or a [min,max] array: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("range array must have exactly 2 elements, got %d", len(pair))
	}
	r.Min = pair[0]
	r.Max = pair[1]
	return nil
}

// MarshalJSON emits a scalar for degenerate ranges and a pair otherwise.
func (r Range) MarshalJSON() ([]byte, error) {
	if r.IsScalar() {
		return json.Marshal(r.Min)
	}
	return json.Marshal([2]float64{r.Min, r.Max})
}

// IntRange holds a doses-per-day frequency that may be a scalar or a
// min-max pair. A pair represents an allowed range, not alternatives.
type IntRange struct {
	Min int
	Max int
}

// NewScalarInt returns an IntRange holding a single value.
func NewScalarInt(v int) IntRange {
	return IntRange{Min: v, Max: v}
}

// IsScalar reports whether the range holds a single value.
func (r IntRange) IsScalar() bool {
	return r.Min == r.Max
}

// UnmarshalJSON accepts either a JSON integer or a two-element array.
func (r *IntRange) UnmarshalJSON(data []byte) error {
	var scalar int
	if err := json.Unmarshal(data, &scalar); err == nil {
		r.Min = scalar
		r.Max = scalar
		return nil
	}

	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("frequency must be an integer or a [min,max] array: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("frequency array must have exactly 2 elements, got %d", len(pair))
	}
	r.Min = pair[0]
	r.Max = pair[1]
	return nil
}

// MarshalJSON emits a scalar for degenerate ranges and a pair otherwise.
func (r IntRange) MarshalJSON() ([]byte, error) {
	if r.IsScalar() {
		return json.Marshal(r.Min)
	}
	return json.Marshal([2]int{r.Min, r.Max})
}

// DoseKind tags the dose specification variant of a regimen.
type DoseKind string

const (
	// DoseFixedMg is a fixed mg/day amount independent of weight.
	DoseFixedMg DoseKind = "fixed_mg"
	// DosePerKgPerDay is a weight-based mg/kg/day amount.
	DosePerKgPerDay DoseKind = "mg_per_kg_per_day"
	// DosePerKgPerDose is a weight-based mg/kg/dose amount.
	DosePerKgPerDose DoseKind = "mg_per_kg_per_dose"
)

// DoseSpec is the tagged dose variant of a regimen. Exactly one kind is
// populated per regimen; the load-time validator enforces this.
type DoseSpec struct {
	Kind   DoseKind
	Amount Range
}

// Regimen describes one dosing option for a drug+indication pair.
// A regimen with Phases is a step-down protocol; the phase entries carry
// their own dose fields and the outer dose fields are unused.
type Regimen struct {
	PerKgPerDay  *Range    `json:"mg_per_kg_per_day,omitempty"`
	PerKgPerDose *Range    `json:"mg_per_kg_per_dose,omitempty"`
	FixedMg      *Range    `json:"mg,omitempty"`
	Frequency    *IntRange `json:"frequency,omitempty"`
	DurationDays *Range    `json:"duration_days,omitempty"`
	MaxMgPerDay  float64   `json:"max_mg_per_day,omitempty"`
	MaxMgPerDose float64   `json:"max_mg_per_dose,omitempty"`
	AgeMin       *float64  `json:"age_min,omitempty"`
	AgeMax       *float64  `json:"age_max,omitempty"`
	WeightMin    *float64  `json:"weight_min,omitempty"`
	WeightMax    *float64  `json:"weight_max,omitempty"`
	Phases       []Phase   `json:"phases,omitempty"`
	Note         string    `json:"note,omitempty"`
}

// Phase is a dated sub-interval of a step-down regimen with its own
// dose, frequency and duration (e.g. "Day 1" vs "Day 2-5").
type Phase struct {
	Label        string    `json:"label"`
	PerKgPerDay  *Range    `json:"mg_per_kg_per_day,omitempty"`
	PerKgPerDose *Range    `json:"mg_per_kg_per_dose,omitempty"`
	FixedMg      *Range    `json:"mg,omitempty"`
	Frequency    *IntRange `json:"frequency,omitempty"`
	DurationDays *Range    `json:"duration_days,omitempty"`
	MaxMgPerDay  float64   `json:"max_mg_per_day,omitempty"`
	MaxMgPerDose float64   `json:"max_mg_per_dose,omitempty"`
}

// DoseSpec resolves the tagged dose variant of the regimen. The boolean
// is false when no dose field or more than one dose field is populated.
func (r *Regimen) DoseSpec() (DoseSpec, bool) {
	return resolveDoseSpec(r.PerKgPerDay, r.PerKgPerDose, r.FixedMg)
}

// DoseSpec resolves the tagged dose variant of the phase.
func (p *Phase) DoseSpec() (DoseSpec, bool) {
	return resolveDoseSpec(p.PerKgPerDay, p.PerKgPerDose, p.FixedMg)
}

func resolveDoseSpec(perDay, perDose, fixed *Range) (DoseSpec, bool) {
	var spec DoseSpec
	count := 0

	if perDay != nil {
		spec = DoseSpec{Kind: DosePerKgPerDay, Amount: *perDay}
		count++
	}
	if perDose != nil {
		spec = DoseSpec{Kind: DosePerKgPerDose, Amount: *perDose}
		count++
	}
	if fixed != nil {
		spec = DoseSpec{Kind: DoseFixedMg, Amount: *fixed}
		count++
	}

	if count != 1 {
		return DoseSpec{}, false
	}
	return spec, true
}

// HasEligibilityBounds reports whether the regimen declares any age or
// weight restriction.
func (r *Regimen) HasEligibilityBounds() bool {
	return r.AgeMin != nil || r.AgeMax != nil || r.WeightMin != nil || r.WeightMax != nil
}

// Admits reports whether the given patient parameters fall inside the
// regimen's declared bounds. Absent bounds admit everyone; age bounds on
// a regimen are ignored when no age was collected.
func (r *Regimen) Admits(weightKg float64, ageYears float64, hasAge bool) bool {
	if r.WeightMin != nil && weightKg < *r.WeightMin {
		return false
	}
	if r.WeightMax != nil && weightKg > *r.WeightMax {
		return false
	}
	if hasAge {
		if r.AgeMin != nil && ageYears < *r.AgeMin {
			return false
		}
		if r.AgeMax != nil && ageYears > *r.AgeMax {
			return false
		}
	}
	return true
}

// RequiresAge reports whether evaluating this regimen needs the patient age.
func (r *Regimen) RequiresAge() bool {
	return r.AgeMin != nil || r.AgeMax != nil
}

// Indication maps an indication name to its ordered regimen list.
// Declaration order matters: the eligibility gate is first-match-wins.
type Indication struct {
	Name     string    `json:"name"`
	Regimens []Regimen `json:"regimens"`
}

// Drug is one formulary entry: a liquid formulation with its dispensing
// bottle size and the indications it can be dosed for.
type Drug struct {
	Name                 string       `json:"name"`
	ConcentrationMgPerMl float64      `json:"concentration_mg_per_ml"`
	BottleSizeMl         float64      `json:"bottle_size_ml"`
	MinAgeYears          float64      `json:"min_age_years,omitempty"`
	Indications          []Indication `json:"indications"`
}

// RequiresAge reports whether this drug needs the patient age before a
// regimen can be selected: either a drug-level minimum age or any
// age-banded regimen variant.
func (d *Drug) RequiresAge() bool {
	if d.MinAgeYears > 0 {
		return true
	}
	for i := range d.Indications {
		for j := range d.Indications[i].Regimens {
			if d.Indications[i].Regimens[j].RequiresAge() {
				return true
			}
		}
	}
	return false
}
