// Package validation provides load-time validation of the formulary catalog
// and sanity checks on user-supplied text.
package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/nonthapat/dosebot-api/formulary/entities"
)

// MaxInputLength bounds user-supplied text before it reaches the
// conversation engine.
const MaxInputLength = 200

// FormularyValidator validates catalog data before it is served.
type FormularyValidator struct{}

// NewFormularyValidator creates a catalog validator.
func NewFormularyValidator() *FormularyValidator {
	return &FormularyValidator{}
}

// ValidateCatalog checks every drug in the catalog. The catalog is static
// reference data, so any violation is a startup failure rather than a
// runtime condition.
func (v *FormularyValidator) ValidateCatalog(drugs []entities.Drug) error {
	if len(drugs) == 0 {
		return fmt.Errorf("catalog is empty")
	}

	seen := make(map[string]bool, len(drugs))
	for i := range drugs {
		if err := v.ValidateDrug(&drugs[i]); err != nil {
			return fmt.Errorf("drug %q: %w", drugs[i].Name, err)
		}
		key := strings.ToLower(strings.TrimSpace(drugs[i].Name))
		if seen[key] {
			return fmt.Errorf("duplicate drug name %q", drugs[i].Name)
		}
		seen[key] = true
	}
	return nil
}

// ValidateDrug checks a single catalog entry.
func (v *FormularyValidator) ValidateDrug(d *entities.Drug) error {
	if d == nil {
		return fmt.Errorf("drug is nil")
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("empty drug name")
	}
	if d.ConcentrationMgPerMl <= 0 {
		return fmt.Errorf("concentration must be positive, got %v", d.ConcentrationMgPerMl)
	}
	if d.BottleSizeMl <= 0 {
		return fmt.Errorf("bottle size must be positive, got %v", d.BottleSizeMl)
	}
	if d.MinAgeYears < 0 {
		return fmt.Errorf("minimum age must not be negative, got %v", d.MinAgeYears)
	}
	if len(d.Indications) == 0 {
		return fmt.Errorf("no indications")
	}

	for i := range d.Indications {
		ind := &d.Indications[i]
		if strings.TrimSpace(ind.Name) == "" {
			return fmt.Errorf("indication %d has an empty name", i)
		}
		if len(ind.Regimens) == 0 {
			return fmt.Errorf("indication %q has no regimens", ind.Name)
		}
		for j := range ind.Regimens {
			if err := v.validateRegimen(&ind.Regimens[j]); err != nil {
				return fmt.Errorf("indication %q regimen %d: %w", ind.Name, j, err)
			}
		}
		if err := v.checkOverlappingBands(ind); err != nil {
			return fmt.Errorf("indication %q: %w", ind.Name, err)
		}
	}
	return nil
}

func (v *FormularyValidator) validateRegimen(r *entities.Regimen) error {
	if len(r.Phases) > 0 {
		if _, ok := r.DoseSpec(); ok {
			return fmt.Errorf("phased regimen must not carry a top-level dose spec")
		}
		for i := range r.Phases {
			if err := v.validatePhase(&r.Phases[i]); err != nil {
				return fmt.Errorf("phase %q: %w", r.Phases[i].Label, err)
			}
		}
	} else {
		spec, ok := r.DoseSpec()
		if !ok {
			return fmt.Errorf("exactly one dose specification is required")
		}
		if err := validateDoseAmount(spec.Amount); err != nil {
			return err
		}
		if err := validateFrequency(r.Frequency); err != nil {
			return err
		}
		if err := validateDuration(r.DurationDays); err != nil {
			return err
		}
	}

	if r.MaxMgPerDay < 0 || r.MaxMgPerDose < 0 {
		return fmt.Errorf("caps must not be negative")
	}
	if r.AgeMin != nil && r.AgeMax != nil && *r.AgeMin > *r.AgeMax {
		return fmt.Errorf("age_min %v exceeds age_max %v", *r.AgeMin, *r.AgeMax)
	}
	if r.WeightMin != nil && r.WeightMax != nil && *r.WeightMin > *r.WeightMax {
		return fmt.Errorf("weight_min %v exceeds weight_max %v", *r.WeightMin, *r.WeightMax)
	}
	return nil
}

func (v *FormularyValidator) validatePhase(p *entities.Phase) error {
	if strings.TrimSpace(p.Label) == "" {
		return fmt.Errorf("phase label is required")
	}
	spec, ok := p.DoseSpec()
	if !ok {
		return fmt.Errorf("exactly one dose specification is required")
	}
	if err := validateDoseAmount(spec.Amount); err != nil {
		return err
	}
	if err := validateFrequency(p.Frequency); err != nil {
		return err
	}
	if p.DurationDays == nil {
		return fmt.Errorf("phase duration is required")
	}
	return validateDuration(p.DurationDays)
}

func validateDoseAmount(r entities.Range) error {
	if r.Min <= 0 || r.Max <= 0 {
		return fmt.Errorf("dose amount must be positive, got [%v,%v]", r.Min, r.Max)
	}
	if r.Min > r.Max {
		return fmt.Errorf("dose range min %v exceeds max %v", r.Min, r.Max)
	}
	return nil
}

func validateFrequency(f *entities.IntRange) error {
	if f == nil {
		return nil
	}
	if f.Min < 1 || f.Max < 1 {
		return fmt.Errorf("frequency must be at least 1, got [%d,%d]", f.Min, f.Max)
	}
	if f.Min > f.Max {
		return fmt.Errorf("frequency range min %d exceeds max %d", f.Min, f.Max)
	}
	return nil
}

func validateDuration(d *entities.Range) error {
	if d == nil {
		return nil
	}
	if d.Min <= 0 || d.Max <= 0 {
		return fmt.Errorf("duration must be positive, got [%v,%v]", d.Min, d.Max)
	}
	if d.Min > d.Max {
		return fmt.Errorf("duration range min %v exceeds max %v", d.Min, d.Max)
	}
	return nil
}

// checkOverlappingBands rejects indications where two banded regimens could
// both admit the same patient. Selection is first-match-wins, so an overlap
// silently shadows the later band; the catalog must avoid it by
// construction.
func (v *FormularyValidator) checkOverlappingBands(ind *entities.Indication) error {
	for i := range ind.Regimens {
		for j := i + 1; j < len(ind.Regimens); j++ {
			a, b := &ind.Regimens[i], &ind.Regimens[j]
			if !a.HasEligibilityBounds() || !b.HasEligibilityBounds() {
				continue
			}
			if bandsOverlap(a, b) {
				return fmt.Errorf("regimens %d and %d have overlapping age/weight bands", i, j)
			}
		}
	}
	return nil
}

// bandsOverlap reports whether the two regimens' eligibility boxes
// intersect. A patient matches both only when the age intervals and the
// weight intervals both overlap; unset bounds are treated as infinite.
func bandsOverlap(a, b *entities.Regimen) bool {
	return intervalsOverlap(a.AgeMin, a.AgeMax, b.AgeMin, b.AgeMax) &&
		intervalsOverlap(a.WeightMin, a.WeightMax, b.WeightMin, b.WeightMax)
}

func intervalsOverlap(aMin, aMax, bMin, bMax *float64) bool {
	lo1, hi1 := boundsOf(aMin, aMax)
	lo2, hi2 := boundsOf(bMin, bMax)
	return lo1 <= hi2 && lo2 <= hi1
}

func boundsOf(min, max *float64) (float64, float64) {
	lo := math.Inf(-1)
	hi := math.Inf(1)
	if min != nil {
		lo = *min
	}
	if max != nil {
		hi = *max
	}
	return lo, hi
}

// ValidateInput rejects user text that is empty, oversized, or contains
// control characters. User text only ever reaches string comparisons and
// reply composition, so this is a hygiene bound, not an injection filter.
func ValidateInput(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("input is empty")
	}
	if len(input) > MaxInputLength {
		return fmt.Errorf("input too long: %d characters (max %d)", len(input), MaxInputLength)
	}
	for _, r := range input {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return fmt.Errorf("input contains control characters")
		}
	}
	return nil
}
