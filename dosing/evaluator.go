package dosing

import (
	"fmt"
	"math"

	"github.com/nonthapat/dosebot-api/formulary/entities"
)

// PhaseResult is the computed breakdown for one phase of a regimen. A
// non-phased regimen produces exactly one PhaseResult with an empty label.
// All quantities are ranges; scalars are degenerate ranges.
type PhaseResult struct {
	Label        string
	MgPerDay     entities.Range
	MlPerDay     entities.Range
	MlPerDose    entities.Range
	DosesPerDay  entities.IntRange
	DurationDays entities.Range
	TotalMl      entities.Range
}

// DoseResult is the output of a successful evaluation: the per-phase
// breakdown, the grand total volume across phases, and the dispensing
// bottle count computed over the grand total.
type DoseResult struct {
	DrugName    string
	Indication  string
	Phases      []PhaseResult
	TotalMl     entities.Range
	BottleCount int
	Note        string
}

// Evaluate computes the dose breakdown for a selected regimen. The weight
// must already have passed the eligibility gate; malformed regimen data
// (no dose specification) comes back as an error for the caller to surface
// as a generic calculation failure, never as a panic.
func Evaluate(drug *entities.Drug, indication string, reg *entities.Regimen, weightKg float64) (*DoseResult, error) {
	if weightKg <= 0 {
		return nil, fmt.Errorf("weight must be positive, got %v", weightKg)
	}

	result := &DoseResult{
		DrugName:   drug.Name,
		Indication: indication,
		Note:       reg.Note,
	}

	if len(reg.Phases) > 0 {
		for i := range reg.Phases {
			p := &reg.Phases[i]
			spec, ok := p.DoseSpec()
			if !ok {
				return nil, fmt.Errorf("phase %q has no dose specification", p.Label)
			}
			pr, err := evaluatePhase(drug, spec, p.Label, p.Frequency, p.DurationDays,
				p.MaxMgPerDay, p.MaxMgPerDose, weightKg)
			if err != nil {
				return nil, err
			}
			result.Phases = append(result.Phases, pr)
		}
	} else {
		spec, ok := reg.DoseSpec()
		if !ok {
			return nil, fmt.Errorf("regimen has no dose specification")
		}
		pr, err := evaluatePhase(drug, spec, "", reg.Frequency, reg.DurationDays,
			reg.MaxMgPerDay, reg.MaxMgPerDose, weightKg)
		if err != nil {
			return nil, err
		}
		result.Phases = append(result.Phases, pr)
	}

	// Total volume accumulates across phases; bottles cover the grand total.
	for i := range result.Phases {
		result.TotalMl.Min += result.Phases[i].TotalMl.Min
		result.TotalMl.Max += result.Phases[i].TotalMl.Max
	}
	result.BottleCount = int(math.Ceil(result.TotalMl.Max / drug.BottleSizeMl))

	return result, nil
}

// evaluatePhase runs the computation pipeline for one phase: raw amount,
// caps, mL conversion, per-dose split, duration.
func evaluatePhase(drug *entities.Drug, spec entities.DoseSpec, label string,
	freq *entities.IntRange, duration *entities.Range,
	maxMgPerDay, maxMgPerDose float64, weightKg float64) (PhaseResult, error) {

	f := entities.NewScalarInt(1)
	if freq != nil {
		f = *freq
	}
	dur := entities.NewScalar(1)
	if duration != nil {
		dur = *duration
	}

	var mgPerDay entities.Range
	var mgPerDose entities.Range
	perDoseSpec := false

	switch spec.Kind {
	case entities.DosePerKgPerDay:
		mgPerDay = entities.Range{Min: weightKg * spec.Amount.Min, Max: weightKg * spec.Amount.Max}
	case entities.DoseFixedMg:
		mgPerDay = spec.Amount
	case entities.DosePerKgPerDose:
		perDoseSpec = true
		mgPerDose = entities.Range{Min: weightKg * spec.Amount.Min, Max: weightKg * spec.Amount.Max}
		mgPerDose = capRange(mgPerDose, maxMgPerDose)
		// The frequency and the per-dose amount both scale the daily
		// amount upward, so the pair aligns index-wise here.
		mgPerDay = entities.Range{
			Min: mgPerDose.Min * float64(f.Min),
			Max: mgPerDose.Max * float64(f.Max),
		}
	default:
		return PhaseResult{}, fmt.Errorf("unknown dose kind %q", spec.Kind)
	}

	mgPerDay = capRange(mgPerDay, maxMgPerDay)

	conc := drug.ConcentrationMgPerMl
	mlPerDay := entities.Range{Min: mgPerDay.Min / conc, Max: mgPerDay.Max / conc}

	var mlPerDose entities.Range
	if perDoseSpec {
		mlPerDose = entities.Range{Min: mgPerDose.Min / conc, Max: mgPerDose.Max / conc}
	} else {
		// Per-dose volume is inversely related to frequency: the smallest
		// dose pairs the minimum daily amount with the maximum frequency
		// and vice versa. The two extremes are sorted explicitly after
		// combining rather than trusting input ordering.
		a := mgPerDay.Min / conc / float64(f.Max)
		b := mgPerDay.Max / conc / float64(f.Min)
		mlPerDose = entities.Range{Min: math.Min(a, b), Max: math.Max(a, b)}
	}

	totalMl := entities.Range{
		Min: mlPerDay.Min * dur.Min,
		Max: mlPerDay.Max * dur.Max,
	}

	return PhaseResult{
		Label:        label,
		MgPerDay:     mgPerDay,
		MlPerDay:     mlPerDay,
		MlPerDose:    mlPerDose,
		DosesPerDay:  f,
		DurationDays: dur,
		TotalMl:      totalMl,
	}, nil
}

// capRange applies min(computed, limit) elementwise. A zero limit means
// the regimen declares no cap.
func capRange(r entities.Range, limit float64) entities.Range {
	if limit <= 0 {
		return r
	}
	return entities.Range{Min: math.Min(r.Min, limit), Max: math.Min(r.Max, limit)}
}
