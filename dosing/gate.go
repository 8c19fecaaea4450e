// Package dosing implements the regimen evaluator and the age/weight
// eligibility gate over formulary data. Everything here is pure
// computation: no I/O, no shared state.
package dosing

import (
	"github.com/nonthapat/dosebot-api/formulary/entities"
)

// Rejection is a recoverable, user-correctable refusal to dose. It is a
// result value, not an error: the caller surfaces Reason and keeps the
// session where it was.
type Rejection struct {
	Reason string
}

// Rejection reasons surfaced to the renderer.
const (
	ReasonInvalidWeight = "invalid weight"
	ReasonBelowMinAge   = "below minimum age for this drug"
	ReasonNoMatch       = "no matching regimen for this age/weight"
)

// Patient carries the parameters collected for one dosing request.
// It is ephemeral and never persisted.
type Patient struct {
	WeightKg float64
	AgeYears float64
	HasAge   bool
}

// SelectRegimen picks the regimen variant that applies to the patient.
//
// The drug-level minimum age is checked first, before any indication-level
// bands. Among regimens whose bounds contain the patient, the first in
// declaration order wins; this is deliberately not best-fit, and the
// load-time validator keeps bands non-overlapping so order alone decides.
func SelectRegimen(drug *entities.Drug, regimens []entities.Regimen, p Patient) (*entities.Regimen, *Rejection) {
	if p.WeightKg <= 0 {
		return nil, &Rejection{Reason: ReasonInvalidWeight}
	}
	if drug.MinAgeYears > 0 && p.HasAge && p.AgeYears < drug.MinAgeYears {
		return nil, &Rejection{Reason: ReasonBelowMinAge}
	}

	for i := range regimens {
		if regimens[i].Admits(p.WeightKg, p.AgeYears, p.HasAge) {
			return &regimens[i], nil
		}
	}
	return nil, &Rejection{Reason: ReasonNoMatch}
}
