package validation

import (
	"strings"
	"testing"

	"github.com/nonthapat/dosebot-api/formulary/entities"
)

func floatPtr(v float64) *float64 {
	return &v
}

func scalarPtr(v float64) *entities.Range {
	return &entities.Range{Min: v, Max: v}
}

func validDrug() entities.Drug {
	return entities.Drug{
		Name:                 "Amoxicillin",
		ConcentrationMgPerMl: 50,
		BottleSizeMl:         60,
		Indications: []entities.Indication{{
			Name:     "Pharyngitis",
			Regimens: []entities.Regimen{{PerKgPerDay: scalarPtr(50)}},
		}},
	}
}

func TestValidateCatalog(t *testing.T) {
	v := NewFormularyValidator()

	if err := v.ValidateCatalog([]entities.Drug{validDrug()}); err != nil {
		t.Errorf("valid catalog rejected: %v", err)
	}

	if err := v.ValidateCatalog(nil); err == nil {
		t.Error("empty catalog accepted")
	}

	if err := v.ValidateCatalog([]entities.Drug{validDrug(), validDrug()}); err == nil {
		t.Error("duplicate drug names accepted")
	}
}

func TestValidateDrugFields(t *testing.T) {
	v := NewFormularyValidator()

	tests := []struct {
		name   string
		mutate func(*entities.Drug)
	}{
		{"empty name", func(d *entities.Drug) { d.Name = " " }},
		{"zero concentration", func(d *entities.Drug) { d.ConcentrationMgPerMl = 0 }},
		{"negative concentration", func(d *entities.Drug) { d.ConcentrationMgPerMl = -5 }},
		{"zero bottle size", func(d *entities.Drug) { d.BottleSizeMl = 0 }},
		{"negative min age", func(d *entities.Drug) { d.MinAgeYears = -1 }},
		{"no indications", func(d *entities.Drug) { d.Indications = nil }},
		{"empty indication name", func(d *entities.Drug) { d.Indications[0].Name = "" }},
		{"no regimens", func(d *entities.Drug) { d.Indications[0].Regimens = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDrug()
			tt.mutate(&d)
			if err := v.ValidateDrug(&d); err == nil {
				t.Error("invalid drug accepted")
			}
		})
	}
}

func TestValidateRegimenDoseSpec(t *testing.T) {
	v := NewFormularyValidator()

	// No dose field.
	d := validDrug()
	d.Indications[0].Regimens[0] = entities.Regimen{}
	if err := v.ValidateDrug(&d); err == nil {
		t.Error("regimen without a dose spec accepted")
	}

	// Two dose fields at once.
	d = validDrug()
	d.Indications[0].Regimens[0] = entities.Regimen{
		PerKgPerDay: scalarPtr(50),
		FixedMg:     scalarPtr(250),
	}
	if err := v.ValidateDrug(&d); err == nil {
		t.Error("regimen with two dose specs accepted")
	}

	// A phased regimen must not carry a top-level dose too.
	d = validDrug()
	d.Indications[0].Regimens[0] = entities.Regimen{
		PerKgPerDay: scalarPtr(50),
		Phases: []entities.Phase{{
			Label:        "Day 1",
			PerKgPerDay:  scalarPtr(10),
			DurationDays: scalarPtr(1),
		}},
	}
	if err := v.ValidateDrug(&d); err == nil {
		t.Error("phased regimen with a top-level dose accepted")
	}
}

func TestValidateRegimenValues(t *testing.T) {
	v := NewFormularyValidator()

	tests := []struct {
		name string
		reg  entities.Regimen
	}{
		{"zero dose", entities.Regimen{PerKgPerDay: scalarPtr(0)}},
		{"inverted dose range", entities.Regimen{PerKgPerDay: &entities.Range{Min: 90, Max: 80}}},
		{"zero frequency", entities.Regimen{PerKgPerDay: scalarPtr(50), Frequency: &entities.IntRange{Min: 0, Max: 2}}},
		{"inverted frequency", entities.Regimen{PerKgPerDay: scalarPtr(50), Frequency: &entities.IntRange{Min: 3, Max: 2}}},
		{"zero duration", entities.Regimen{PerKgPerDay: scalarPtr(50), DurationDays: scalarPtr(0)}},
		{"negative cap", entities.Regimen{PerKgPerDay: scalarPtr(50), MaxMgPerDay: -1}},
		{"inverted age band", entities.Regimen{PerKgPerDay: scalarPtr(50), AgeMin: floatPtr(6), AgeMax: floatPtr(2)}},
		{"inverted weight band", entities.Regimen{PerKgPerDay: scalarPtr(50), WeightMin: floatPtr(20), WeightMax: floatPtr(10)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDrug()
			d.Indications[0].Regimens[0] = tt.reg
			if err := v.ValidateDrug(&d); err == nil {
				t.Error("invalid regimen accepted")
			}
		})
	}
}

func TestOverlappingBandsRejected(t *testing.T) {
	v := NewFormularyValidator()

	d := validDrug()
	d.Indications[0].Regimens = []entities.Regimen{
		{FixedMg: scalarPtr(2.5), AgeMin: floatPtr(0.5), AgeMax: floatPtr(2)},
		{FixedMg: scalarPtr(5), AgeMin: floatPtr(2), AgeMax: floatPtr(6)},
	}
	if err := v.ValidateDrug(&d); err == nil {
		t.Error("bands sharing age 2 accepted")
	}

	// Disjoint bands pass.
	d.Indications[0].Regimens = []entities.Regimen{
		{FixedMg: scalarPtr(2.5), AgeMin: floatPtr(0.5), AgeMax: floatPtr(1.9)},
		{FixedMg: scalarPtr(5), AgeMin: floatPtr(2), AgeMax: floatPtr(6)},
	}
	if err := v.ValidateDrug(&d); err != nil {
		t.Errorf("disjoint bands rejected: %v", err)
	}

	// An unbounded fallback after a band is allowed; first-match-wins
	// resolves the ordering.
	d.Indications[0].Regimens = []entities.Regimen{
		{FixedMg: scalarPtr(2.5), AgeMin: floatPtr(0.5), AgeMax: floatPtr(1.9)},
		{FixedMg: scalarPtr(5)},
	}
	if err := v.ValidateDrug(&d); err != nil {
		t.Errorf("banded variant plus unbounded fallback rejected: %v", err)
	}
}

func TestValidateInput(t *testing.T) {
	if err := ValidateInput("เลือกยา: Amoxicillin"); err != nil {
		t.Errorf("normal input rejected: %v", err)
	}

	if err := ValidateInput("   "); err == nil {
		t.Error("blank input accepted")
	}

	if err := ValidateInput(strings.Repeat("a", MaxInputLength+1)); err == nil {
		t.Error("oversized input accepted")
	}

	if err := ValidateInput("weight\x0020"); err == nil {
		t.Error("control characters accepted")
	}

	// Tabs and newlines are ordinary whitespace.
	if err := ValidateInput("15\tkg"); err != nil {
		t.Errorf("tab rejected: %v", err)
	}
}
