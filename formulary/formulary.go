// Package formulary loads and serves the static drug catalog. The catalog
// is embedded reference data: parsed once at startup, validated, then read
// concurrently without locks. Absence of a drug or indication is a normal
// "no data" result, never an error.
package formulary

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/nonthapat/dosebot-api/formulary/entities"
	"github.com/nonthapat/dosebot-api/validation"
)

//go:embed catalog.json
var catalogJSON []byte

// Formulary is the immutable drug catalog with normalized-name indexes.
type Formulary struct {
	drugs  []entities.Drug
	byName map[string]*entities.Drug
}

// Load parses and validates the embedded catalog.
func Load() (*Formulary, error) {
	return Parse(catalogJSON)
}

// Parse builds a Formulary from raw catalog JSON, rejecting catalogs that
// fail structural validation (missing dose specs, overlapping eligibility
// bands, non-positive concentrations).
func Parse(data []byte) (*Formulary, error) {
	var drugs []entities.Drug
	if err := json.Unmarshal(data, &drugs); err != nil {
		return nil, fmt.Errorf("failed to parse formulary catalog: %w", err)
	}

	validator := validation.NewFormularyValidator()
	if err := validator.ValidateCatalog(drugs); err != nil {
		return nil, fmt.Errorf("formulary catalog validation failed: %w", err)
	}

	f := &Formulary{
		drugs:  drugs,
		byName: make(map[string]*entities.Drug, len(drugs)),
	}
	for i := range f.drugs {
		f.byName[Normalize(f.drugs[i].Name)] = &f.drugs[i]
	}
	return f, nil
}

// GetDrug looks up a drug by name, case-insensitively.
func (f *Formulary) GetDrug(name string) (*entities.Drug, bool) {
	d, ok := f.byName[Normalize(name)]
	return d, ok
}

// GetRegimens returns the ordered regimen list for a drug+indication pair.
// The order is declaration order; the eligibility gate depends on it.
func (f *Formulary) GetRegimens(drugName, indication string) ([]entities.Regimen, bool) {
	d, ok := f.GetDrug(drugName)
	if !ok {
		return nil, false
	}
	return f.RegimensOf(d, indication)
}

// RegimensOf returns the regimen list for an indication of an already
// resolved drug.
func (f *Formulary) RegimensOf(d *entities.Drug, indication string) ([]entities.Regimen, bool) {
	want := Normalize(indication)
	for i := range d.Indications {
		if Normalize(d.Indications[i].Name) == want {
			return d.Indications[i].Regimens, true
		}
	}
	return nil, false
}

// Drugs returns all catalog entries in declaration order.
func (f *Formulary) Drugs() []entities.Drug {
	return f.drugs
}

// IndicationNames returns the indication names of a drug in declaration
// order, or nil when the drug is unknown.
func (f *Formulary) IndicationNames(drugName string) []string {
	d, ok := f.GetDrug(drugName)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(d.Indications))
	for i := range d.Indications {
		names = append(names, d.Indications[i].Name)
	}
	return names
}

// DrugCount returns the number of drugs in the catalog.
func (f *Formulary) DrugCount() int {
	return len(f.drugs)
}
