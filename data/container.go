// Package data provides the thread-safe holder for the loaded formulary.
// The catalog itself is immutable; the atomic pointer exists so a future
// reload (e.g. a new catalog revision) can swap it with zero downtime.
package data

import (
	"sync/atomic"
	"time"

	"github.com/nonthapat/dosebot-api/formulary"
	"github.com/nonthapat/dosebot-api/formulary/entities"
	"github.com/nonthapat/dosebot-api/interfaces"
	"github.com/nonthapat/dosebot-api/logging"
)

// Compile-time check to ensure Container implements FormularyStore
var _ interfaces.FormularyStore = (*Container)(nil)

// Container holds the formulary behind an atomic pointer.
type Container struct {
	formulary atomic.Value // *formulary.Formulary
	loadedAt  atomic.Value // time.Time
}

// NewContainer creates a container holding the given formulary.
func NewContainer(f *formulary.Formulary) *Container {
	c := &Container{}
	c.formulary.Store(f)
	c.loadedAt.Store(time.Now())
	return c
}

// Swap atomically replaces the formulary.
func (c *Container) Swap(f *formulary.Formulary) {
	c.formulary.Store(f)
	c.loadedAt.Store(time.Now())
}

func (c *Container) current() *formulary.Formulary {
	if v := c.formulary.Load(); v != nil {
		if f, ok := v.(*formulary.Formulary); ok {
			return f
		}
	}

	logging.Warn("Formulary container is empty or invalid")
	return nil
}

// GetDrug looks up a drug by name.
func (c *Container) GetDrug(name string) (*entities.Drug, bool) {
	f := c.current()
	if f == nil {
		return nil, false
	}
	return f.GetDrug(name)
}

// GetRegimens returns the regimen list for a drug+indication pair.
func (c *Container) GetRegimens(drugName, indication string) ([]entities.Regimen, bool) {
	f := c.current()
	if f == nil {
		return nil, false
	}
	return f.GetRegimens(drugName, indication)
}

// Drugs returns all catalog entries.
func (c *Container) Drugs() []entities.Drug {
	f := c.current()
	if f == nil {
		return []entities.Drug{}
	}
	return f.Drugs()
}

// IndicationNames returns the indication names of a drug.
func (c *Container) IndicationNames(drugName string) []string {
	f := c.current()
	if f == nil {
		return nil
	}
	return f.IndicationNames(drugName)
}

// DrugCount returns the number of drugs in the catalog.
func (c *Container) DrugCount() int {
	f := c.current()
	if f == nil {
		return 0
	}
	return f.DrugCount()
}

// LoadedAt returns the timestamp of the last catalog load.
func (c *Container) LoadedAt() time.Time {
	if v := c.loadedAt.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get the formulary load time")
	return time.Time{}
}
