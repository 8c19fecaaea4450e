// Package interfaces defines the core abstractions of the dosing bot so
// the conversation engine, transport and scheduler can be wired and tested
// independently.
package interfaces

import (
	"context"
	"time"

	"github.com/nonthapat/dosebot-api/formulary/entities"
)

// FormularyStore is the read-only drug catalog contract. Lookups are
// case-insensitive; a missing drug or indication is a "no data" result,
// not an error.
type FormularyStore interface {
	GetDrug(name string) (*entities.Drug, bool)
	GetRegimens(drugName, indication string) ([]entities.Regimen, bool)
	Drugs() []entities.Drug
	IndicationNames(drugName string) []string
	DrugCount() int
	LoadedAt() time.Time
}

// ReplySender delivers composed reply messages back to the chat platform.
// Delivery is fire-and-forget from the core's perspective: a failed send
// is logged and counted, never retried, and never rolls back session state.
type ReplySender interface {
	Reply(ctx context.Context, replyToken string, messages []string) error
}

// Scheduler is the contract for background maintenance jobs.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports current system health status.
type HealthChecker interface {
	HealthCheck() (status string, data map[string]any, httpStatus int)
}
