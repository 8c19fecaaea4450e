// Package health provides health checking functionality for the dosing bot.
package health

import (
	"net/http"
	"time"

	"github.com/nonthapat/dosebot-api/interfaces"
	"github.com/nonthapat/dosebot-api/session"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	formulary interfaces.FormularyStore
	sessions  session.Store
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(formulary interfaces.FormularyStore, sessions session.Store) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		formulary: formulary,
		sessions:  sessions,
	}
}

// HealthCheck reports the formulary and session state for the /health
// endpoint. The catalog is embedded and loaded once at startup, so an
// empty catalog means the process cannot answer any dosing question.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	drugCount := h.formulary.DrugCount()

	switch {
	case drugCount == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"formulary": map[string]any{
			"drug_count": drugCount,
			"loaded_at":  h.formulary.LoadedAt().Format(time.RFC3339),
		},
		"sessions": map[string]any{
			"active": h.sessions.Count(),
		},
	}

	return status, data, httpStatus
}
