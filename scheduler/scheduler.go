// Package scheduler provides background maintenance for the dosing bot.
// It sweeps idle conversation sessions on a fixed interval and monitors
// session growth, coordinating with the session store using dependency
// injection.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/nonthapat/dosebot-api/interfaces"
	"github.com/nonthapat/dosebot-api/logging"
	"github.com/nonthapat/dosebot-api/session"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Sweep every 10 minutes; an abandoned session lingers for at most
// ttl + sweepInterval.
const sweepInterval = 10 * time.Minute

// Warn when the store grows past this, it usually means the TTL is off.
const sessionCountWarnThreshold = 10000

// Scheduler expires idle sessions and monitors store growth
type Scheduler struct {
	store     *session.MemoryStore
	ttl       time.Duration
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies.
// A zero ttl disables the sweep entirely.
func NewScheduler(store *session.MemoryStore, ttl time.Duration) *Scheduler {
	return &Scheduler{
		store:     store,
		ttl:       ttl,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start schedules the session sweep and store monitoring
func (s *Scheduler) Start() error {
	if s.ttl <= 0 {
		logging.Info("Session expiry disabled, sessions are kept until restart")
		return nil
	}

	_, err := s.scheduler.Every(sweepInterval).Do(func() {
		removed := s.store.SweepExpired(s.ttl)
		if removed > 0 {
			logging.Info("Expired idle sessions", "removed", removed, "active", s.store.Count())
		}
	})

	if err != nil {
		logging.Error("Failed to schedule session sweep", "error", err)
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	s.scheduler.StartAsync()

	// Start store monitoring
	s.startStoreMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// startStoreMonitoring watches the session store size
func (s *Scheduler) startStoreMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			active := s.store.Count()
			if active > sessionCountWarnThreshold {
				logging.Warn("Unusually many active sessions", "active", active, "ttl", s.ttl.String())
			}
		}
	}()
}
