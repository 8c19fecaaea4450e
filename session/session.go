// Package session holds per-user conversation state and the in-memory
// store that keeps it. Sessions are not persisted: a process restart
// clears all of them, which matches the store contract.
package session

import (
	"time"

	"github.com/google/uuid"
)

// FlowKind identifies which conversation flow a session is in.
type FlowKind int

const (
	FlowNone FlowKind = iota
	FlowDrugDosing
	FlowWarfarin
)

// WarfarinStep is the cursor through the ordered warfarin dialogue.
type WarfarinStep int

const (
	StepAskINR WarfarinStep = iota
	StepAskTWD
	StepAskBleeding
	StepAskSupplement
	StepAskInteraction
	StepDone
)

// WarfarinState accumulates the answers of the warfarin flow.
type WarfarinState struct {
	Step            WarfarinStep
	INR             float64
	TWD             float64
	Bleeding        bool
	Supplement      string
	InteractingDrug string
}

// Session is one user's conversation record. The drug-dosing fields and
// the warfarin state are independent; Flow says which one is live.
type Session struct {
	ID         string
	UserID     string
	Flow       FlowKind
	Drug       string
	Indication string
	AgeYears   float64
	HasAge     bool
	Warfarin   WarfarinState
	UpdatedAt  time.Time
}

// New creates a fresh session for a user.
func New(userID string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Flow:      FlowNone,
		UpdatedAt: time.Now(),
	}
}

// ResetDrugDosing clears the drug-dosing selection, keeping the session.
func (s *Session) ResetDrugDosing() {
	s.Flow = FlowNone
	s.Drug = ""
	s.Indication = ""
	s.AgeYears = 0
	s.HasAge = false
}

// StartWarfarin switches the session into the warfarin flow at its first
// question, discarding any drug-dosing selection in progress.
func (s *Session) StartWarfarin() {
	s.ResetDrugDosing()
	s.Flow = FlowWarfarin
	s.Warfarin = WarfarinState{Step: StepAskINR}
}
