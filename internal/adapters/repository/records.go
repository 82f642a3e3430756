// Package repository persists session scores and per-user history in the
// blob store.
package repository

import (
	"time"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/domain/scoring"
)

// StoredScore is the envelope persisted for one (user, session) pair.
// It is written once and never updated.
type StoredScore struct {
	UserID    string         `json:"userId"`
	SessionID string         `json:"sessionId"`
	Score     scoring.Result `json:"score"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// Expired reports whether now is strictly past ExpiresAt.
func (s StoredScore) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// History lists a user's recent scores, most recent first.
// TotalScores counts every append and never decreases on pruning.
type History struct {
	UserID       string        `json:"userId"`
	Scores       []StoredScore `json:"scores"`
	TotalScores  int           `json:"totalScores"`
	LastScoredAt *time.Time    `json:"lastScoredAt,omitempty"`
}

func emptyHistory(userID string) History {
	return History{UserID: userID, Scores: []StoredScore{}}
}

// Eligibility is the outcome of a pre-check for a new session score.
type Eligibility int

// Eligibility outcomes.
const (
	// EligibilityAvailable means no live score exists for the session.
	EligibilityAvailable Eligibility = iota
	// EligibilityAlreadyScored means a live score exists.
	EligibilityAlreadyScored
	// EligibilityUnknown means storage could not be consulted.
	EligibilityUnknown
)

// String returns the wire name of the outcome.
func (e Eligibility) String() string {
	switch e {
	case EligibilityAvailable:
		return "available"
	case EligibilityAlreadyScored:
		return "already_scored"
	default:
		return "unknown"
	}
}

// Allowed reports whether a caller may proceed with scoring. Unknown fails
// open so a degraded store does not block users.
func (e Eligibility) Allowed() bool {
	return e != EligibilityAlreadyScored
}
