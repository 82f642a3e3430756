package repository

import (
	"fmt"
	"strings"
)

// Key prefixes of the blob store layout.
const (
	ScoresPrefix  = "scores/"
	HistoryPrefix = "score-history/"
)

// ScoreKey returns the key of a session score.
func ScoreKey(userID, sessionID string) string {
	return ScoresPrefix + userID + "/" + sessionID
}

// UserScoresPrefix returns the prefix holding every session score of a user.
func UserScoresPrefix(userID string) string {
	return ScoresPrefix + userID + "/"
}

// HistoryKey returns the key of a user's history.
func HistoryKey(userID string) string {
	return HistoryPrefix + userID
}

func validateID(name, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidID, name)
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("%w: %s must not contain '/'", ErrInvalidID, name)
	}
	return nil
}
