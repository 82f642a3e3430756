package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrAlreadyScored = errors.New("session already scored")
	ErrInvalidID     = errors.New("invalid identifier")
	ErrStorage       = errors.New("score storage failure")
)
