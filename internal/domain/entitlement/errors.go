package entitlement

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of every input validation failure.
var ErrValidation = errors.New("invalid entitlement input")

// Sentinel kinds for validation errors. Each one matches ErrValidation with errors.Is.
var (
	ErrMissingUserID      = fmt.Errorf("%w: userId is required", ErrValidation)
	ErrMissingFacialScore = fmt.Errorf("%w: facialScore is required", ErrValidation)
	ErrMissingUniversity  = fmt.Errorf("%w: university is required", ErrValidation)
	ErrInvalidGender      = fmt.Errorf("%w: gender must be male or female", ErrValidation)
	ErrUnknownNFTTier     = fmt.Errorf("%w: unknown nftTier", ErrValidation)
)

// Field returns the profile field an entitlement validation error refers
// to, or "" when err is not one of this package's validation errors.
func Field(err error) string {
	switch {
	case errors.Is(err, ErrMissingUserID):
		return "userId"
	case errors.Is(err, ErrMissingFacialScore):
		return "facialScore"
	case errors.Is(err, ErrMissingUniversity):
		return "university"
	case errors.Is(err, ErrInvalidGender):
		return "gender"
	case errors.Is(err, ErrUnknownNFTTier):
		return "nftTier"
	default:
		return ""
	}
}
