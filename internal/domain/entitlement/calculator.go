// Package entitlement combines a facial score with static tier bonuses into
// a final, time-limited entitlement score.
package entitlement

import (
	"math"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultValidity is how long a calculated entitlement score stays valid.
const DefaultValidity = 30 * 24 * time.Hour

// Profile is both the input and the output of the calculator. Callers own
// persistence of the returned value.
type Profile struct {
	UserID      string     `json:"userId"`
	Gender      Gender     `json:"gender"`
	FacialScore *float64   `json:"facialScore"`
	University  string     `json:"university"`
	NFTTier     NFTTier    `json:"nftTier,omitempty"`
	FinalScore  *float64   `json:"finalScore,omitempty"`
	ScoreExpiry *time.Time `json:"scoreExpiry,omitempty"`
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithClock sets the clock used to compute score expiry.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Calculator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithValidity sets how long a final score remains valid.
func WithValidity(d time.Duration) Option {
	return func(c *Calculator) {
		if d > 0 {
			c.validity = d
		}
	}
}

// WithUniversityPoints replaces the university table.
func WithUniversityPoints(points map[string]int) Option {
	return func(c *Calculator) {
		if len(points) == 0 {
			return
		}
		c.universities = make(map[string]int, len(points))
		for name, p := range points {
			c.universities[strings.TrimSpace(name)] = p
		}
	}
}

// Calculator computes entitlement scores. It performs no I/O and is safe
// for concurrent use.
type Calculator struct {
	clock        clockwork.Clock
	validity     time.Duration
	universities map[string]int
	nftTiers     map[NFTTier]int
}

// NewCalculator creates a calculator with the built-in tables.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		clock:        clockwork.NewRealClock(),
		validity:     DefaultValidity,
		universities: defaultUniversityPoints(),
		nftTiers:     defaultNFTPoints(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UniversityPoints returns the bonus for a university; unknown names earn 0.
func (c *Calculator) UniversityPoints(university string) int {
	return c.universities[strings.TrimSpace(university)]
}

// NFTPoints returns the bonus for a tier. An empty tier counts as none.
func (c *Calculator) NFTPoints(tier NFTTier) (int, error) {
	if tier == "" {
		tier = TierNone
	}
	p, ok := c.nftTiers[tier]
	if !ok {
		return 0, ErrUnknownNFTTier
	}
	return p, nil
}

// CalculateFinalScore validates p and returns a copy carrying FinalScore
// and ScoreExpiry. The input is never modified. The result is not clamped
// and may exceed the facial score band.
func (c *Calculator) CalculateFinalScore(p Profile) (Profile, error) {
	if err := validate(p); err != nil {
		return Profile{}, err
	}

	out := p
	facial := *p.FacialScore
	uni := c.UniversityPoints(p.University)

	nft := 0
	if p.Gender == Male {
		if out.NFTTier == "" {
			out.NFTTier = TierNone
		}
		var err error
		if nft, err = c.NFTPoints(out.NFTTier); err != nil {
			return Profile{}, err
		}
	} else {
		out.NFTTier = ""
	}

	final := roundHalfUp(facial + float64(uni) + float64(nft))
	expiry := c.clock.Now().UTC().Add(c.validity).Truncate(time.Millisecond)

	fs := facial
	out.FacialScore = &fs
	out.FinalScore = &final
	out.ScoreExpiry = &expiry
	return out, nil
}

func validate(p Profile) error {
	switch {
	case strings.TrimSpace(p.UserID) == "":
		return ErrMissingUserID
	case p.FacialScore == nil || math.IsNaN(*p.FacialScore):
		return ErrMissingFacialScore
	case strings.TrimSpace(p.University) == "":
		return ErrMissingUniversity
	case p.Gender != Male && p.Gender != Female:
		return ErrInvalidGender
	}
	return nil
}

// roundHalfUp rounds to the nearest integer with halves going toward
// positive infinity, so -25.5 becomes -25.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
