package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Input abstracts the request fields needed for scoring.
type Input struct {
	UserID       string
	ImagePayload string
}

// Result is a published facial score.
type Result struct {
	TotalScore       int        `json:"totalScore"`
	Components       Components `json:"components"`
	ProcessingTimeMs int64      `json:"processingTime"`
	Timestamp        time.Time  `json:"timestamp"`
}

// Scorer computes a score from an input.
type Scorer interface {
	// Score computes a score, honoring ctx for cancellation.
	Score(ctx context.Context, in Input) (Result, error)
}

// Option applies a configuration option to the DeterministicScorer.
type Option func(*DeterministicScorer)

// WithClock sets the clock used to stamp results.
func WithClock(clock clockwork.Clock) Option {
	return func(s *DeterministicScorer) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// DeterministicScorer implements Scorer from the seed of (user, payload).
// The score part of a Result depends only on the input.
type DeterministicScorer struct {
	clock clockwork.Clock
}

// NewDeterministicScorer creates a scorer with configuration options.
func NewDeterministicScorer(opts ...Option) *DeterministicScorer {
	s := &DeterministicScorer{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score computes the score for the given input.
func (s *DeterministicScorer) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	start := s.clock.Now()

	components := ComponentsFromSeed(DeriveSeed(in.UserID, in.ImagePayload))
	total := ComposeTotal(components)

	return Result{
		TotalScore:       total,
		Components:       components,
		ProcessingTimeMs: s.clock.Since(start).Milliseconds(),
		Timestamp:        Timestamp(s.clock.Now()),
	}, nil
}

// Timestamp normalizes t to UTC with millisecond precision, the resolution
// used for every persisted instant.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
