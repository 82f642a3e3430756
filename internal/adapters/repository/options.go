package repository

import (
	"time"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/logger"
	"github.com/jonboulle/clockwork"
)

// Defaults for repository behavior.
const (
	DefaultScoreTTL    = 24 * time.Hour
	DefaultHistoryMax  = 10
	DefaultSweepPage   = 500
	DefaultSweepBudget = 30 * time.Second
)

type options struct {
	clock      clockwork.Clock
	logger     logger.Logger
	scoreTTL   time.Duration
	historyMax int
	pageSize   int
	budget     time.Duration
}

func newOptions(opts []Option) options {
	o := options{
		clock:      clockwork.NewRealClock(),
		logger:     logger.Nop(),
		scoreTTL:   DefaultScoreTTL,
		historyMax: DefaultHistoryMax,
		pageSize:   DefaultSweepPage,
		budget:     DefaultSweepBudget,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option applies a configuration option to a repository or the sweeper.
type Option func(*options)

// WithClock sets the clock used for creation and expiry checks.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithScoreTTL sets how long a session score stays live.
func WithScoreTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.scoreTTL = ttl
		}
	}
}

// WithHistoryMax bounds the number of entries kept per user.
func WithHistoryMax(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.historyMax = n
		}
	}
}

// WithPageSize sets the sweeper listing page size.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithBudget sets the soft time budget of one sweep. Zero disables it.
func WithBudget(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.budget = d
		}
	}
}
