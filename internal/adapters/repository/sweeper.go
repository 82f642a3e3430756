package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/blobstore"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/logger"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/metrics"
	"github.com/google/uuid"
)

// SweepReport summarizes one sweep run.
type SweepReport struct {
	RunID     string
	Scanned   int
	Deleted   int
	Expired   int
	Malformed int
	Truncated bool
	Duration  time.Duration
}

// Sweeper deletes expired and unreadable session scores. It pages through
// scores/ and stops early, reporting Truncated, when its budget elapses or
// ctx is done.
type Sweeper struct {
	store *blobstore.Store
	opts  options
}

// NewSweeper creates a sweeper over store.
func NewSweeper(store *blobstore.Store, opts ...Option) *Sweeper {
	return &Sweeper{store: store, opts: newOptions(opts)}
}

// Sweep runs one pass. On a listing or delete failure it returns the partial
// report with the error.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	clock := s.opts.clock
	start := clock.Now()
	report := SweepReport{RunID: uuid.NewString()}
	log := s.opts.logger.With(logger.String("run_id", report.RunID))

	overBudget := func() bool {
		if ctx.Err() != nil {
			return true
		}
		return s.opts.budget > 0 && clock.Since(start) >= s.opts.budget
	}

	err := s.run(ctx, &report, overBudget)
	report.Deleted = report.Expired + report.Malformed
	report.Duration = clock.Since(start)

	if err != nil {
		metrics.RecordSweepFailure()
		log.Error(ctx, "sweep failed",
			logger.Int("scanned", report.Scanned),
			logger.Int("deleted", report.Deleted),
			logger.Error(err),
		)
		return report, err
	}

	metrics.RecordSweep(report.Scanned, report.Expired, report.Malformed,
		float64(report.Duration.Milliseconds()), report.Truncated, clock.Now().Unix())
	log.Info(ctx, "sweep finished",
		logger.Int("scanned", report.Scanned),
		logger.Int("expired", report.Expired),
		logger.Int("malformed", report.Malformed),
		logger.Bool("truncated", report.Truncated),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}

func (s *Sweeper) run(ctx context.Context, report *SweepReport, overBudget func() bool) error {
	cursor := ""
	for {
		if overBudget() {
			report.Truncated = true
			return nil
		}
		page, err := s.store.ListObjects(ctx, blobstore.ListInput{
			Prefix:  ScoresPrefix,
			MaxKeys: s.opts.pageSize,
			Cursor:  cursor,
		})
		if err != nil {
			return fmt.Errorf("%w: list scores: %w", ErrStorage, err)
		}

		for _, obj := range page.Objects {
			if overBudget() {
				report.Truncated = true
				return nil
			}
			report.Scanned++
			if err := s.sweepKey(ctx, obj.Key, report); err != nil {
				return err
			}
		}

		if page.NextCursor == "" {
			return nil
		}
		cursor = page.NextCursor
	}
}

func (s *Sweeper) sweepKey(ctx context.Context, key string, report *SweepReport) error {
	var rec StoredScore
	found, err := s.store.GetJSON(ctx, key, &rec)
	switch {
	case errors.Is(err, blobstore.ErrMalformed), err == nil && found && rec.ExpiresAt.IsZero():
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("%w: delete malformed score: %w", ErrStorage, err)
		}
		report.Malformed++
		s.opts.logger.Debug(ctx, "deleted malformed score", logger.String("key", key))
	case err != nil:
		return fmt.Errorf("%w: load score: %w", ErrStorage, err)
	case !found:
		// removed since listing
	case rec.Expired(s.opts.clock.Now()):
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("%w: delete expired score: %w", ErrStorage, err)
		}
		report.Expired++
	}
	return nil
}
