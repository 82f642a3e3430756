package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/blobstore"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/logger"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/metrics"
)

// HistoryRepository keeps a bounded, most-recent-first list of each user's
// scores under score-history/{userId}.
type HistoryRepository struct {
	store *blobstore.Store
	opts  options
}

// NewHistoryRepository creates a history repository over store.
func NewHistoryRepository(store *blobstore.Store, opts ...Option) *HistoryRepository {
	return &HistoryRepository{store: store, opts: newOptions(opts)}
}

// load returns the stored history, or an empty one when it is absent or
// malformed. The bool reports whether a malformed record was discarded.
func (h *HistoryRepository) load(ctx context.Context, userID string) (History, bool, error) {
	var hist History
	found, err := h.store.GetJSON(ctx, HistoryKey(userID), &hist)
	switch {
	case errors.Is(err, blobstore.ErrMalformed):
		h.opts.logger.Warn(ctx, "discarding malformed history",
			logger.String("user_id", userID),
			logger.Error(err),
		)
		metrics.RecordHistoryDiscarded()
		return emptyHistory(userID), true, nil
	case err != nil:
		return History{}, false, fmt.Errorf("%w: load history: %w", ErrStorage, err)
	case !found:
		return emptyHistory(userID), false, nil
	}
	hist.UserID = userID
	if hist.Scores == nil {
		hist.Scores = []StoredScore{}
	}
	return hist, false, nil
}

// Append records rec as the user's most recent score.
func (h *HistoryRepository) Append(ctx context.Context, userID string, rec StoredScore) error {
	if err := validateID("userId", userID); err != nil {
		return err
	}
	hist, _, err := h.load(ctx, userID)
	if err != nil {
		return err
	}

	scores := make([]StoredScore, 0, len(hist.Scores)+1)
	scores = append(scores, rec)
	scores = append(scores, hist.Scores...)
	if len(scores) > h.opts.historyMax {
		scores = scores[:h.opts.historyMax]
	}
	hist.Scores = scores
	hist.TotalScores++
	last := rec.CreatedAt
	hist.LastScoredAt = &last

	if err := h.store.StoreJSON(ctx, HistoryKey(userID), hist); err != nil {
		return fmt.Errorf("%w: save history: %w", ErrStorage, err)
	}
	return nil
}

// Read returns the user's history without expired entries. The pruned list
// is written back only when something was removed; a malformed record is
// deleted.
func (h *HistoryRepository) Read(ctx context.Context, userID string) (History, error) {
	if err := validateID("userId", userID); err != nil {
		return History{}, err
	}
	hist, discarded, err := h.load(ctx, userID)
	if err != nil {
		return History{}, err
	}
	if discarded {
		if err := h.store.Delete(ctx, HistoryKey(userID)); err != nil {
			return History{}, fmt.Errorf("%w: delete history: %w", ErrStorage, err)
		}
		return hist, nil
	}

	now := h.opts.clock.Now()
	live := make([]StoredScore, 0, len(hist.Scores))
	for _, s := range hist.Scores {
		if !s.Expired(now) {
			live = append(live, s)
		}
	}
	pruned := len(hist.Scores) - len(live)
	if pruned == 0 {
		return hist, nil
	}

	hist.Scores = live
	if err := h.store.StoreJSON(ctx, HistoryKey(userID), hist); err != nil {
		return History{}, fmt.Errorf("%w: save history: %w", ErrStorage, err)
	}
	metrics.RecordHistoryPruned(pruned)
	return hist, nil
}

// Delete removes the user's history. Missing history is not an error.
func (h *HistoryRepository) Delete(ctx context.Context, userID string) error {
	if err := validateID("userId", userID); err != nil {
		return err
	}
	if err := h.store.Delete(ctx, HistoryKey(userID)); err != nil {
		return fmt.Errorf("%w: delete history: %w", ErrStorage, err)
	}
	return nil
}
