package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/blobstore"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/domain/scoring"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/logger"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/metrics"
)

// ScoreRepository stores at most one live score per (user, session).
//
// The duplicate check in Store is a read followed by a write and is not
// atomic: two concurrent calls for the same session can both pass the check,
// the last write wins and history may gain two entries.
type ScoreRepository struct {
	store   *blobstore.Store
	scorer  scoring.Scorer
	history *HistoryRepository
	opts    options
}

// NewScoreRepository creates a score repository. Every stored score is also
// appended to history.
func NewScoreRepository(store *blobstore.Store, scorer scoring.Scorer, history *HistoryRepository, opts ...Option) *ScoreRepository {
	return &ScoreRepository{
		store:   store,
		scorer:  scorer,
		history: history,
		opts:    newOptions(opts),
	}
}

func validatePair(userID, sessionID string) error {
	if err := validateID("userId", userID); err != nil {
		return err
	}
	return validateID("sessionId", sessionID)
}

// Store scores imagePayload for the session and persists the result.
// It returns ErrAlreadyScored when a live score exists for the session.
func (r *ScoreRepository) Store(ctx context.Context, userID, sessionID, imagePayload string) (scoring.Result, error) {
	existing, err := r.Get(ctx, userID, sessionID)
	if err != nil {
		return scoring.Result{}, err
	}
	if existing != nil {
		metrics.RecordScoreDuplicate()
		return scoring.Result{}, fmt.Errorf("%w: user %s session %s", ErrAlreadyScored, userID, sessionID)
	}

	result, err := r.scorer.Score(ctx, scoring.Input{UserID: userID, ImagePayload: imagePayload})
	if err != nil {
		return scoring.Result{}, fmt.Errorf("score: %w", err)
	}

	created := result.Timestamp
	rec := StoredScore{
		UserID:    userID,
		SessionID: sessionID,
		Score:     result,
		CreatedAt: created,
		ExpiresAt: created.Add(r.opts.scoreTTL),
	}
	if err := r.store.StoreJSON(ctx, ScoreKey(userID, sessionID), rec); err != nil {
		return scoring.Result{}, fmt.Errorf("%w: save score: %w", ErrStorage, err)
	}
	if err := r.history.Append(ctx, userID, rec); err != nil {
		return scoring.Result{}, err
	}

	r.opts.logger.Debug(ctx, "score stored",
		logger.String("user_id", userID),
		logger.String("session_id", sessionID),
		logger.Int("total", result.TotalScore),
	)
	return result, nil
}

// Get returns the live score of the session, or nil when it is absent,
// expired or malformed. Expired and malformed records are deleted as a side
// effect.
func (r *ScoreRepository) Get(ctx context.Context, userID, sessionID string) (*StoredScore, error) {
	if err := validatePair(userID, sessionID); err != nil {
		return nil, err
	}
	key := ScoreKey(userID, sessionID)

	var rec StoredScore
	found, err := r.store.GetJSON(ctx, key, &rec)
	if errors.Is(err, blobstore.ErrMalformed) {
		r.opts.logger.Warn(ctx, "discarding malformed score",
			logger.String("user_id", userID),
			logger.String("session_id", sessionID),
			logger.Error(err),
		)
		if err := r.store.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("%w: delete malformed score: %w", ErrStorage, err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load score: %w", ErrStorage, err)
	}
	if !found {
		return nil, nil
	}
	if rec.Expired(r.opts.clock.Now()) {
		if err := r.store.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("%w: delete expired score: %w", ErrStorage, err)
		}
		return nil, nil
	}
	return &rec, nil
}

// CanScore reports whether the session may be scored. Storage failures
// yield EligibilityUnknown rather than an error.
func (r *ScoreRepository) CanScore(ctx context.Context, userID, sessionID string) Eligibility {
	rec, err := r.Get(ctx, userID, sessionID)
	var outcome Eligibility
	switch {
	case err != nil:
		outcome = EligibilityUnknown
		r.opts.logger.Warn(ctx, "eligibility unknown, allowing score",
			logger.String("user_id", userID),
			logger.String("session_id", sessionID),
			logger.Error(err),
		)
	case rec != nil:
		outcome = EligibilityAlreadyScored
	default:
		outcome = EligibilityAvailable
	}
	metrics.RecordEligibility(outcome.String())
	return outcome
}

// Delete removes the session score. Deleting a missing score is not an error.
func (r *ScoreRepository) Delete(ctx context.Context, userID, sessionID string) error {
	if err := validatePair(userID, sessionID); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, ScoreKey(userID, sessionID)); err != nil {
		return fmt.Errorf("%w: delete score: %w", ErrStorage, err)
	}
	return nil
}

// ResetHistory deletes the user's history and every session score of the
// user. It returns the number of session scores removed.
func (r *ScoreRepository) ResetHistory(ctx context.Context, userID string) (int, error) {
	if err := r.history.Delete(ctx, userID); err != nil {
		return 0, err
	}

	var keys []string
	seen := make(map[string]struct{})
	cursor := ""
	for {
		page, err := r.store.ListObjects(ctx, blobstore.ListInput{
			Prefix:  UserScoresPrefix(userID),
			MaxKeys: r.opts.pageSize,
			Cursor:  cursor,
		})
		if err != nil {
			return 0, fmt.Errorf("%w: list scores: %w", ErrStorage, err)
		}
		for _, obj := range page.Objects {
			if _, dup := seen[obj.Key]; dup {
				continue
			}
			seen[obj.Key] = struct{}{}
			keys = append(keys, obj.Key)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	deleted := 0
	for _, key := range keys {
		if err := r.store.Delete(ctx, key); err != nil {
			return deleted, fmt.Errorf("%w: delete score: %w", ErrStorage, err)
		}
		deleted++
	}

	r.opts.logger.Info(ctx, "history reset",
		logger.String("user_id", userID),
		logger.Int("scores_deleted", deleted),
	)
	return deleted, nil
}

// IsStorageError reports whether err came from the blob store rather than
// from the caller's input or the dedup rule.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorage)
}
