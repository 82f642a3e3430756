// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/blobstore"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/jobs"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/adapters/repository"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/domain/entitlement"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/internal/domain/scoring"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/logger"
	"github.com/arisium-chains/aurum-miniapp-prod-sub001/pkg/metrics"
	"github.com/jonboulle/clockwork"
)

// Service implements the API dependencies for the scoring engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	backend    blobstore.Backend
	store      *blobstore.Store
	scores     *repository.ScoreRepository
	history    *repository.HistoryRepository
	sweeper    *repository.Sweeper
	sweepJob   *jobs.SweepJob
	calculator *entitlement.Calculator

	// Configuration
	clock               clockwork.Clock
	storeTimeout        time.Duration
	scoreTTL            time.Duration
	historyMax          int
	entitlementValidity time.Duration
	sweepInterval       time.Duration
	sweepPageSize       int
	sweepBudget         time.Duration

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBackend sets the blob store backend. The service closes it on Stop
// when it implements io.Closer.
func WithBackend(b blobstore.Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithClock sets the clock shared by every component.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithStoreTimeout bounds each blob store call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.storeTimeout = d
		}
	}
}

// WithScoreTTL sets the lifetime of a session score.
func WithScoreTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.scoreTTL = ttl
		}
	}
}

// WithHistoryMax bounds the per-user history.
func WithHistoryMax(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyMax = n
		}
	}
}

// WithEntitlementValidity sets the lifetime of a final score.
func WithEntitlementValidity(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.entitlementValidity = d
		}
	}
}

// WithSweepInterval sets the expiry sweep period. Zero disables the
// scheduled sweep.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.sweepInterval = d
		}
	}
}

// WithSweepPageSize sets the sweep listing page size.
func WithSweepPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sweepPageSize = n
		}
	}
}

// WithSweepBudget sets the soft time budget of one sweep.
func WithSweepBudget(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.sweepBudget = d
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		clock:               clockwork.NewRealClock(),
		storeTimeout:        blobstore.DefaultTimeout,
		scoreTTL:            repository.DefaultScoreTTL,
		historyMax:          repository.DefaultHistoryMax,
		entitlementValidity: entitlement.DefaultValidity,
		sweepInterval:       jobs.DefaultSweepInterval,
		sweepPageSize:       repository.DefaultSweepPage,
		sweepBudget:         repository.DefaultSweepBudget,
		logger:              nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.backend == nil {
		s.backend = blobstore.NewMemoryBackend()
		s.logger.Info(ctx, "using in-memory blob store")
	}

	s.logger.Info(ctx, "starting scoring service...")

	s.store = blobstore.NewStore(s.backend, blobstore.WithTimeout(s.storeTimeout))
	repoOpts := []repository.Option{
		repository.WithClock(s.clock),
		repository.WithLogger(s.logger.Named("repository")),
		repository.WithScoreTTL(s.scoreTTL),
		repository.WithHistoryMax(s.historyMax),
		repository.WithPageSize(s.sweepPageSize),
		repository.WithBudget(s.sweepBudget),
	}
	s.history = repository.NewHistoryRepository(s.store, repoOpts...)
	s.scores = repository.NewScoreRepository(s.store,
		scoring.NewDeterministicScorer(scoring.WithClock(s.clock)),
		s.history,
		repoOpts...,
	)
	s.sweeper = repository.NewSweeper(s.store, repoOpts...)
	s.calculator = entitlement.NewCalculator(
		entitlement.WithClock(s.clock),
		entitlement.WithValidity(s.entitlementValidity),
	)

	s.sweepJob = jobs.NewSweepJob(s.sweeper,
		jobs.WithInterval(s.sweepInterval),
		jobs.WithLogger(s.logger.Named("sweeper")),
	)
	if err := s.sweepJob.Start(ctx); err != nil {
		return fmt.Errorf("start sweep job: %w", err)
	}

	s.started = true
	s.startedAt = s.clock.Now()
	s.logger.Info(ctx, "scoring service started",
		logger.Duration("scoreTTL", s.scoreTTL),
		logger.Int("historyMax", s.historyMax),
		logger.Duration("sweepInterval", s.sweepInterval),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")

	if s.sweepJob != nil {
		if err := s.sweepJob.Stop(); err != nil {
			s.logger.Warn(ctx, "sweep job shutdown failed", logger.Error(err))
		}
	}

	if closer, ok := s.backend.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "closing blob store failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Score scores a session once and records it in history.
func (s *Service) Score(ctx context.Context, userID, sessionID, imagePayload string) (scoring.Result, error) {
	if err := s.ready(); err != nil {
		return scoring.Result{}, err
	}
	start := time.Now()
	res, err := s.scores.Store(ctx, userID, sessionID, imagePayload)
	if err != nil {
		return scoring.Result{}, err
	}
	metrics.RecordScoreGenerated(res.TotalScore, float64(time.Since(start).Microseconds())/1000)
	return res, nil
}

// GetScore returns the live score of a session, or nil.
func (s *Service) GetScore(ctx context.Context, userID, sessionID string) (*repository.StoredScore, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.scores.Get(ctx, userID, sessionID)
}

// CanScore reports whether a session may be scored.
func (s *Service) CanScore(ctx context.Context, userID, sessionID string) repository.Eligibility {
	if err := s.ready(); err != nil {
		return repository.EligibilityUnknown
	}
	return s.scores.CanScore(ctx, userID, sessionID)
}

// DeleteScore removes a session score.
func (s *Service) DeleteScore(ctx context.Context, userID, sessionID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.scores.Delete(ctx, userID, sessionID)
}

// History returns a user's live score history.
func (s *Service) History(ctx context.Context, userID string) (repository.History, error) {
	if err := s.ready(); err != nil {
		return repository.History{}, err
	}
	return s.history.Read(ctx, userID)
}

// ResetHistory removes a user's history and session scores.
func (s *Service) ResetHistory(ctx context.Context, userID string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.scores.ResetHistory(ctx, userID)
}

// CalculateEntitlement computes a profile's final score.
func (s *Service) CalculateEntitlement(ctx context.Context, p entitlement.Profile) (entitlement.Profile, error) {
	if err := s.ready(); err != nil {
		return entitlement.Profile{}, err
	}
	out, err := s.calculator.CalculateFinalScore(p)
	if err != nil {
		metrics.RecordEntitlementInvalid(entitlement.Field(err))
		s.logger.Debug(ctx, "entitlement rejected",
			logger.String("user_id", p.UserID),
			logger.Error(err),
		)
		return entitlement.Profile{}, err
	}
	metrics.RecordEntitlementCalculated()
	return out, nil
}

// Sweep runs an expiry sweep now.
func (s *Service) Sweep(ctx context.Context) (repository.SweepReport, error) {
	if err := s.ready(); err != nil {
		return repository.SweepReport{}, err
	}
	return s.sweepJob.RunOnce(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"backend":       fmt.Sprintf("%T", s.backend),
		"scoreTTL":      s.scoreTTL.String(),
		"historyMax":    s.historyMax,
		"sweepInterval": s.sweepInterval.String(),
	}

	if s.started {
		stats["uptimeSeconds"] = int64(s.clock.Since(s.startedAt).Seconds())
		stats["sweepRuns"] = s.sweepJob.Runs()
		stats["sweepInterval"] = s.sweepJob.Interval().String()
		if report, ok := s.sweepJob.LastReport(); ok {
			last := map[string]interface{}{
				"runId":     report.RunID,
				"scanned":   report.Scanned,
				"deleted":   report.Deleted,
				"truncated": report.Truncated,
			}
			if err := s.sweepJob.LastError(); err != nil {
				last["error"] = err.Error()
			}
			stats["lastSweep"] = last
		}
		if b, ok := s.backend.(*blobstore.BreakerBackend); ok {
			stats["breakerState"] = b.State()
		}
	}

	return stats
}
