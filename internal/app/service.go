// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/zanshin/internal/adapters/ai"
	eventqueue "github.com/okian/zanshin/internal/adapters/mq/queue"
	workerpool "github.com/okian/zanshin/internal/adapters/mq/worker"
	repository "github.com/okian/zanshin/internal/adapters/repository"
	"github.com/okian/zanshin/internal/domain/counter"
	"github.com/okian/zanshin/internal/domain/dedupe"
	"github.com/okian/zanshin/internal/domain/ledger"
	"github.com/okian/zanshin/internal/domain/model"
	"github.com/okian/zanshin/internal/domain/rules"
	"github.com/okian/zanshin/internal/domain/stats"
	"github.com/okian/zanshin/internal/domain/summary"
	"github.com/okian/zanshin/pkg/logger"
	"github.com/okian/zanshin/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueSize  = 100000
	defaultDedupeSize = 50000
	defaultPageSize   = 200
	defaultTopN       = 10
	defaultMaxTopN    = 50
)

// SaveResult reports what a bout save persisted, what it dropped, and the
// outcome the rule engine derived (zero-valued when auto-compute is off).
type SaveResult struct {
	Points  []model.Point
	Skipped []ledger.Verdict
	Outcome rules.Outcome
}

// Service wires the scoring ledger, rule engine, aggregation pipeline and
// summarizer behind one API surface.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	workerPool *workerpool.Pool
	summarizer ai.Client

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	ruleConfig     rules.Config
	homeUniversity string
	defaultTopN    int
	maxTopN        int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing document store. Defaults to the in-memory
// store when unset.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of aggregation worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the point event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the event deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRules sets the competition rule configuration.
func WithRules(cfg rules.Config) Option {
	return func(s *Service) {
		s.ruleConfig = cfg
	}
}

// WithHomeUniversity sets the university the intra-squad filter checks
// both sides of a match against.
func WithHomeUniversity(name string) Option {
	return func(s *Service) {
		s.homeUniversity = name
	}
}

// WithTopN sets the default and maximum technique breakdown sizes.
func WithTopN(defaultN, maxN int) Option {
	return func(s *Service) {
		if defaultN > 0 {
			s.defaultTopN = defaultN
		}
		if maxN >= defaultN {
			s.maxTopN = maxN
		}
	}
}

// WithSummarizer sets the AI summary client. Summaries are disabled when
// unset.
func WithSummarizer(client ai.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.summarizer = client
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		defaultTopN: defaultTopN,
		maxTopN:     defaultMaxTopN,
		ruleConfig: rules.Config{
			AllowSuddenDeath:   true,
			AllowPanelDecision: true,
			AutoCompute:        true,
		},
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
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting scoring service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using in-memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
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

	// Closing the queue lets workers drain before stopping
	if q, ok := s.eventQueue.(*eventqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	if s.store != nil {
		_ = s.store.Close(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// CreateMatch persists a match shell and returns its id.
func (s *Service) CreateMatch(ctx context.Context, m model.Match) (string, error) {
	return s.store.CreateMatch(ctx, m)
}

// GetMatch returns a match hydrated with its bouts and points.
func (s *Service) GetMatch(ctx context.Context, id string) (model.Match, error) {
	return s.store.GetMatch(ctx, id)
}

// DeleteMatch removes an empty match shell.
func (s *Service) DeleteMatch(ctx context.Context, id string) error {
	return s.store.DeleteMatch(ctx, id)
}

// CreateBout registers a match-up and returns its id.
func (s *Service) CreateBout(ctx context.Context, b model.Bout) (string, error) {
	return s.store.CreateBout(ctx, b)
}

// GetBout returns a bout hydrated with its points.
func (s *Service) GetBout(ctx context.Context, id string) (model.Bout, error) {
	return s.store.GetBout(ctx, id)
}

// DeleteBout removes a bout after clearing its point set.
func (s *Service) DeleteBout(ctx context.Context, id string) error {
	if _, err := s.store.ReplaceBoutPoints(ctx, id, nil); err != nil {
		return err
	}
	return s.store.DeleteBout(ctx, id)
}

// SaveBoutScore replaces the bout's point set from the entered candidate rows
// and foul counts, recomputes the outcome when auto-compute is on, and feeds
// the stored points to the daily counter pipeline.
func (s *Service) SaveBoutScore(ctx context.Context, boutID string, candidates []ledger.Candidate, foulsOurs, foulsTheirs int) (SaveResult, error) {
	bout, err := s.store.GetBout(ctx, boutID)
	if err != nil {
		return SaveResult{}, err
	}

	now := time.Now().UTC()
	points, skips := ledger.BuildSet(bout, candidates, foulsOurs, foulsTheirs, now)
	for _, v := range skips {
		metrics.RecordPointSkipped(v.Reason)
		s.logger.Debug(ctx, "candidate point skipped",
			logger.String("boutID", boutID),
			logger.String("reason", v.Reason),
		)
	}

	stored, err := s.store.ReplaceBoutPoints(ctx, boutID, points)
	if err != nil {
		return SaveResult{}, fmt.Errorf("replace bout points: %w", err)
	}
	for range stored {
		metrics.RecordPointRecorded()
	}

	res := SaveResult{Points: stored, Skipped: skips}

	if s.ruleConfig.AutoCompute {
		tally := rules.CountSides(bout, stored, foulsOurs, foulsTheirs)
		outcome := rules.Decide(bout, tally, s.ruleConfig)
		metrics.RecordOutcomeRecompute(string(outcome.WinType))

		if outcome.WinType != bout.WinType || outcome.WinnerID != bout.WinnerID {
			if err := s.store.UpdateBoutOutcome(ctx, boutID, outcome.WinType, outcome.WinnerID); err != nil {
				return SaveResult{}, fmt.Errorf("update bout outcome: %w", err)
			}
			metrics.RecordOutcomeWrite()
		}
		res.Outcome = outcome
	}

	s.enqueuePoints(ctx, stored)

	return res, nil
}

// OverrideOutcome manually assigns a bout's outcome, bypassing the rule
// engine.
func (s *Service) OverrideOutcome(ctx context.Context, boutID string, winType model.WinType, winnerID string) error {
	bout, err := s.store.GetBout(ctx, boutID)
	if err != nil {
		return err
	}
	if !rules.ValidateOverride(bout, winType, winnerID) {
		return ErrInvalidOutcome
	}
	if err := s.store.UpdateBoutOutcome(ctx, boutID, winType, winnerID); err != nil {
		return err
	}
	metrics.RecordOutcomeWrite()
	return nil
}

// PlayerStats aggregates a player's record over the filtered match set.
func (s *Service) PlayerStats(ctx context.Context, playerID string, f stats.Filter, topN int, g stats.Granularity) (stats.PlayerStats, error) {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordStatsQueryLatency(float64(latency))
	}()

	switch {
	case topN <= 0:
		topN = s.defaultTopN
	case topN > s.maxTopN:
		topN = s.maxTopN
	}
	if g == "" {
		g = stats.GranularityDetailed
	}
	if f.Officialness == "" {
		f.Officialness = stats.OfficialnessAll
	}
	if f.HomeUniversity == "" {
		f.HomeUniversity = s.homeUniversity
	}

	matches, err := s.allMatches(ctx)
	if err != nil {
		return stats.PlayerStats{}, err
	}

	return stats.Compute(matches, playerID, f, topN, g), nil
}

// DailyCounters returns a player's daily technique counter rows.
func (s *Service) DailyCounters(ctx context.Context, playerID string) ([]model.Counter, error) {
	return s.store.ListDailyCounters(ctx, playerID)
}

// RebuildCounters recomputes every daily counter from the full point history
// and overwrites the stored rows. Running it after worker failures or manual
// point surgery converges the counters back to a state as if every event had
// been applied exactly once. Returns the number of rows written.
func (s *Service) RebuildCounters(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		latency := time.Since(start).Milliseconds()
		metrics.RecordRebuildDuration(float64(latency))
	}()

	metrics.RecordRebuildRun()

	var all []model.Point
	token := ""
	for {
		page, next, err := s.store.ListPoints(ctx, token, defaultPageSize)
		if err != nil {
			return 0, fmt.Errorf("list points: %w", err)
		}
		all = append(all, page...)
		if next == "" {
			break
		}
		token = next
	}

	totals := counter.Rebuild(all)
	written := 0
	for key, count := range totals {
		if err := s.store.PutDailyCounter(ctx, key, count); err != nil {
			metrics.RecordCounterError("rebuild")
			return written, fmt.Errorf("put counter %s/%s: %w", key.PlayerID, key.Name, err)
		}
		written++
	}

	s.logger.Info(ctx, "counter rebuild finished",
		logger.Int("points", len(all)),
		logger.Int("rows", written),
	)

	return written, nil
}

// Summarize generates a natural-language summary of a player's aggregated
// statistics.
func (s *Service) Summarize(ctx context.Context, playerID string, f stats.Filter, g stats.Granularity, notes string) (ai.Result, error) {
	if s.summarizer == nil {
		return ai.Result{}, ErrNoSummarizer
	}
	if g == "" {
		g = stats.GranularityDetailed
	}

	playerStats, err := s.PlayerStats(ctx, playerID, f, 0, g)
	if err != nil {
		return ai.Result{}, err
	}

	payload := summary.Build(playerStats, f, g, notes)
	return s.summarizer.Summarize(ctx, payload)
}

// FollowUp asks a question within an existing summary session.
func (s *Service) FollowUp(ctx context.Context, sessionID, question string) (ai.Result, error) {
	if s.summarizer == nil {
		return ai.Result{}, ErrNoSummarizer
	}
	return s.summarizer.FollowUp(ctx, sessionID, question)
}

// QueueLen reports the current aggregation backlog.
func (s *Service) QueueLen(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return 0
	}
	return s.eventQueue.Len(ctx)
}

// enqueuePoints hands the stored points to the counter pipeline. Delivery is
// fire-and-forget: a full queue only delays counters until the next rebuild,
// so a failed enqueue is logged and unrecorded for retry, never an error.
func (s *Service) enqueuePoints(ctx context.Context, stored []model.Point) {
	for _, p := range stored {
		eventID := fmt.Sprintf("%s:%d", p.ID, p.Version)
		if s.deduper.SeenAndRecord(ctx, eventID) {
			metrics.RecordEventDuplicate()
			continue
		}

		event := model.PointEvent{
			EventID:    eventID,
			PointID:    p.ID,
			ScorerID:   p.ScorerID,
			Target:     p.Target,
			Methods:    p.Methods,
			RecordedAt: p.RecordedAt,
		}
		if !s.eventQueue.Enqueue(ctx, event) {
			s.deduper.Unrecord(ctx, eventID)
			s.logger.Warn(ctx, "counter event dropped, queue full",
				logger.String("eventID", eventID),
			)
		}
	}
}

// allMatches drains the match listing into memory.
func (s *Service) allMatches(ctx context.Context) ([]model.Match, error) {
	var all []model.Match
	token := ""
	for {
		page, next, err := s.store.ListMatches(ctx, token, defaultPageSize)
		if err != nil {
			return nil, fmt.Errorf("list matches: %w", err)
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}
