// Package service wires the ingest pipeline, the record store and the
// session tracker behind the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/okian/stride/internal/adapters/checkpoint"
	recordqueue "github.com/okian/stride/internal/adapters/mq/queue"
	workerpool "github.com/okian/stride/internal/adapters/mq/worker"
	"github.com/okian/stride/internal/adapters/provider"
	"github.com/okian/stride/internal/adapters/repository"
	"github.com/okian/stride/internal/adapters/source"
	"github.com/okian/stride/internal/domain/dedupe"
	"github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/internal/domain/rank"
	"github.com/okian/stride/internal/tracker"
	"github.com/okian/stride/pkg/logger"
	"github.com/okian/stride/pkg/metrics"
)

// Service implements the API dependencies for the activity tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	queue      recordqueue.Queue
	workerPool *workerpool.Pool
	source     source.Source
	tracker    *tracker.Tracker

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	shardCount      int
	thresholdsKm    []int
	fetchTimeout    time.Duration
	relays          []string
	authors         []string
	recordKinds     []int
	selfAuthor      string
	checkpointStore checkpoint.Store
	provider        provider.Provider
	fixOptions      provider.Options

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of parse worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the record queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the record store shard count.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithThresholds sets the leaderboard distance thresholds in kilometers.
func WithThresholds(km []int) Option {
	return func(s *Service) {
		if len(km) > 0 {
			s.thresholdsKm = km
		}
	}
}

// WithFetchTimeout bounds each relay fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithRelays sets the relay URLs records are fetched from.
func WithRelays(urls []string) Option {
	return func(s *Service) { s.relays = urls }
}

// WithAuthors sets the followed authors whose records are fetched.
func WithAuthors(authors []string) Option {
	return func(s *Service) { s.authors = authors }
}

// WithRecordKinds sets the raw record kinds fetched from relays.
func WithRecordKinds(kinds []int) Option {
	return func(s *Service) {
		if len(kinds) > 0 {
			s.recordKinds = kinds
		}
	}
}

// WithSelfAuthor sets the author attributed to locally tracked sessions.
func WithSelfAuthor(author string) Option {
	return func(s *Service) {
		if author != "" {
			s.selfAuthor = author
		}
	}
}

// WithSource injects the record source. The replay tool and tests use this
// to feed canned records through the real pipeline.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithCheckpointStore sets the durable store for tracker checkpoints.
func WithCheckpointStore(st checkpoint.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.checkpointStore = st
		}
	}
}

// WithProvider sets the positioning provider for the tracker.
func WithProvider(p provider.Provider) Option {
	return func(s *Service) {
		if p != nil {
			s.provider = p
		}
	}
}

// WithFixOptions sets the cadence requested from the positioning provider.
func WithFixOptions(opts provider.Options) Option {
	return func(s *Service) { s.fixOptions = opts }
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
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    10000,
		dedupeSize:   50000,
		shardCount:   16,
		thresholdsKm: []int{5, 10, 21, 42},
		fetchTimeout: 3 * time.Second,
		recordKinds:  []int{1301},
		selfAuthor:   "local",
		fixOptions: provider.Options{
			MinInterval:       time.Second,
			MinDistanceMeters: 5,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components. A checkpointed
// session left by a crash is restored before anything else runs.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting activity service...")

	s.store = repository.NewShardedStore(
		repository.WithShardCount(s.shardCount),
	)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = recordqueue.NewInMemoryQueue(
		recordqueue.WithCapacity(s.queueSize),
		recordqueue.WithBufferSize(s.queueSize),
	)
	if s.source == nil {
		s.source = source.NewRelay(s.relays,
			source.WithTimeout(s.fetchTimeout),
		)
	}
	if s.checkpointStore == nil {
		s.checkpointStore = checkpoint.NewMemory()
	}
	if s.provider == nil {
		s.provider = provider.NewScripted(nil)
	}

	trackerOpts := []tracker.Option{
		tracker.WithProvider(s.provider),
		tracker.WithStore(s.checkpointStore),
		tracker.WithFixOptions(s.fixOptions),
	}
	s.tracker = tracker.New(trackerOpts...)

	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.store)
	s.workerPool.Start(ctx)

	restored, err := s.tracker.Restore(ctx)
	if err != nil {
		s.logger.Warn(ctx, "checkpoint restore failed, starting clean", logger.Error(err))
	} else if restored {
		live := s.tracker.CurrentSession()
		s.logger.Info(ctx, "restored in-progress session",
			logger.String("sessionID", live.ID),
			logger.Int64("durationSeconds", live.DurationSeconds),
		)
	}

	s.started = true
	s.logger.Info(ctx, "activity service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("relays", len(s.relays)),
	)

	return nil
}

// Stop gracefully shuts down the service. An in-progress tracking session is
// left checkpointed, not stopped, so it survives the restart the same way it
// survives a crash.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping activity service...")

	if s.workerPool != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_ = s.workerPool.Shutdown(shutdownCtx)
		cancel()
	}

	if closer, ok := s.store.(interface{ Close() }); ok {
		closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "activity service stopped")
}

// Refresh fetches records from the configured relays and feeds the new ones
// into the parse pipeline. Duplicates are counted and skipped; records that
// cannot be enqueued are released for a later retry.
func (s *Service) Refresh(ctx context.Context, since, until time.Time) (model.RefreshResult, error) {
	q := source.Query{
		Authors: s.authors,
		Kinds:   s.recordKinds,
		Since:   since,
		Until:   until,
	}

	records, err := s.source.Fetch(ctx, q)
	if err != nil {
		return model.RefreshResult{}, err
	}

	res := model.RefreshResult{Fetched: len(records)}
	for _, rec := range records {
		if s.deduper.SeenAndRecord(ctx, rec.ID) {
			res.Duplicates++
			metrics.RecordDuplicate()
			continue
		}
		if !s.queue.Enqueue(ctx, rec) {
			s.deduper.Unrecord(ctx, rec.ID)
			res.Dropped++
			continue
		}
		res.Enqueued++
	}

	s.logger.Info(ctx, "refresh completed",
		logger.Int("fetched", res.Fetched),
		logger.Int("duplicates", res.Duplicates),
		logger.Int("enqueued", res.Enqueued),
		logger.Int("dropped", res.Dropped),
	)
	return res, nil
}

// Leaderboard ranks the stored records of the given kind and window across
// every configured distance threshold.
func (s *Service) Leaderboard(ctx context.Context, kind string, since, until time.Time) (map[int][]model.LeaderboardEntry, error) {
	start := time.Now()

	records, err := s.store.ByWindow(ctx, kind, since, until)
	if err != nil {
		return nil, err
	}
	boards := rank.Rank(records, s.thresholdsKm)

	metrics.RecordLeaderboardBuild(float64(time.Since(start).Milliseconds()))
	return boards, nil
}

// Thresholds returns the configured leaderboard thresholds in kilometers.
func (s *Service) Thresholds() []int {
	out := make([]int, len(s.thresholdsKm))
	copy(out, s.thresholdsKm)
	return out
}

// StartTracking begins a new session of the given activity kind.
func (s *Service) StartTracking(ctx context.Context, kind string) (tracker.Mode, error) {
	return s.tracker.Start(ctx, kind)
}

// StartTimerOnly begins a session without positioning, the explicit fallback
// after a permission denial.
func (s *Service) StartTimerOnly(ctx context.Context, kind string) error {
	return s.tracker.StartTimerOnly(ctx, kind)
}

// PauseTracking pauses the active session.
func (s *Service) PauseTracking(ctx context.Context) error {
	return s.tracker.Pause(ctx)
}

// ResumeTracking resumes a paused session.
func (s *Service) ResumeTracking(ctx context.Context) error {
	return s.tracker.Resume(ctx)
}

// RestoreTracking rehydrates a checkpointed session, reporting whether one
// was found. Start already does this once; the method exists for callers
// that swap checkpoint stores at runtime.
func (s *Service) RestoreTracking(ctx context.Context) (bool, error) {
	return s.tracker.Restore(ctx)
}

// StopTracking finalizes the active session and stores it as a workout
// record attributed to the local author, making it rankable alongside
// fetched records.
func (s *Service) StopTracking(ctx context.Context) (*model.Session, error) {
	session := s.tracker.Stop(ctx)
	if session == nil {
		return nil, tracker.ErrNotTracking
	}

	rec := tracker.ToRecord(*session, s.selfAuthor)
	s.deduper.SeenAndRecord(ctx, rec.ID)
	if _, err := s.store.Add(ctx, rec); err != nil {
		s.logger.Error(ctx, "failed to store finished session",
			logger.String("sessionID", session.ID),
			logger.Error(err),
		)
		return session, err
	}
	return session, nil
}

// LiveSession returns a snapshot of the in-progress session, nil when idle,
// and the tracker state.
func (s *Service) LiveSession() (*model.Session, tracker.State) {
	return s.tracker.CurrentSession(), s.tracker.State()
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["storedRecords"] = s.store.Count(ctx)
		stats["trackerState"] = s.tracker.State().String()
		metrics.UpdateStoreRecords(s.store.Count(ctx))
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
