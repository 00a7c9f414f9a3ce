package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/metrics"
)

const defaultShardCount = 16

// ShardedStore is an in-memory Store sharded by record ID to keep lock
// contention low under concurrent parser workers. Windowed reads scan all
// shards; the record population of a personal tracker stays small enough
// that a scan plus sort is cheaper than maintaining an ordered index.
type ShardedStore struct {
	shards []*shard
	count  atomic.Int64

	shardCount            int
	metricsUpdateInterval time.Duration
	stopMetrics           chan struct{}
	stopOnce              sync.Once
}

type shard struct {
	mu      sync.RWMutex
	records map[string]model.WorkoutRecord
}

// NewShardedStore creates a sharded in-memory record store.
func NewShardedStore(opts ...Option) *ShardedStore {
	s := &ShardedStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: 5 * time.Second,
		stopMetrics:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]model.WorkoutRecord)}
	}

	go s.metricsLoop()
	return s
}

func (s *ShardedStore) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Add stores a record unless its ID is already present.
func (s *ShardedStore) Add(_ context.Context, rec model.WorkoutRecord) (bool, error) {
	sh := s.shardFor(rec.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.records[rec.ID]; ok {
		return false, nil
	}
	sh.records[rec.ID] = rec
	s.count.Add(1)
	return true, nil
}

// Get returns the record with the given ID.
func (s *ShardedStore) Get(_ context.Context, id string) (model.WorkoutRecord, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	rec, ok := sh.records[id]
	if !ok {
		return model.WorkoutRecord{}, ErrNotFound
	}
	return rec, nil
}

// ByWindow returns records matching the kind and time window, ordered by
// timestamp then ID.
func (s *ShardedStore) ByWindow(_ context.Context, kind string, since, until time.Time) ([]model.WorkoutRecord, error) {
	var out []model.WorkoutRecord
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, rec := range sh.records {
			if kind != "" && rec.Kind != kind {
				continue
			}
			if !since.IsZero() && rec.Timestamp.Before(since) {
				continue
			}
			if !until.IsZero() && rec.Timestamp.After(until) {
				continue
			}
			out = append(out, rec)
		}
		sh.mu.RUnlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Count returns the number of stored records.
func (s *ShardedStore) Count(_ context.Context) int {
	return int(s.count.Load())
}

// Close stops the background metrics updater.
func (s *ShardedStore) Close() {
	s.stopOnce.Do(func() { close(s.stopMetrics) })
}

func (s *ShardedStore) metricsLoop() {
	ticker := time.NewTicker(s.metricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopMetrics:
			return
		case <-ticker.C:
			metrics.UpdateStoreRecords(int(s.count.Load()))
		}
	}
}
