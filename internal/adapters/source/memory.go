package source

import (
	"context"
	"sync"

	"github.com/okian/stride/internal/domain/model"
)

// Memory is an in-process source backed by a fixed record slice. It exists
// for tests and for the replay tool, which feeds canned records through the
// same pipeline real fetches use.
type Memory struct {
	mu      sync.RWMutex
	records []model.RawRecord
}

// NewMemory creates a memory source seeded with the given records.
func NewMemory(records []model.RawRecord) *Memory {
	return &Memory{records: records}
}

// Add appends records to the source.
func (m *Memory) Add(records ...model.RawRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
}

// Fetch returns the seeded records matching the query filters.
func (m *Memory) Fetch(_ context.Context, q Query) ([]model.RawRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.RawRecord
	for _, rec := range m.records {
		if !matches(rec, q) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func matches(rec model.RawRecord, q Query) bool {
	if len(q.Authors) > 0 && !contains(q.Authors, rec.Author) {
		return false
	}
	if len(q.Kinds) > 0 && !containsInt(q.Kinds, rec.Kind) {
		return false
	}
	if !q.Since.IsZero() && rec.CreatedAt.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && rec.CreatedAt.After(q.Until) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}
