// Package repository defines the workout record store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/stride/internal/domain/model"
)

// Store provides read/write access to normalized workout records. Records are
// immutable once added; the store is the single source the leaderboard is
// derived from.
type Store interface {
	// Add stores a record if its ID is not already present.
	// Returns true when the record was added, false on a duplicate ID.
	Add(ctx context.Context, rec model.WorkoutRecord) (bool, error)

	// Get returns the record with the given ID.
	// Returns ErrNotFound if the ID is unknown.
	Get(ctx context.Context, id string) (model.WorkoutRecord, error)

	// ByWindow returns records of the given kind whose timestamps fall in
	// [since, until]. An empty kind matches all kinds; zero time bounds are
	// open on that side. Results are ordered by timestamp, then ID.
	ByWindow(ctx context.Context, kind string, since, until time.Time) ([]model.WorkoutRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int
}
