// Package source fetches raw activity records from remote relays. Fetches are
// best effort: a relay that times out or answers garbage is skipped, never
// retried, and the records from the relays that did answer are returned.
package source

import (
	"context"
	"time"

	"github.com/okian/stride/internal/domain/model"
)

// Query filters the records a fetch asks the relays for. Zero time bounds
// mean unbounded on that side.
type Query struct {
	Authors []string  `json:"authors,omitempty"`
	Kinds   []int     `json:"kinds,omitempty"`
	Since   time.Time `json:"since,omitempty"`
	Until   time.Time `json:"until,omitempty"`
}

// Source is implemented by anything that can serve raw records for a query.
type Source interface {
	Fetch(ctx context.Context, q Query) ([]model.RawRecord, error)
}
