// Package provider defines the positioning feed contract consumed by the
// tracker, plus a scripted implementation for tests and replays.
package provider

import (
	"context"
	"time"

	"github.com/okian/stride/internal/domain/model"
)

// Options configures the fix cadence requested from a provider.
type Options struct {
	// MinInterval is the minimum time between fixes.
	MinInterval time.Duration
	// MinDistanceMeters is the minimum movement between fixes.
	MinDistanceMeters float64
}

// Provider is a source of positioning fixes. Permission denial and stream
// start failure are distinct conditions; the tracker degrades on both rather
// than crashing.
type Provider interface {
	// Permission reports whether positioning may be used at all.
	// Returns ErrPermissionDenied when the grant is refused.
	Permission(ctx context.Context) error

	// Start begins the fix stream. The channel is closed when the stream
	// ends or Stop is called.
	Start(ctx context.Context, opts Options) (<-chan model.GeoPoint, error)

	// Stop ends the stream. Safe to call more than once.
	Stop()
}
