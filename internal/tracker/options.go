package tracker

import (
	"time"

	"github.com/okian/stride/internal/adapters/checkpoint"
	"github.com/okian/stride/internal/adapters/provider"
	"github.com/okian/stride/pkg/logger"
)

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithProvider sets the positioning provider.
func WithProvider(p provider.Provider) Option {
	return func(t *Tracker) {
		if p != nil {
			t.provider = p
		}
	}
}

// WithStore sets the durable checkpoint store.
func WithStore(s checkpoint.Store) Option {
	return func(t *Tracker) {
		if s != nil {
			t.store = s
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// WithClock injects the time source. Tests use this to drive the hybrid
// duration logic deterministically.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithTickInterval sets the wall-clock tick period. The reported duration
// counts ticks, so anything other than one second changes what a "second"
// means; only tests should touch this.
func WithTickInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.tickInterval = d
		}
	}
}

// WithFixOptions sets the cadence requested from the positioning provider.
func WithFixOptions(opts provider.Options) Option {
	return func(t *Tracker) { t.fixOptions = opts }
}

// WithCheckpointKey sets the storage key under which state is checkpointed.
func WithCheckpointKey(key string) Option {
	return func(t *Tracker) {
		if key != "" {
			t.key = key
		}
	}
}

// WithIDFunc injects the session ID generator.
func WithIDFunc(fn func() string) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.newID = fn
		}
	}
}
