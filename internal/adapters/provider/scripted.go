package provider

import (
	"context"
	"sync"
	"time"

	"github.com/okian/stride/internal/domain/model"
)

// Scripted replays a fixed trace of fixes, one per interval. It stands in
// for a real GPS source in tests and in the replay tool.
type Scripted struct {
	mu       sync.Mutex
	trace    []model.GeoPoint
	interval time.Duration
	denied   bool
	failOpen bool
	cancel   context.CancelFunc
}

// ScriptedOption configures a Scripted provider.
type ScriptedOption func(*Scripted)

// WithInterval sets the delay between replayed fixes. Zero replays the whole
// trace immediately, which is what most tests want.
func WithInterval(d time.Duration) ScriptedOption {
	return func(s *Scripted) { s.interval = d }
}

// WithPermissionDenied makes Permission fail, simulating a refused grant.
func WithPermissionDenied() ScriptedOption {
	return func(s *Scripted) { s.denied = true }
}

// WithStartFailure makes Start fail, simulating a provider that grants
// permission but cannot open its stream.
func WithStartFailure() ScriptedOption {
	return func(s *Scripted) { s.failOpen = true }
}

// NewScripted creates a provider that replays trace.
func NewScripted(trace []model.GeoPoint, opts ...ScriptedOption) *Scripted {
	s := &Scripted{trace: trace}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Permission reports the scripted grant decision.
func (s *Scripted) Permission(_ context.Context) error {
	if s.denied {
		return ErrPermissionDenied
	}
	return nil
}

// Start replays the trace on its own goroutine.
func (s *Scripted) Start(ctx context.Context, _ Options) (<-chan model.GeoPoint, error) {
	if s.failOpen {
		return nil, ErrStreamStart
	}

	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	out := make(chan model.GeoPoint)
	go func() {
		defer close(out)
		for _, pt := range s.trace {
			if s.interval > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(s.interval):
				}
			}
			select {
			case out <- pt:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Stop cancels an in-flight replay.
func (s *Scripted) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
