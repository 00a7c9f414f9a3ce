// Package tracker implements the session-tracking state machine.
//
// A Tracker reconciles two asynchronous producers, the 1 Hz wall-clock tick
// and the positioning feed, into one trustworthy duration and distance per
// session. Both producers funnel through a single mutex; the read path only
// takes snapshots. State is checkpointed on every state-changing operation so
// a relaunched process can resume mid-session.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/stride/internal/adapters/checkpoint"
	"github.com/okian/stride/internal/adapters/provider"
	"github.com/okian/stride/internal/domain/geo"
	"github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/logger"
	"github.com/okian/stride/pkg/metrics"
)

// Default tracker configuration constants.
const (
	defaultTickInterval   = time.Second
	defaultCheckpointKey  = "tracker/active"
	defaultMinFixInterval = time.Second
	defaultMinFixDistance = 5.0
)

// Mode says how a session measures itself.
type Mode int

const (
	// ModeNone means no session was started.
	ModeNone Mode = iota
	// ModeGPS tracks duration and distance from the positioning feed.
	ModeGPS
	// ModeTimerOnly tracks duration only; distance stays at zero. This is
	// the explicit degraded mode entered on permission denial (by caller
	// request) or stream start failure (automatically).
	ModeTimerOnly
)

func (m Mode) String() string {
	switch m {
	case ModeGPS:
		return "gps"
	case ModeTimerOnly:
		return "timer_only"
	default:
		return "none"
	}
}

// State is the tracker lifecycle state.
type State int

const (
	// StateIdle means no session is active.
	StateIdle State = iota
	// StateTracking means a session is running and counters advance.
	StateTracking
	// StatePaused means a session is frozen mid-run.
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateTracking:
		return "tracking"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// Tracker is one explicit session object owned by the caller. It is safe for
// concurrent use; create a fresh Tracker per independent session.
type Tracker struct {
	mu sync.Mutex

	provider     provider.Provider
	store        checkpoint.Store
	log          logger.Logger
	now          func() time.Time
	newID        func() string
	tickInterval time.Duration
	fixOptions   provider.Options
	key          string

	state       State
	mode        Mode
	sessionID   string
	kind        string
	start       time.Time
	points      []model.GeoPoint
	tickSeconds int64
	pausedTotal time.Duration
	pauseStart  time.Time
	pauseCount  int
	lastFix     time.Time

	loopCancel context.CancelFunc
}

// New constructs a Tracker. A provider and store must be supplied through
// options before Start is called; the zero defaults are test fakes.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		store:        checkpoint.NewMemory(),
		now:          time.Now,
		newID:        uuid.NewString,
		tickInterval: defaultTickInterval,
		key:          defaultCheckpointKey,
		fixOptions: provider.Options{
			MinInterval:       defaultMinFixInterval,
			MinDistanceMeters: defaultMinFixDistance,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = logger.Get().Named("tracker")
	}
	return t
}

// Start begins a GPS-tracked session. Permission denial returns
// ErrPermissionDenied without starting anything; the caller decides whether
// to fall back to StartTimerOnly. A provider whose stream fails to open is
// non-fatal: the session starts in ModeTimerOnly and the returned Mode says
// so.
func (t *Tracker) Start(ctx context.Context, kind string) (Mode, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateIdle {
		return ModeNone, ErrAlreadyTracking
	}
	if t.provider == nil {
		return ModeNone, ErrPermissionDenied
	}
	if err := t.provider.Permission(ctx); err != nil {
		return ModeNone, ErrPermissionDenied
	}

	t.beginLocked(kind, ModeGPS)
	sessionCtx := t.startLoopsLocked()

	// The stream must outlive this call, so it is bound to the session
	// context, not the caller's; Stop cancels it.
	ch, err := t.provider.Start(sessionCtx, t.fixOptions)
	if err != nil {
		// Distinct from denial: downgrade instead of failing the session.
		t.mode = ModeTimerOnly
		t.log.Warn(ctx, "positioning stream failed to start; continuing timer-only",
			logger.String("session", t.sessionID), logger.Error(err))
	} else {
		go t.consumeFixes(ch)
	}

	t.writeCheckpointLocked(ctx)
	metrics.RecordSessionStarted()
	metrics.UpdateSessionsActive(1)
	t.log.Info(ctx, "session started",
		logger.String("session", t.sessionID),
		logger.String("kind", kind),
		logger.Int("mode", int(t.mode)))
	return t.mode, nil
}

// StartTimerOnly begins a degraded session where duration is tracked but
// distance stays at zero. This is the explicit fallback after a permission
// denial, never a silent one.
func (t *Tracker) StartTimerOnly(ctx context.Context, kind string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateIdle {
		return ErrAlreadyTracking
	}
	t.beginLocked(kind, ModeTimerOnly)
	t.startLoopsLocked()
	t.writeCheckpointLocked(ctx)
	metrics.RecordSessionStarted()
	metrics.UpdateSessionsActive(1)
	t.log.Info(ctx, "timer-only session started",
		logger.String("session", t.sessionID), logger.String("kind", kind))
	return nil
}

// beginLocked resets per-session state. Caller holds the lock.
func (t *Tracker) beginLocked(kind string, mode Mode) {
	t.state = StateTracking
	t.mode = mode
	t.sessionID = t.newID()
	t.kind = kind
	t.start = t.now()
	t.points = nil
	t.tickSeconds = 0
	t.pausedTotal = 0
	t.pauseStart = time.Time{}
	t.pauseCount = 0
	t.lastFix = time.Time{}
}

// startLoopsLocked launches the wall-clock tick loop and returns the
// session-lifetime context, cancelled by Stop. Caller holds the lock.
func (t *Tracker) startLoopsLocked() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.loopCancel = cancel
	go t.runTicker(ctx)
	return ctx
}

func (t *Tracker) runTicker(ctx context.Context) {
	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

// tick advances the wall-clock counter by one second. The counter only moves
// while tracking; pausing freezes it.
func (t *Tracker) tick(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateTracking {
		return
	}
	t.tickSeconds++
	t.writeCheckpointLocked(ctx)
}

func (t *Tracker) consumeFixes(ch <-chan model.GeoPoint) {
	for pt := range ch {
		t.handleFix(context.Background(), pt)
	}
}

// handleFix folds one positioning fix into the session. Fixes are dropped
// while paused or idle and when they would break timestamp ordering, which
// keeps the point buffer non-decreasing by construction.
func (t *Tracker) handleFix(ctx context.Context, pt model.GeoPoint) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateTracking || t.mode != ModeGPS {
		metrics.RecordFixDropped()
		return
	}
	if pt.Time.Before(t.start) || (!t.lastFix.IsZero() && !pt.Time.After(t.lastFix)) {
		metrics.RecordFixDropped()
		return
	}

	t.points = append(t.points, pt)
	t.lastFix = pt.Time
	metrics.RecordFixAccepted()

	// Synchronize the tick counter up to the fix-derived duration so the two
	// sources cannot drift apart under good signal.
	if fd := t.fixDerivedSecondsLocked(); fd > t.tickSeconds {
		t.tickSeconds = fd
	}

	t.writeCheckpointLocked(ctx)
}

// fixDerivedSecondsLocked is (latest fix - start - total paused) in whole
// seconds, or 0 before the first fix. Caller holds the lock.
func (t *Tracker) fixDerivedSecondsLocked() int64 {
	if t.lastFix.IsZero() {
		return 0
	}
	d := t.lastFix.Sub(t.start) - t.pausedLocked()
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// pausedLocked is cumulative paused time plus the in-progress pause span.
func (t *Tracker) pausedLocked() time.Duration {
	total := t.pausedTotal
	if t.state == StatePaused && !t.pauseStart.IsZero() {
		total += t.now().Sub(t.pauseStart)
	}
	return total
}

// durationLocked reports max(tick counter, fix-derived duration): the tick
// counter keeps moving when fixes stop arriving, the fix-derived value pulls
// ahead after catching up from a gap.
func (t *Tracker) durationLocked() int64 {
	d := t.tickSeconds
	if fd := t.fixDerivedSecondsLocked(); fd > d {
		d = fd
	}
	return d
}

// Pause freezes the tick counter and records the pause-start instant.
func (t *Tracker) Pause(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateTracking {
		return ErrNotTracking
	}
	t.state = StatePaused
	t.pauseStart = t.now()
	t.pauseCount++
	t.writeCheckpointLocked(ctx)
	t.log.Info(ctx, "session paused", logger.String("session", t.sessionID))
	return nil
}

// Resume folds the elapsed pause span into cumulative paused time and
// unfreezes the tick counter.
func (t *Tracker) Resume(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StatePaused {
		return ErrNotPaused
	}
	t.pausedTotal += t.now().Sub(t.pauseStart)
	t.pauseStart = time.Time{}
	t.state = StateTracking
	t.writeCheckpointLocked(ctx)
	t.log.Info(ctx, "session resumed", logger.String("session", t.sessionID))
	return nil
}

// Stop ends the session and returns the immutable Session. The final
// distance is a full recomputation over the point buffer. Returns nil when no
// session is active.
func (t *Tracker) Stop(ctx context.Context) *model.Session {
	t.mu.Lock()
	if t.state == StateIdle {
		t.mu.Unlock()
		return nil
	}

	// Fold an in-progress pause so paused time includes it.
	if t.state == StatePaused && !t.pauseStart.IsZero() {
		t.pausedTotal += t.now().Sub(t.pauseStart)
		t.pauseStart = time.Time{}
	}

	session := &model.Session{
		ID:              t.sessionID,
		Kind:            t.kind,
		Start:           t.start,
		End:             t.now(),
		DistanceMeters:  geo.TotalDistance(t.points),
		DurationSeconds: t.durationSecondsStoppedLocked(),
		PausedSeconds:   int64(t.pausedTotal / time.Second),
		PauseCount:      t.pauseCount,
		Points:          t.points,
	}

	cancel := t.loopCancel
	t.loopCancel = nil
	t.state = StateIdle
	t.points = nil

	if err := t.store.Delete(ctx, t.key); err != nil {
		t.log.Warn(ctx, "checkpoint delete failed", logger.Error(err))
	}
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if t.provider != nil {
		t.provider.Stop()
	}

	metrics.UpdateSessionsActive(0)
	t.log.Info(ctx, "session stopped",
		logger.String("session", session.ID),
		logger.Float64("distance_m", session.DistanceMeters),
		logger.Int64("duration_s", session.DurationSeconds))
	return session
}

// durationSecondsStoppedLocked is durationLocked with the paused state
// already folded, used once at stop time.
func (t *Tracker) durationSecondsStoppedLocked() int64 {
	d := t.tickSeconds
	if !t.lastFix.IsZero() {
		if fd := int64((t.lastFix.Sub(t.start) - t.pausedTotal) / time.Second); fd > d {
			d = fd
		}
	}
	return d
}

// CurrentSession returns a non-blocking snapshot for live polling. Distance
// is recomputed from the in-memory buffer; no I/O happens on this path.
func (t *Tracker) CurrentSession() *model.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateIdle {
		return nil
	}
	points := make([]model.GeoPoint, len(t.points))
	copy(points, t.points)
	return &model.Session{
		ID:              t.sessionID,
		Kind:            t.kind,
		Start:           t.start,
		DistanceMeters:  geo.TotalDistance(points),
		DurationSeconds: t.durationLocked(),
		PausedSeconds:   int64(t.pausedLocked() / time.Second),
		PauseCount:      t.pauseCount,
		Points:          points,
	}
}

// State reports the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Restore rehydrates a checkpointed session after process relaunch. Every
// counter continues from its checkpointed value; the tick timer restarts
// without resetting elapsed time. Returns false when no checkpoint exists.
func (t *Tracker) Restore(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateIdle {
		return false, ErrAlreadyTracking
	}

	data, ok, err := t.store.Get(ctx, t.key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	cp, err := decodeCheckpoint(data)
	if err != nil {
		return false, err
	}

	t.sessionID = cp.SessionID
	t.kind = cp.Kind
	t.mode = cp.Mode
	t.start = cp.Start
	t.tickSeconds = cp.TickSeconds
	t.pausedTotal = time.Duration(cp.PausedMS) * time.Millisecond
	t.pauseStart = cp.PauseStart
	t.pauseCount = cp.PauseCount
	t.lastFix = cp.LastFix
	t.points = cp.Points

	t.state = StateTracking
	if !cp.PauseStart.IsZero() {
		t.state = StatePaused
	}

	sessionCtx := t.startLoopsLocked()
	if t.mode == ModeGPS && t.provider != nil {
		if ch, err := t.provider.Start(sessionCtx, t.fixOptions); err != nil {
			t.mode = ModeTimerOnly
			t.log.Warn(ctx, "positioning stream failed on restore; continuing timer-only",
				logger.String("session", t.sessionID), logger.Error(err))
		} else {
			go t.consumeFixes(ch)
		}
	}
	metrics.UpdateSessionsActive(1)
	t.log.Info(ctx, "session restored",
		logger.String("session", t.sessionID),
		logger.Int64("tick_seconds", t.tickSeconds),
		logger.Int("points", len(t.points)))
	return true, nil
}

// writeCheckpointLocked persists the full tracker state. Failures are logged
// and otherwise ignored: a failed checkpoint must never abort a session.
func (t *Tracker) writeCheckpointLocked(ctx context.Context) {
	data, err := encodeCheckpoint(Checkpoint{
		SessionID:   t.sessionID,
		Kind:        t.kind,
		Mode:        t.mode,
		Start:       t.start,
		TickSeconds: t.tickSeconds,
		PausedMS:    t.pausedTotal.Milliseconds(),
		PauseStart:  t.pauseStart,
		PauseCount:  t.pauseCount,
		LastFix:     t.lastFix,
		Points:      t.points,
	})
	if err == nil {
		err = t.store.Put(ctx, t.key, data)
	}
	if err != nil {
		metrics.RecordCheckpointFailure()
		t.log.Warn(ctx, "checkpoint write failed", logger.Error(err))
		return
	}
	metrics.RecordCheckpointWrite()
}

// IsPermissionDenied reports whether err is the permission-denied outcome,
// from either this package or the provider.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied) || errors.Is(err, provider.ErrPermissionDenied)
}
