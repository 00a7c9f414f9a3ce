package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/stride/internal/adapters/checkpoint"
	"github.com/okian/stride/internal/adapters/provider"
	"github.com/okian/stride/internal/domain/model"
	"github.com/okian/stride/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	m.Run()
}

// fakeClock drives the hybrid duration logic deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// newTestTracker wires a tracker whose tick loop never fires on its own;
// tests drive tick() and handleFix() directly.
func newTestTracker(clock *fakeClock, opts ...Option) *Tracker {
	base := []Option{
		WithProvider(provider.NewScripted(nil)),
		WithStore(checkpoint.NewMemory()),
		WithClock(clock.Now),
		WithTickInterval(time.Hour),
		WithIDFunc(func() string { return "session-test" }),
	}
	return New(append(base, opts...)...)
}

func fix(clock *fakeClock, lat, lon float64) model.GeoPoint {
	return model.GeoPoint{Lat: lat, Lon: lon, Time: clock.Now()}
}

func TestStartOutcomes(t *testing.T) {
	ctx := context.Background()

	Convey("Given permission is denied", t, func() {
		clock := newFakeClock()
		tr := newTestTracker(clock, WithProvider(provider.NewScripted(nil, provider.WithPermissionDenied())))

		Convey("Start fails with the typed outcome and nothing starts", func() {
			mode, err := tr.Start(ctx, "run")
			So(errors.Is(err, ErrPermissionDenied), ShouldBeTrue)
			So(mode, ShouldEqual, ModeNone)
			So(tr.State(), ShouldEqual, StateIdle)

			Convey("And the caller can explicitly fall back to timer-only", func() {
				So(tr.StartTimerOnly(ctx, "run"), ShouldBeNil)
				So(tr.State(), ShouldEqual, StateTracking)

				tr.tick(ctx)
				tr.tick(ctx)
				s := tr.CurrentSession()
				So(s.DurationSeconds, ShouldEqual, 2)
				So(s.DistanceMeters, ShouldEqual, 0)
				tr.Stop(ctx)
			})
		})
	})

	Convey("Given the stream fails to open", t, func() {
		clock := newFakeClock()
		tr := newTestTracker(clock, WithProvider(provider.NewScripted(nil, provider.WithStartFailure())))

		Convey("Start succeeds but downgrades to timer-only", func() {
			mode, err := tr.Start(ctx, "run")
			So(err, ShouldBeNil)
			So(mode, ShouldEqual, ModeTimerOnly)
			tr.Stop(ctx)
		})
	})

	Convey("Given a session is already active", t, func() {
		clock := newFakeClock()
		tr := newTestTracker(clock)
		_, err := tr.Start(ctx, "run")
		So(err, ShouldBeNil)

		Convey("A second Start is rejected", func() {
			_, err := tr.Start(ctx, "run")
			So(errors.Is(err, ErrAlreadyTracking), ShouldBeTrue)
			tr.Stop(ctx)
		})
	})
}

func TestStreamOutlivesStartCall(t *testing.T) {
	Convey("Given a session started with a short-lived caller context", t, func() {
		clock := newFakeClock()
		base := clock.Now()
		trace := []model.GeoPoint{
			{Lat: 52.0, Lon: 4.0, Time: base.Add(1 * time.Second)},
			{Lat: 52.0005, Lon: 4.0, Time: base.Add(2 * time.Second)},
			{Lat: 52.001, Lon: 4.0, Time: base.Add(3 * time.Second)},
		}
		tr := newTestTracker(clock,
			WithProvider(provider.NewScripted(trace, provider.WithInterval(5*time.Millisecond))))

		ctx, cancel := context.WithCancel(context.Background())
		mode, err := tr.Start(ctx, "run")
		So(err, ShouldBeNil)
		So(mode, ShouldEqual, ModeGPS)

		// The "request" that started the session ends here.
		cancel()

		Convey("Fixes keep arriving after the caller context is cancelled", func() {
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				if s := tr.CurrentSession(); s != nil && len(s.Points) == len(trace) {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}

			s := tr.CurrentSession()
			So(s, ShouldNotBeNil)
			So(s.Points, ShouldHaveLength, len(trace))
			So(tr.State(), ShouldEqual, StateTracking)
			tr.Stop(context.Background())
		})
	})
}

func TestHybridDuration(t *testing.T) {
	ctx := context.Background()

	Convey("Given a GPS session", t, func() {
		clock := newFakeClock()
		tr := newTestTracker(clock)
		mode, err := tr.Start(ctx, "run")
		So(err, ShouldBeNil)
		So(mode, ShouldEqual, ModeGPS)

		Convey("Duration is non-decreasing tick over tick", func() {
			last := int64(-1)
			for i := 0; i < 10; i++ {
				tr.tick(ctx)
				d := tr.CurrentSession().DurationSeconds
				So(d, ShouldBeGreaterThanOrEqualTo, last)
				last = d
			}
			So(last, ShouldEqual, 10)
		})

		Convey("A late-arriving fix pulls the tick counter forward", func() {
			// Only 3 ticks fired, but the fix says 30 s elapsed.
			tr.tick(ctx)
			tr.tick(ctx)
			tr.tick(ctx)
			clock.Advance(30 * time.Second)
			tr.handleFix(ctx, fix(clock, 52.0, 13.0))

			So(tr.CurrentSession().DurationSeconds, ShouldEqual, 30)
		})

		Convey("The tick counter keeps moving when fixes stop", func() {
			clock.Advance(5 * time.Second)
			tr.handleFix(ctx, fix(clock, 52.0, 13.0))
			So(tr.CurrentSession().DurationSeconds, ShouldEqual, 5)

			// Signal loss: no more fixes, ticks continue.
			for i := 0; i < 20; i++ {
				tr.tick(ctx)
			}
			So(tr.CurrentSession().DurationSeconds, ShouldEqual, 25)
		})

		Convey("Out-of-order fixes are dropped", func() {
			clock.Advance(10 * time.Second)
			tr.handleFix(ctx, fix(clock, 52.0, 13.0))
			stale := model.GeoPoint{Lat: 52.1, Lon: 13.1, Time: clock.Now().Add(-5 * time.Second)}
			tr.handleFix(ctx, stale)

			So(tr.CurrentSession().Points, ShouldHaveLength, 1)
		})

		tr.Stop(ctx)
	})
}

func TestPauseResume(t *testing.T) {
	ctx := context.Background()

	Convey("Given a tracking session", t, func() {
		clock := newFakeClock()
		tr := newTestTracker(clock)
		_, err := tr.Start(ctx, "run")
		So(err, ShouldBeNil)

		Convey("Pause freezes the tick counter", func() {
			tr.tick(ctx)
			So(tr.Pause(ctx), ShouldBeNil)
			tr.tick(ctx)
			tr.tick(ctx)
			So(tr.CurrentSession().DurationSeconds, ShouldEqual, 1)
		})

		Convey("Paused total includes the in-progress span", func() {
			So(tr.Pause(ctx), ShouldBeNil)
			clock.Advance(7 * time.Second)
			So(tr.CurrentSession().PausedSeconds, ShouldEqual, 7)
		})

		Convey("Multiple pause spans accumulate", func() {
			So(tr.Pause(ctx), ShouldBeNil)
			clock.Advance(5 * time.Second)
			So(tr.Resume(ctx), ShouldBeNil)

			So(tr.Pause(ctx), ShouldBeNil)
			clock.Advance(7 * time.Second)
			So(tr.Resume(ctx), ShouldBeNil)

			s := tr.CurrentSession()
			So(s.PausedSeconds, ShouldEqual, 12)
			So(s.PauseCount, ShouldEqual, 2)
		})

		Convey("Resume without pause is rejected", func() {
			So(errors.Is(tr.Resume(ctx), ErrNotPaused), ShouldBeTrue)
		})

		Convey("Pause while paused is rejected", func() {
			So(tr.Pause(ctx), ShouldBeNil)
			So(errors.Is(tr.Pause(ctx), ErrNotTracking), ShouldBeTrue)
		})

		tr.Stop(ctx)
	})
}

func TestStop(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session with movement", t, func() {
		clock := newFakeClock()
		tr := newTestTracker(clock)
		_, err := tr.Start(ctx, "run")
		So(err, ShouldBeNil)

		clock.Advance(time.Second)
		tr.handleFix(ctx, fix(clock, 52.0, 13.0))
		clock.Advance(time.Second)
		tr.handleFix(ctx, fix(clock, 52.001, 13.0))

		Convey("Stop returns the immutable session", func() {
			s := tr.Stop(ctx)
			So(s, ShouldNotBeNil)
			So(s.ID, ShouldEqual, "session-test")
			So(s.DistanceMeters, ShouldBeGreaterThan, 100)
			So(s.End.IsZero(), ShouldBeFalse)
			So(tr.State(), ShouldEqual, StateIdle)

			Convey("A second Stop returns nil", func() {
				So(tr.Stop(ctx), ShouldBeNil)
			})

			Convey("And the checkpoint is cleared", func() {
				restored, err := tr.Restore(ctx)
				So(err, ShouldBeNil)
				So(restored, ShouldBeFalse)
			})
		})
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a checkpointed session interrupted mid-run", t, func() {
		clock := newFakeClock()
		store := checkpoint.NewMemory()

		first := newTestTracker(clock, WithStore(store))
		_, err := first.Start(ctx, "run")
		So(err, ShouldBeNil)
		for i := 0; i < 5; i++ {
			first.tick(ctx)
		}
		clock.Advance(5 * time.Second)
		first.handleFix(ctx, fix(clock, 52.0, 13.0))
		// Process dies here: no Stop, the checkpoint stays in the store.

		Convey("A fresh tracker rehydrates every counter exactly", func() {
			second := newTestTracker(clock, WithStore(store))
			restored, err := second.Restore(ctx)
			So(err, ShouldBeNil)
			So(restored, ShouldBeTrue)
			So(second.State(), ShouldEqual, StateTracking)

			s := second.CurrentSession()
			So(s.ID, ShouldEqual, "session-test")
			So(s.DurationSeconds, ShouldEqual, 5)
			So(s.Points, ShouldHaveLength, 1)

			Convey("And the tick counter continues, not restarts", func() {
				second.tick(ctx)
				So(second.CurrentSession().DurationSeconds, ShouldEqual, 6)
				second.Stop(ctx)
			})
		})

		Convey("A paused session restores paused", func() {
			So(first.Pause(ctx), ShouldBeNil)

			second := newTestTracker(clock, WithStore(store))
			restored, err := second.Restore(ctx)
			So(err, ShouldBeNil)
			So(restored, ShouldBeTrue)
			So(second.State(), ShouldEqual, StatePaused)
			second.Stop(ctx)
		})
	})

	Convey("Given an empty store", t, func() {
		clock := newFakeClock()
		tr := newTestTracker(clock)

		Convey("Restore reports no checkpoint without error", func() {
			restored, err := tr.Restore(ctx)
			So(err, ShouldBeNil)
			So(restored, ShouldBeFalse)
		})
	})
}

func TestToRecord(t *testing.T) {
	Convey("Given a completed session with points", t, func() {
		start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		// Each 0.009 degrees of latitude is slightly over one kilometer.
		points := make([]model.GeoPoint, 4)
		for i := range points {
			points[i] = model.GeoPoint{
				Lat:      52.0 + float64(i)*0.009,
				Lon:      13.0,
				Altitude: 100 + float64(i*10),
				Time:     start.Add(time.Duration(i) * 10 * time.Minute),
			}
		}
		session := model.Session{
			ID:              "s1",
			Kind:            "run",
			Start:           start,
			End:             start.Add(30 * time.Minute),
			DistanceMeters:  3002,
			DurationSeconds: 1800,
			Points:          points,
		}

		Convey("Conversion derives kilometer splits from the point sequence", func() {
			rec := ToRecord(session, "npub-me")
			So(rec.ID, ShouldEqual, "s1")
			So(rec.Author, ShouldEqual, "npub-me")
			So(rec.Kind, ShouldEqual, "run")
			So(rec.Splits, ShouldHaveLength, 3)
			So(rec.Splits[0].MarkerKm, ShouldEqual, 1)
			So(rec.Splits[0].Seconds, ShouldEqual, 600)
			So(rec.Splits[2].MarkerKm, ShouldEqual, 3)
			So(rec.Splits[2].Seconds, ShouldEqual, 1800)
		})

		Convey("Elevation gain accumulates from altitude deltas", func() {
			rec := ToRecord(session, "npub-me")
			So(rec.ElevationGainMeters, ShouldEqual, 30)
			So(rec.ElevationLossMeters, ShouldEqual, 0)
		})

		Convey("A session without points yields no splits", func() {
			session.Points = nil
			rec := ToRecord(session, "npub-me")
			So(rec.Splits, ShouldBeEmpty)
			So(rec.DurationSeconds, ShouldEqual, 1800)
		})
	})
}
