package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	worker "github.com/okian/stride/internal/adapters/mq/worker"
	model "github.com/okian/stride/internal/domain/model"
	logging "github.com/okian/stride/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	recChan    chan worker.Record
	closeError error
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		recChan: make(chan worker.Record, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan worker.Record {
	return mq.recChan
}

func (mq *mockQueue) Close() error {
	close(mq.recChan)
	return mq.closeError
}

func (mq *mockQueue) addRecord(rec worker.Record) {
	mq.recChan <- rec
}

type mockSink struct {
	records map[string]model.WorkoutRecord
	errors  map[string]error
	mu      sync.RWMutex
}

func newMockSink() *mockSink {
	return &mockSink{
		records: make(map[string]model.WorkoutRecord),
		errors:  make(map[string]error),
	}
}

func (ms *mockSink) Add(ctx context.Context, rec model.WorkoutRecord) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err, exists := ms.errors[rec.ID]; exists {
		return false, err
	}
	if _, exists := ms.records[rec.ID]; exists {
		return false, nil
	}
	ms.records[rec.ID] = rec
	return true, nil
}

func (ms *mockSink) setError(id string, err error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.errors[id] = err
}

func (ms *mockSink) get(id string) (model.WorkoutRecord, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	rec, exists := ms.records[id]
	return rec, exists
}

// validRecord carries enough tags to parse into a workout record.
func validRecord(id string) worker.Record {
	return model.RawRecord{
		ID:     id,
		Author: "npub-author",
		Kind:   1301,
		Tags: [][]string{
			{"exercise", "running"},
			{"distance", "5", "km"},
			{"duration", "00:25:00"},
		},
		CreatedAt: time.Now(),
	}
}

// junkRecord has no recognizable activity kind and must be rejected.
func junkRecord(id string) worker.Record {
	return model.RawRecord{
		ID:        id,
		Author:    "npub-author",
		Kind:      1301,
		Tags:      [][]string{{"mood", "great"}},
		Content:   "what a day",
		CreatedAt: time.Now(),
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		_ = logging.Init()

		queue := newMockQueue()
		sink := newMockSink()

		convey.Convey("When creating a worker with default options", func() {
			w := worker.NewInMemoryWorker(queue, sink)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(w, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When running a worker", func() {
			w := worker.NewInMemoryWorker(queue, sink, worker.WithName("test-worker"))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			go w.Run(ctx)
			time.Sleep(10 * time.Millisecond)

			convey.Convey("And when processing a parseable record", func() {
				queue.addRecord(validRecord("rec-1"))
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then the parsed record lands in the sink", func() {
					rec, stored := sink.get("rec-1")
					convey.So(stored, convey.ShouldBeTrue)
					convey.So(rec.Kind, convey.ShouldEqual, "run")
					convey.So(rec.DistanceMeters, convey.ShouldEqual, 5000)
					convey.So(rec.DurationSeconds, convey.ShouldEqual, 1500)
				})
			})

			convey.Convey("And when processing an unparseable record", func() {
				queue.addRecord(junkRecord("rec-2"))
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then nothing is stored and the worker keeps going", func() {
					_, stored := sink.get("rec-2")
					convey.So(stored, convey.ShouldBeFalse)

					queue.addRecord(validRecord("rec-3"))
					time.Sleep(50 * time.Millisecond)
					_, stored = sink.get("rec-3")
					convey.So(stored, convey.ShouldBeTrue)
				})
			})

			convey.Convey("And when the sink fails", func() {
				sink.setError("rec-4", errors.New("store error"))
				queue.addRecord(validRecord("rec-4"))
				time.Sleep(50 * time.Millisecond)

				convey.Convey("Then the record is not stored", func() {
					_, stored := sink.get("rec-4")
					convey.So(stored, convey.ShouldBeFalse)
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()

				err := w.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a new WorkerPool", t, func() {
		_ = logging.Init()

		queue := newMockQueue()
		sink := newMockSink()

		convey.Convey("When creating a worker pool with default count", func() {
			pool := worker.NewPool(0, queue, sink)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(pool, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When starting a worker pool", func() {
			pool := worker.NewPool(2, queue, sink)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			pool.Start(ctx)
			time.Sleep(20 * time.Millisecond)

			convey.Convey("And when processing multiple records", func() {
				for i := 1; i <= 3; i++ {
					queue.addRecord(validRecord(fmt.Sprintf("rec-%d", i)))
				}
				time.Sleep(100 * time.Millisecond)

				convey.Convey("Then all records should be processed", func() {
					for i := 1; i <= 3; i++ {
						_, stored := sink.get(fmt.Sprintf("rec-%d", i))
						convey.So(stored, convey.ShouldBeTrue)
					}
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
				defer shutdownCancel()

				err := pool.Shutdown(shutdownCtx)

				convey.Convey("Then it should shutdown gracefully", func() {
					convey.So(err, convey.ShouldBeNil)
				})
			})
		})
	})
}

func TestWorkerConcurrency(t *testing.T) {
	convey.Convey("Given a worker pool with multiple workers", t, func() {
		_ = logging.Init()

		queue := newMockQueue()
		sink := newMockSink()

		pool := worker.NewPool(4, queue, sink)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pool.Start(ctx)
		time.Sleep(20 * time.Millisecond)

		convey.Convey("When processing many concurrent records", func() {
			const recordCount = 100
			var wg sync.WaitGroup

			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func(producerID int) {
					defer wg.Done()
					for j := 0; j < recordCount/5; j++ {
						queue.addRecord(validRecord(fmt.Sprintf("rec-%d-%d", producerID, j)))
					}
				}(i)
			}
			wg.Wait()
			time.Sleep(200 * time.Millisecond)

			convey.Convey("Then all records should be processed", func() {
				processedCount := 0
				for i := 0; i < 5; i++ {
					for j := 0; j < recordCount/5; j++ {
						if _, stored := sink.get(fmt.Sprintf("rec-%d-%d", i, j)); stored {
							processedCount++
						}
					}
				}
				convey.So(processedCount, convey.ShouldEqual, recordCount)
			})
		})
	})
}

func TestWorkerQueueClosure(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		_ = logging.Init()

		queue := newMockQueue()
		sink := newMockSink()

		w := worker.NewInMemoryWorker(queue, sink)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go w.Run(ctx)
		time.Sleep(10 * time.Millisecond)

		convey.Convey("When the queue channel is closed", func() {
			queue.addRecord(validRecord("rec-last"))
			_ = queue.Close()
			time.Sleep(50 * time.Millisecond)

			convey.Convey("Then buffered records still drain before the worker stops", func() {
				_, stored := sink.get("rec-last")
				convey.So(stored, convey.ShouldBeTrue)

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer shutdownCancel()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}
