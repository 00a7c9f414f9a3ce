package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithMetricPrefix("test-prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics helpers", t, func() {
		Convey("Record pipeline helpers should not panic", func() {
			So(func() {
				RecordFetched(10)
				RecordDuplicate()
				RecordParsed()
				RecordRejected()
				RecordParseLatency(1.5)
			}, ShouldNotPanic)
		})

		Convey("Leaderboard helpers should not panic", func() {
			So(func() {
				RecordLeaderboardBuild(12.0)
				RecordLeaderboardBuild(8.0)
			}, ShouldNotPanic)
		})

		Convey("Tracker helpers should not panic", func() {
			So(func() {
				RecordSessionStarted()
				UpdateSessionsActive(1)
				RecordFixAccepted()
				RecordFixDropped()
				RecordCheckpointWrite()
				RecordCheckpointFailure()
				UpdateSessionsActive(0)
			}, ShouldNotPanic)
		})

		Convey("Source and store helpers should not panic", func() {
			So(func() {
				RecordFetchLatency(250.0)
				RecordFetchError("wss://relay.example")
				UpdateStoreRecords(42)
			}, ShouldNotPanic)
		})

		Convey("Queue and worker helpers should not panic", func() {
			So(func() {
				UpdateQueueSize(5)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.05)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.3)
				UpdateWorkerActiveCount(4)
				RecordWorkerProcessingLatency(2.0)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("HTTP and error helpers should not panic", func() {
			So(func() {
				RecordHTTPRequest("leaderboard", "GET", "200")
				RecordHTTPRequestDuration("leaderboard", "GET", "200", 3.4)
				RecordErrorByComponent("queue", "capacity_exceeded")
			}, ShouldNotPanic)
		})

		Convey("System helpers should not panic", func() {
			So(func() {
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.2)
			}, ShouldNotPanic)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global registry", t, func() {
		So(GetRegistry(), ShouldNotBeNil)
	})
}
