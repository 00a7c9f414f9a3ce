// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory raw record queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of parse workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the record store.
	ShardCount int `koanf:"shard_count"`

	// ThresholdsKm lists the leaderboard distance thresholds in kilometers.
	ThresholdsKm []int `koanf:"thresholds_km"`

	// FetchTimeoutMS bounds each relay fetch in milliseconds.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// RelayURLs lists the relay endpoints records are fetched from.
	RelayURLs []string `koanf:"relay_urls"`

	// Authors lists the followed authors whose records are fetched.
	Authors []string `koanf:"authors"`

	// RecordKinds lists the raw record kinds requested from relays.
	RecordKinds []int `koanf:"record_kinds"`

	// SelfAuthor is the author attributed to locally tracked sessions.
	SelfAuthor string `koanf:"self_author"`

	// CheckpointPath is the SQLite file holding tracker checkpoints.
	// Empty keeps checkpoints in memory, which does not survive a restart.
	CheckpointPath string `koanf:"checkpoint_path"`

	// MinFixIntervalMS is the minimum interval between positioning fixes.
	MinFixIntervalMS int `koanf:"min_fix_interval_ms"`

	// MinFixDistanceM is the minimum distance between positioning fixes.
	MinFixDistanceM float64 `koanf:"min_fix_distance_m"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU() * 2,
		DedupeSize:       50_000,
		ShardCount:       16,
		ThresholdsKm:     []int{5, 10, 21, 42},
		FetchTimeoutMS:   3000,
		RecordKinds:      []int{1301},
		SelfAuthor:       "local",
		CheckpointPath:   "stride.db",
		MinFixIntervalMS: 1000,
		MinFixDistanceM:  5,
	}
	return c
}
