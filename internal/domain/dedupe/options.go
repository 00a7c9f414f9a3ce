// Package dedupe tracks already-ingested record IDs so each record enters
// the pipeline at most once, regardless of how many relays return it.
package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of IDs kept in memory. At the bound the
// oldest ID is evicted to make room; zero or negative means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
