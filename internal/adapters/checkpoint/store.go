// Package checkpoint defines the durable key-value contract the tracker uses
// for crash recovery. Any store satisfying Store is substitutable.
package checkpoint

import "context"

// Store provides durable put/get/delete for serialized tracker state.
type Store interface {
	// Put writes value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the value for key. The second return is false when the
	// key does not exist.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
