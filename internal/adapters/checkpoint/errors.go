package checkpoint

import "errors"

// Sentinel kinds for checkpoint store errors.
var (
	ErrClosed = errors.New("checkpoint store closed")
	ErrOpen   = errors.New("open checkpoint store failed")
)
