package provider

import "errors"

// Sentinel kinds for provider failures. The tracker distinguishes the two:
// denial needs an explicit caller decision, start failure degrades silently.
var (
	ErrPermissionDenied = errors.New("positioning permission denied")
	ErrStreamStart      = errors.New("positioning stream start failed")
)
