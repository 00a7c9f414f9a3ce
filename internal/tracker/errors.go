package tracker

import "errors"

// Sentinel kinds for tracker outcomes. Every tracker-level failure is
// surfaced exactly once, as a typed error on the call that triggered it.
var (
	ErrAlreadyTracking  = errors.New("session already active")
	ErrNotTracking      = errors.New("no active session")
	ErrNotPaused        = errors.New("session not paused")
	ErrPermissionDenied = errors.New("positioning permission denied")
	ErrCheckpointDecode = errors.New("checkpoint decode failed")
)
