package parse

import "errors"

// Sentinel kinds for parser outcomes.
var (
	// ErrNoActivityKind is the only record-level rejection: no recognized
	// kind tag and no inferable keyword in the content.
	ErrNoActivityKind = errors.New("no activity kind signal")
)
