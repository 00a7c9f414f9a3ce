package source

import "errors"

var (
	// ErrNoRelays indicates the client was built without any relay URLs.
	ErrNoRelays = errors.New("no relay URLs configured")
)
