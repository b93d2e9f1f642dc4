package connstatus

import "errors"

var (
	// ErrNilClient indicates a store was constructed without its backing client.
	ErrNilClient = errors.New("connstatus: nil client")

	// ErrTooMuchContention indicates an optimistic write kept losing to
	// concurrent writers and gave up.
	ErrTooMuchContention = errors.New("connstatus: too much write contention")
)
