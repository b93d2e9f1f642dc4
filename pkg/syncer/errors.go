package syncer

import "errors"

var (
	// ErrMissingEndpoints is returned when the snapshot or stream URL is empty.
	ErrMissingEndpoints = errors.New("syncer: snapshot and stream URLs are required")
)
