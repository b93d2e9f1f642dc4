package fingerprint

import "errors"

var (
	// ErrMissingSalt indicates the generator was constructed without a salt.
	ErrMissingSalt = errors.New("fingerprint: missing salt")
)
