package authsession

import "errors"

var (
	// ErrMissingSubject indicates session creation without a subject id.
	ErrMissingSubject = errors.New("authsession: missing subject id")

	// ErrInvalidSession indicates the presented token failed validation.
	ErrInvalidSession = errors.New("authsession: invalid session")

	// ErrNilClient indicates a revoker was constructed without its backing client.
	ErrNilClient = errors.New("authsession: nil client")
)
