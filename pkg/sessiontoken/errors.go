package sessiontoken

import "errors"

var (
	ErrMissingSecret       = errors.New("sessiontoken: missing signing secret")
	ErrSecretTooShort      = errors.New("sessiontoken: signing secret too short")
	ErrMalformedToken      = errors.New("sessiontoken: malformed token")
	ErrInvalidSignature    = errors.New("sessiontoken: invalid signature")
	ErrTokenExpired        = errors.New("sessiontoken: token is expired")
	ErrUnexpectedAlgorithm = errors.New("sessiontoken: unexpected signing algorithm")
)
