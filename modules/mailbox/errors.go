package mailbox

import "errors"

var (
	ErrNilStore    = errors.New("mailbox: nil status store")
	ErrNilSessions = errors.New("mailbox: nil session manager")
	ErrNilCookies  = errors.New("mailbox: nil cookie manager")
)
