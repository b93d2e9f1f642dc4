// Package authsession gates requests by proving the bearer holds a
// credential issued by this system, bound to a consistent request context,
// and not expired.
//
// Sessions are signed, self-contained tokens (pkg/sessiontoken) carried in a
// cookie whose attributes follow the deployment posture (pkg/cookie). Beyond
// the signature, each token is bound to a salted fingerprint of the issuing
// request (pkg/fingerprint): a stolen-but-unmodified token replayed from a
// different network origin or client context fails validation, narrowing the
// exploit window without server-side session storage.
//
// Rotation follows the half-life rule: RefreshSession returns the token
// unchanged while more than half its lifetime remains, and issues a rotated
// token (same subject, new session id) after that. Most requests are cheap
// validations; rotation happens roughly once per half lifetime.
//
// Logout-everywhere needs the optional Revoker: a subject-keyed denylist
// with TTL equal to the token lifetime. Without one, revocation is a logged
// no-op and outstanding tokens remain valid until expiry.
package authsession
