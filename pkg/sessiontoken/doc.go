// Package sessiontoken implements the credential codec: a self-contained,
// HMAC-SHA256 signed compact token carrying subject, session id, request
// fingerprint and issue/expiry timestamps.
//
// The format is the JWS compact serialization (header.claims.signature,
// base64url without padding). Decode failures are distinguishable — malformed
// structure, invalid signature, and expiry each map to their own sentinel
// error — so the session layer can log a suspected forgery differently from a
// routine expiry.
//
// The signing secret's minimum length is enforced once at construction;
// a misconfigured secret prevents the codec from being built at all.
package sessiontoken
