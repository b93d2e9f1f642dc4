// Package fingerprint derives a deterministic, salted digest from
// request-identifying signals of an incoming HTTP request.
//
// It hashes a fixed ordered tuple — User-Agent, Accept-Language,
// Accept-Encoding and the resolved client IP — together with a server-held
// salt, returning the first 16 bytes of the SHA-256 sum as a 32-character hex
// string. Sessions store that string at issuance; a later request whose
// recomputed fingerprint differs is treated as a theft indicator.
//
// The salt is constructor-injected (no ambient secrets), so multiple isolated
// generators can coexist in one test process.
//
// The only internal dependency is the sibling clientip package, which
// resolves the client address behind reverse proxies.
package fingerprint
