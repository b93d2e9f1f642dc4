// Package clientip resolves the originating client's IP address from an
// *http.Request when the service runs behind one or more reverse proxies.
//
// The resolution algorithm examines proxy headers in descending priority
// (CF-Connecting-IP, X-Forwarded-For, X-Real-IP) and falls back to the TCP
// peer address. GetIP never returns an error; an empty string means no valid
// address could be determined.
//
// Middleware stores the resolved address in the request context so downstream
// code (most notably request fingerprinting) reads a single consistent value.
package clientip
