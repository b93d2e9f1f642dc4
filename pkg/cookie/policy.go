package cookie

import "net/http"

// hostPrefix is the hardened cookie name prefix. Browsers only accept it on
// cookies that are Secure, Path=/ and have no Domain attribute.
const hostPrefix = "__Host-"

// Policy captures the deployment posture that determines cookie transport
// attributes. It is established once at construction and never mutated.
type Policy struct {
	// Production is true for production deployments.
	Production bool
	// TLS is true when the deployment is served over HTTPS.
	TLS bool
}

// Hardened reports whether the full browser-enforced cookie protections
// apply. Both production and TLS must hold: the Secure flag and the __Host-
// prefix would make cookies undeliverable on plain-HTTP dev setups.
func (p Policy) Hardened() bool {
	return p.Production && p.TLS
}

// Name returns the transport cookie name for the given base name,
// applying the hardened prefix when the posture allows it.
func (p Policy) Name(base string) string {
	if p.Hardened() {
		return hostPrefix + base
	}
	return base
}

// Defaults derives the default cookie attributes from the posture:
// Secure + SameSite=Strict under production TLS, SameSite=Lax otherwise.
// Explicit options passed to Set override any of these.
func (p Policy) Defaults() Options {
	opts := Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if p.Hardened() {
		opts.Secure = true
		opts.SameSite = http.SameSiteStrictMode
	}
	return opts
}
