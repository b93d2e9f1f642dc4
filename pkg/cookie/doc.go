// Package cookie provides a cookie transport whose attributes are derived
// deterministically from the deployment posture.
//
// Under production TLS the Secure flag, SameSite=Strict and the __Host- name
// prefix apply; anywhere else cookies fall back to SameSite=Lax without the
// Secure flag, so local plain-HTTP development keeps working. Every derived
// attribute can be overridden per call through functional options.
//
// The manager intentionally carries no signing secret — token integrity is
// the credential codec's job, the cookie is only the carrier.
package cookie
