package fingerprint

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/dmitrymomot/assistkit/pkg/clientip"
)

// Generator derives a stable request fingerprint from a fixed ordered tuple
// of request signals (User-Agent, Accept-Language, Accept-Encoding, resolved
// client IP) concatenated with a server-held salt.
//
// The digest is an anomaly-detection signal binding a credential to its
// original request environment. It is never a unique client identity.
type Generator struct {
	salt []byte
}

// NewGenerator creates a fingerprint generator with the given salt.
// The salt keeps fingerprints unlinkable across deployments that see the
// same client; it is required but its length is not security critical.
func NewGenerator(salt string) (*Generator, error) {
	if salt == "" {
		return nil, ErrMissingSalt
	}
	return &Generator{salt: []byte(salt)}, nil
}

// Generate computes the fingerprint for the request.
// The same request context always produces the same 32-character hex string.
func (g *Generator) Generate(r *http.Request) string {
	// Fixed tuple order: changing it invalidates every outstanding session
	components := []string{
		r.UserAgent(),
		r.Header.Get("Accept-Language"),
		r.Header.Get("Accept-Encoding"),
		clientip.GetIP(r),
	}

	h := sha256.New()
	h.Write(g.salt)
	h.Write([]byte(strings.Join(components, "|")))

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

// Match reports whether the fingerprint recomputed from the request equals
// the stored one. Comparison is constant time.
func (g *Generator) Match(r *http.Request, stored string) bool {
	current := g.Generate(r)
	return subtle.ConstantTimeCompare([]byte(current), []byte(stored)) == 1
}
