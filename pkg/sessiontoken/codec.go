package sessiontoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Compact token header constants. The format follows the JWS compact
// serialization (header.claims.signature, base64url without padding).
const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"

	// minSecretLength is the minimum signing secret size for HMAC-SHA256.
	// Enforced once, at construction; a weak secret is a deployment error,
	// not a per-request condition.
	minSecretLength = 32
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// Claims is the self-contained session payload carried inside the token.
// Temporal fields are Unix timestamps.
type Claims struct {
	Subject     string `json:"sub"`
	SessionID   string `json:"sid"`
	Fingerprint string `json:"fpt,omitempty"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
}

// IssuedTime returns the issue time as time.Time.
func (c Claims) IssuedTime() time.Time { return time.Unix(c.IssuedAt, 0) }

// ExpiryTime returns the expiry time as time.Time.
func (c Claims) ExpiryTime() time.Time { return time.Unix(c.ExpiresAt, 0) }

// Codec signs and verifies compact session tokens with HMAC-SHA256.
// The signing secret lives in memory only and is never exposed to callers.
type Codec struct {
	secret []byte
}

// New creates a codec with the given signing secret.
// Returns ErrMissingSecret for an empty secret and ErrSecretTooShort when the
// secret is below the fixed security threshold.
func New(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("%w: got %d chars, need at least %d", ErrSecretTooShort, len(secret), minSecretLength)
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Encode signs the claims and returns the compact token string.
func (c *Codec) Encode(claims Claims) (string, error) {
	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", fmt.Errorf("marshal header: %w", err)
	}

	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	payload := base64URLEncode(headerJSON) + "." + base64URLEncode(claimsJSON)
	return payload + "." + c.sign(payload), nil
}

// Decode verifies the token and returns its claims.
//
// Failures are distinguishable so the caller can treat a forged token
// differently from an ordinary expiry:
//   - ErrMalformedToken: wrong structure, bad encoding, or undecodable JSON
//   - ErrInvalidSignature: structure intact, signature does not verify
//   - ErrTokenExpired: authentic token past its expiry
func (c *Codec) Decode(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}

	// Verify the signature before trusting any decoded content.
	// Constant-time comparison prevents timing attacks.
	payload := parts[0] + "." + parts[1]
	expected := c.sign(payload)
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return nil, ErrInvalidSignature
	}

	headerJSON, err := base64URLDecode(parts[0])
	if err != nil {
		return nil, errors.Join(ErrMalformedToken, err)
	}

	var h header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return nil, errors.Join(ErrMalformedToken, err)
	}

	// Reject unexpected algorithms to prevent algorithm confusion attacks
	if h.Algorithm != headerAlgorithm {
		return nil, ErrUnexpectedAlgorithm
	}

	claimsJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, errors.Join(ErrMalformedToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return nil, errors.Join(ErrMalformedToken, err)
	}

	// A token is valid strictly before its expiry instant
	if claims.ExpiresAt > 0 && time.Now().Unix() >= claims.ExpiresAt {
		return nil, ErrTokenExpired
	}

	return &claims, nil
}

// sign creates a base64url-encoded HMAC-SHA256 signature for the payload.
func (c *Codec) sign(payload string) string {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(payload))
	return base64URLEncode(h.Sum(nil))
}

// base64URLEncode encodes without padding, as the compact format requires.
func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// base64URLDecode decodes unpadded base64url data.
func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
