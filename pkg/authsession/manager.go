package authsession

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/assistkit/pkg/cookie"
	"github.com/dmitrymomot/assistkit/pkg/environment"
	"github.com/dmitrymomot/assistkit/pkg/fingerprint"
	"github.com/dmitrymomot/assistkit/pkg/logger"
	"github.com/dmitrymomot/assistkit/pkg/sessiontoken"
)

// Reason is the machine-readable cause of a failed validation.
// Callers log and alert on these differently: a fingerprint mismatch is a
// theft indicator, an expiry is routine.
type Reason string

const (
	ReasonExpired             Reason = "expired"
	ReasonFingerprintMismatch Reason = "fingerprint_mismatch"
	ReasonMalformed           Reason = "malformed_or_bad_signature"
	ReasonRevoked             Reason = "revoked"
)

// Result is the outcome of validating a session token.
// Claims is set only when Valid is true.
type Result struct {
	Valid  bool
	Claims *sessiontoken.Claims
	Reason Reason
}

// Manager issues, validates and rotates session credentials and owns their
// cookie transport. It is stateless per call: all configuration is immutable
// after construction, so a single Manager is safe for unlimited concurrent
// use.
type Manager struct {
	codec      *sessiontoken.Codec
	fp         *fingerprint.Generator
	cookies    *cookie.Manager
	cookieName string
	maxAge     time.Duration
	log        *slog.Logger
	revoker    Revoker
	now        func() time.Time
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithRevoker enables server-side revocation. Without it, RevokeSubject is
// log-only and logout-everywhere is not enforced.
func WithRevoker(r Revoker) Option {
	return func(m *Manager) { m.revoker = r }
}

// WithTimeSource overrides the clock, used by tests to exercise the
// half-life rotation rule.
func WithTimeSource(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a session authenticator. Construction fails on a missing or
// weak signing secret; that check never happens per call.
func New(cfg Config, opts ...Option) (*Manager, error) {
	codec, err := sessiontoken.New(cfg.Secret)
	if err != nil {
		return nil, err
	}

	salt := cfg.FingerprintSalt
	if salt == "" {
		salt = cfg.Secret
	}
	fp, err := fingerprint.NewGenerator(salt)
	if err != nil {
		return nil, err
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultConfig().MaxAge
	}

	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = DefaultConfig().CookieName
	}

	env := environment.Parse(cfg.Environment)
	m := &Manager{
		codec: codec,
		fp:    fp,
		cookies: cookie.New(cookie.Policy{
			Production: env.IsProduction(),
			TLS:        cfg.TLS,
		}),
		cookieName: cookieName,
		maxAge:     maxAge,
		log:        slog.Default(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// CreateSession issues a fresh signed token for the subject, bound to the
// request's fingerprint.
func (m *Manager) CreateSession(r *http.Request, subjectID string) (string, error) {
	if subjectID == "" {
		return "", ErrMissingSubject
	}

	now := m.now()
	return m.codec.Encode(sessiontoken.Claims{
		Subject:     subjectID,
		SessionID:   uuid.NewString(),
		Fingerprint: m.fp.Generate(r),
		IssuedAt:    now.Unix(),
		ExpiresAt:   now.Add(m.maxAge).Unix(),
	})
}

// ValidateSession verifies signature and expiry, recomputes the fingerprint
// from the current request, and consults the revocation set when configured.
// Invalid tokens come back with a specific Reason rather than a generic
// failure.
func (m *Manager) ValidateSession(ctx context.Context, token string, r *http.Request) Result {
	claims, err := m.codec.Decode(token)
	if err != nil {
		reason := ReasonMalformed
		level := slog.LevelInfo
		if errors.Is(err, sessiontoken.ErrTokenExpired) {
			reason = ReasonExpired
			level = slog.LevelDebug
		}
		m.log.LogAttrs(ctx, level, "session token rejected",
			logger.Reason(string(reason)), logger.Error(err))
		return Result{Reason: reason}
	}

	current := m.fp.Generate(r)
	if subtle.ConstantTimeCompare([]byte(current), []byte(claims.Fingerprint)) != 1 {
		// Valid signature from a different request context: the credential
		// may have been stolen. Logged louder than routine failures.
		m.log.LogAttrs(ctx, slog.LevelWarn, "session fingerprint mismatch, possible token theft",
			logger.SubjectID(claims.Subject),
			logger.SessionID(claims.SessionID),
			logger.Reason(string(ReasonFingerprintMismatch)))
		return Result{Reason: ReasonFingerprintMismatch}
	}

	if m.revoker != nil {
		revokedAt, revoked, err := m.revoker.RevokedAt(ctx, claims.Subject)
		if err != nil {
			// Revocation store unavailable: the signature-validated token
			// passes, the failure is surfaced in logs
			m.log.LogAttrs(ctx, slog.LevelError, "revocation check failed",
				logger.SubjectID(claims.Subject), logger.Error(err))
		} else if revoked && !claims.IssuedTime().After(revokedAt) {
			m.log.LogAttrs(ctx, slog.LevelInfo, "session token revoked",
				logger.SubjectID(claims.Subject),
				logger.SessionID(claims.SessionID),
				logger.Reason(string(ReasonRevoked)))
			return Result{Reason: ReasonRevoked}
		}
	}

	return Result{Valid: true, Claims: claims}
}

// RefreshSession implements the half-life rotation rule. An invalid token
// yields ErrInvalidSession. A valid token with more than half its lifetime
// remaining is returned unchanged, making back-to-back refreshes idempotent.
// Otherwise a new token is issued for the same subject with a fresh session
// id and a fingerprint binding to the current request.
func (m *Manager) RefreshSession(ctx context.Context, token string, r *http.Request) (string, error) {
	res := m.ValidateSession(ctx, token, r)
	if !res.Valid {
		return "", ErrInvalidSession
	}

	remaining := res.Claims.ExpiryTime().Sub(m.now())
	if remaining > m.maxAge/2 {
		return token, nil
	}

	rotated, err := m.CreateSession(r, res.Claims.Subject)
	if err != nil {
		return "", err
	}

	m.log.LogAttrs(ctx, slog.LevelDebug, "session rotated",
		logger.SubjectID(res.Claims.Subject),
		logger.SessionID(res.Claims.SessionID))

	return rotated, nil
}

// SetSessionCookie writes the token under the posture-derived cookie policy.
// Explicit options override the derived attributes; max-age defaults to the
// session lifetime.
func (m *Manager) SetSessionCookie(w http.ResponseWriter, token string, opts ...cookie.Option) {
	options := append([]cookie.Option{
		cookie.WithMaxAge(int(m.maxAge.Seconds())),
	}, opts...)
	m.cookies.Set(w, m.cookies.Name(m.cookieName), token, options...)
}

// ClearSessionCookie removes the session cookie.
func (m *Manager) ClearSessionCookie(w http.ResponseWriter) {
	m.cookies.Delete(w, m.cookies.Name(m.cookieName))
}

// GetSessionToken extracts the token from the transport layer.
// Absence is not an error, only a signal to treat the caller as anonymous.
func (m *Manager) GetSessionToken(r *http.Request) (string, bool) {
	token, err := m.cookies.Get(r, m.cookies.Name(m.cookieName))
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// RevokeSubject invalidates every outstanding session of the subject.
// Requires a configured Revoker; without one this is a logged no-op and
// logout-everywhere is NOT enforced.
func (m *Manager) RevokeSubject(ctx context.Context, subjectID string) error {
	if m.revoker == nil {
		m.log.LogAttrs(ctx, slog.LevelWarn,
			"revoke requested but no revoker configured, existing sessions stay valid until expiry",
			logger.SubjectID(subjectID))
		return nil
	}
	// TTL equals the token lifetime: after that every pre-revocation token
	// has expired on its own and the entry can lapse.
	return m.revoker.Revoke(ctx, subjectID, m.maxAge)
}
