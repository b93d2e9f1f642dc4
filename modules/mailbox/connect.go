package mailbox

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/assistkit/pkg/authsession"
	"github.com/dmitrymomot/assistkit/pkg/connstatus"
	"github.com/dmitrymomot/assistkit/pkg/cookie"
	"github.com/dmitrymomot/assistkit/pkg/logger"
	"github.com/dmitrymomot/assistkit/pkg/sessiontoken"
)

const (
	stateCookie = "mailbox_oauth_state"

	// stateTTL bounds the provider round-trip
	stateTTL = 10 * time.Minute
)

// handleConnect starts the OAuth flow. The state cookie is a signed token
// binding a random nonce to the current subject, so the callback can
// authenticate the return leg without the session cookie.
func (s *Service) handleConnect(w http.ResponseWriter, r *http.Request) {
	subject, ok := authsession.SubjectFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	nonce := uuid.NewString()
	now := time.Now()
	signed, err := s.state.Encode(sessiontoken.Claims{
		Subject:   subject,
		SessionID: nonce,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(stateTTL).Unix(),
	})
	if err != nil {
		s.log.LogAttrs(r.Context(), slog.LevelError, "signing state failed",
			logger.SubjectID(subject), logger.Error(err))
		s.respondError(w, http.StatusInternalServerError, "starting link failed")
		return
	}

	// Lax, not Strict: the cookie must ride the top-level navigation back
	// from the provider
	s.cookies.Set(w, s.cookies.Name(stateCookie), signed,
		cookie.WithMaxAge(int(stateTTL.Seconds())),
		cookie.WithSameSite(http.SameSiteLaxMode),
	)

	http.Redirect(w, r, s.oauth.AuthCodeURL(nonce, oauth2.AccessTypeOffline), http.StatusFound)
}

// handleCallback finishes the OAuth flow: state check, code exchange,
// identity fetch, then the link is recorded in the status store.
//
// The subject comes out of the signed state cookie, not the session: under
// the hardened posture the session cookie is SameSite=Strict and browsers
// omit it on the cross-site redirect back from the provider.
func (s *Service) handleCallback(w http.ResponseWriter, r *http.Request) {
	name := s.cookies.Name(stateCookie)
	raw, err := s.cookies.Get(r, name)
	s.cookies.Delete(w, name)
	if err != nil || raw == "" {
		s.respondError(w, http.StatusBadRequest, "state mismatch")
		return
	}

	claims, err := s.state.Decode(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "state mismatch")
		return
	}
	if claims.Subject == "" || r.URL.Query().Get("state") != claims.SessionID {
		s.respondError(w, http.StatusBadRequest, "state mismatch")
		return
	}
	subject := claims.Subject

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		// User declined at the provider; nothing changed
		s.respondError(w, http.StatusBadRequest, "provider error: "+errMsg)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		s.respondError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		s.log.LogAttrs(r.Context(), slog.LevelError, "oauth code exchange failed",
			logger.SubjectID(subject), logger.Error(err))
		s.respondError(w, http.StatusBadGateway, "code exchange failed")
		return
	}

	identity, err := s.identity(r.Context(), s.oauth.TokenSource(r.Context(), token))
	if err != nil {
		s.log.LogAttrs(r.Context(), slog.LevelError, "identity fetch failed",
			logger.SubjectID(subject), logger.Error(err))
		s.respondError(w, http.StatusBadGateway, "identity fetch failed")
		return
	}

	if err := connstatus.NewTracker(s.store, subject).Connected(r.Context(), identity); err != nil {
		s.log.LogAttrs(r.Context(), slog.LevelError, "recording link failed",
			logger.SubjectID(subject), logger.Error(err))
		s.respondError(w, http.StatusInternalServerError, "recording link failed")
		return
	}

	s.log.LogAttrs(r.Context(), slog.LevelInfo, "mailbox linked", logger.SubjectID(subject))
	http.Redirect(w, r, s.cfg.ConnectedRedirectURL, http.StatusFound)
}

// handleDisconnect unlinks the mailbox. Idempotent: disconnecting an
// already-disconnected mailbox succeeds and changes nothing.
func (s *Service) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	subject, ok := authsession.SubjectFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := connstatus.NewTracker(s.store, subject).Disconnected(r.Context()); err != nil {
		s.log.LogAttrs(r.Context(), slog.LevelError, "recording unlink failed",
			logger.SubjectID(subject), logger.Error(err))
		s.respondError(w, http.StatusInternalServerError, "recording unlink failed")
		return
	}

	s.log.LogAttrs(r.Context(), slog.LevelInfo, "mailbox unlinked", logger.SubjectID(subject))
	w.WriteHeader(http.StatusNoContent)
}

// handleLogout clears the session cookie. With ?everywhere=1 every token of
// the subject issued so far is revoked as well. Idempotent either way.
func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearSessionCookie(w)

	subject, ok := authsession.SubjectFromContext(r.Context())
	if ok && r.URL.Query().Get("everywhere") == "1" {
		if err := s.sessions.RevokeSubject(r.Context(), subject); err != nil {
			s.log.LogAttrs(r.Context(), slog.LevelError, "revoking sessions failed",
				logger.SubjectID(subject), logger.Error(err))
			s.respondError(w, http.StatusInternalServerError, "revocation failed")
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
