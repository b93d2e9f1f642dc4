package authsession

import "net/http"

// Middleware validates the session on every request. Valid claims are
// attached to the context; the half-life refresh rule runs on the way in so
// a rotated token is written back transparently. Invalid or absent
// credentials leave the request anonymous — the handler decides what that
// means.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := m.GetSessionToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		res := m.ValidateSession(r.Context(), token, r)
		if !res.Valid {
			// Drop the bad cookie so the client stops replaying it
			m.ClearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		if rotated, err := m.RefreshSession(r.Context(), token, r); err == nil && rotated != token {
			m.SetSessionCookie(w, rotated)
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), res.Claims)))
	})
}

// RequireAuth rejects unauthenticated requests with 401. Failed credentials
// are never explained to the caller; the specific reason only reaches logs.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
