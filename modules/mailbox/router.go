package mailbox

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handle returns the module's router, ready to mount at the application
// root:
//
//	r := chi.NewRouter()
//	r.Mount("/", svc.Handle())
//
// Every route resolves the session; mailbox routes additionally require a
// valid one, except the OAuth callback, which is authenticated by its
// signed state cookie (the Strict session cookie does not ride the
// cross-site redirect back from the provider). Logout stays reachable with
// an invalid session so a stolen or expired cookie can still be cleared.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(s.sessions.Middleware)

	r.Route("/mailbox", func(r chi.Router) {
		r.Get("/connect/callback", s.handleCallback)

		r.Group(func(r chi.Router) {
			r.Use(s.sessions.RequireAuth)

			r.Get("/status", s.handleStatus)
			r.Get("/status/stream", s.handleStream)
			r.Get("/connect", s.handleConnect)
			r.Post("/disconnect", s.handleDisconnect)
		})
	})

	r.Post("/auth/logout", s.handleLogout)

	return r
}
