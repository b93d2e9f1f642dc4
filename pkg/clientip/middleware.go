package clientip

import "net/http"

// Middleware resolves the client IP once per request and stores it in the
// request context so downstream handlers do not repeat header parsing.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := SetIPToContext(r.Context(), GetIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
