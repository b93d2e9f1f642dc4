package authsession

import (
	"context"

	"github.com/dmitrymomot/assistkit/pkg/sessiontoken"
)

type claimsContextKey struct{}

// WithClaims adds validated session claims to the context.
func WithClaims(ctx context.Context, claims *sessiontoken.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext retrieves validated session claims from the context.
func ClaimsFromContext(ctx context.Context) (*sessiontoken.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*sessiontoken.Claims)
	return claims, ok
}

// SubjectFromContext returns the authenticated subject id, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
