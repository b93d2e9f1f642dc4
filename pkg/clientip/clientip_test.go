package clientip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assistkit/pkg/clientip"
)

func TestGetIP(t *testing.T) {
	t.Parallel()

	t.Run("prefers CDN header over everything", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("CF-Connecting-IP", "203.0.113.7")
		r.Header.Set("X-Forwarded-For", "198.51.100.1")

		assert.Equal(t, "203.0.113.7", clientip.GetIP(r))
	})

	t.Run("uses first valid forwarded address", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Forwarded-For", "not-an-ip, 198.51.100.1, 10.0.0.2")

		assert.Equal(t, "198.51.100.1", clientip.GetIP(r))
	})

	t.Run("falls back to X-Real-IP", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Real-IP", "198.51.100.9")

		assert.Equal(t, "198.51.100.9", clientip.GetIP(r))
	})

	t.Run("falls back to remote address", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "192.0.2.5:54321"

		assert.Equal(t, "192.0.2.5", clientip.GetIP(r))
	})

	t.Run("remote address without port", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "192.0.2.5"

		assert.Equal(t, "192.0.2.5", clientip.GetIP(r))
	})

	t.Run("normalizes IPv6", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "[2001:db8::1]:443"

		assert.Equal(t, "2001:db8::1", clientip.GetIP(r))
	})

	t.Run("invalid everything yields empty string", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "garbage"
		r.Header.Set("X-Forwarded-For", "also garbage")

		assert.Equal(t, "", clientip.GetIP(r))
	})
}

func TestContext(t *testing.T) {
	t.Parallel()

	ctx := clientip.SetIPToContext(context.Background(), "198.51.100.1")
	assert.Equal(t, "198.51.100.1", clientip.GetIPFromContext(ctx))
	assert.Equal(t, "", clientip.GetIPFromContext(context.Background()))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	h := clientip.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = clientip.GetIPFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.5:54321"
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.Equal(t, "192.0.2.5", seen)
}
