package fingerprint_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assistkit/pkg/fingerprint"
)

func newRequest(t *testing.T, headers map[string]string, remoteAddr string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = remoteAddr
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestNewGenerator(t *testing.T) {
	t.Parallel()

	t.Run("requires a salt", func(t *testing.T) {
		g, err := fingerprint.NewGenerator("")
		require.ErrorIs(t, err, fingerprint.ErrMissingSalt)
		require.Nil(t, g)
	})

	t.Run("with salt", func(t *testing.T) {
		g, err := fingerprint.NewGenerator("test-salt")
		require.NoError(t, err)
		require.NotNil(t, g)
	})
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	g, err := fingerprint.NewGenerator("test-salt")
	require.NoError(t, err)

	baseHeaders := map[string]string{
		"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
		"Accept-Language": "en-US,en;q=0.9",
		"Accept-Encoding": "gzip, deflate, br",
	}

	t.Run("consistent for the same request context", func(t *testing.T) {
		r := newRequest(t, baseHeaders, "192.168.1.100:54321")

		fp1 := g.Generate(r)
		fp2 := g.Generate(r)

		assert.Equal(t, fp1, fp2)
		assert.Len(t, fp1, 32)
		assert.Regexp(t, "^[a-f0-9]{32}$", fp1)
	})

	t.Run("changes with user agent", func(t *testing.T) {
		r1 := newRequest(t, baseHeaders, "192.168.1.100:54321")
		r2 := newRequest(t, map[string]string{
			"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
			"Accept-Language": "en-US,en;q=0.9",
			"Accept-Encoding": "gzip, deflate, br",
		}, "192.168.1.100:54321")

		assert.NotEqual(t, g.Generate(r1), g.Generate(r2))
	})

	t.Run("changes with accepted languages", func(t *testing.T) {
		r1 := newRequest(t, baseHeaders, "192.168.1.100:54321")
		r2 := newRequest(t, map[string]string{
			"User-Agent":      baseHeaders["User-Agent"],
			"Accept-Language": "de-DE,de;q=0.9",
			"Accept-Encoding": baseHeaders["Accept-Encoding"],
		}, "192.168.1.100:54321")

		assert.NotEqual(t, g.Generate(r1), g.Generate(r2))
	})

	t.Run("changes with client IP", func(t *testing.T) {
		r1 := newRequest(t, baseHeaders, "192.168.1.100:54321")
		r2 := newRequest(t, baseHeaders, "192.168.1.101:54321")

		assert.NotEqual(t, g.Generate(r1), g.Generate(r2))
	})

	t.Run("changes with salt", func(t *testing.T) {
		g2, err := fingerprint.NewGenerator("another-salt")
		require.NoError(t, err)

		r := newRequest(t, baseHeaders, "192.168.1.100:54321")
		assert.NotEqual(t, g.Generate(r), g2.Generate(r))
	})

	t.Run("ignores unrelated headers", func(t *testing.T) {
		r1 := newRequest(t, baseHeaders, "192.168.1.100:54321")
		r2 := newRequest(t, baseHeaders, "192.168.1.100:54321")
		r2.Header.Set("X-Request-ID", "abc-123")

		assert.Equal(t, g.Generate(r1), g.Generate(r2))
	})
}

func TestMatch(t *testing.T) {
	t.Parallel()

	g, err := fingerprint.NewGenerator("test-salt")
	require.NoError(t, err)

	headers := map[string]string{"User-Agent": "curl/8.0"}
	r := newRequest(t, headers, "192.0.2.1:1000")
	stored := g.Generate(r)

	t.Run("same context matches", func(t *testing.T) {
		assert.True(t, g.Match(newRequest(t, headers, "192.0.2.1:2000"), stored))
	})

	t.Run("different context does not match", func(t *testing.T) {
		assert.False(t, g.Match(newRequest(t, headers, "192.0.2.2:1000"), stored))
	})

	t.Run("empty stored fingerprint does not match", func(t *testing.T) {
		assert.False(t, g.Match(r, ""))
	})
}
