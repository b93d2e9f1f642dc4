package syncer

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEvents(t *testing.T) {
	t.Parallel()

	collect := func(stream string) ([]string, error) {
		var got []string
		err := readEvents(strings.NewReader(stream), func(data []byte) {
			got = append(got, string(data))
		})
		return got, err
	}

	t.Run("single event", func(t *testing.T) {
		t.Parallel()

		got, err := collect("data: {\"connected\":true}\n\n")
		require.ErrorIs(t, err, io.EOF)
		assert.Equal(t, []string{`{"connected":true}`}, got)
	})

	t.Run("multiple events", func(t *testing.T) {
		t.Parallel()

		got, err := collect("data: one\n\ndata: two\n\ndata: three\n\n")
		require.ErrorIs(t, err, io.EOF)
		assert.Equal(t, []string{"one", "two", "three"}, got)
	})

	t.Run("comments and heartbeats are skipped", func(t *testing.T) {
		t.Parallel()

		got, err := collect(": heartbeat\n\ndata: payload\n\n: another\n\n")
		require.ErrorIs(t, err, io.EOF)
		assert.Equal(t, []string{"payload"}, got)
	})

	t.Run("event name and id fields are ignored", func(t *testing.T) {
		t.Parallel()

		got, err := collect("event: patch\nid: 42\ndata: payload\nretry: 1000\n\n")
		require.ErrorIs(t, err, io.EOF)
		assert.Equal(t, []string{"payload"}, got)
	})

	t.Run("multi-line data joins with newline", func(t *testing.T) {
		t.Parallel()

		got, err := collect("data: first\ndata: second\n\n")
		require.ErrorIs(t, err, io.EOF)
		assert.Equal(t, []string{"first\nsecond"}, got)
	})

	t.Run("value without leading space", func(t *testing.T) {
		t.Parallel()

		got, err := collect("data:payload\n\n")
		require.ErrorIs(t, err, io.EOF)
		assert.Equal(t, []string{"payload"}, got)
	})

	t.Run("unterminated trailing event is not emitted", func(t *testing.T) {
		t.Parallel()

		got, err := collect("data: complete\n\ndata: partial\n")
		require.ErrorIs(t, err, io.EOF)
		assert.Equal(t, []string{"complete"}, got)
	})

	t.Run("empty stream", func(t *testing.T) {
		t.Parallel()

		got, err := collect("")
		require.ErrorIs(t, err, io.EOF)
		assert.Empty(t, got)
	})
}
