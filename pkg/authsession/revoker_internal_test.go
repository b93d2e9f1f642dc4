package authsession

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (r *MemoryRevoker) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func TestMemoryRevokerPruning(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("revoke sweeps lapsed marks", func(t *testing.T) {
		t.Parallel()

		r := NewMemoryRevoker()
		require.NoError(t, r.Revoke(ctx, "old-1", time.Millisecond))
		require.NoError(t, r.Revoke(ctx, "old-2", time.Millisecond))
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, r.Revoke(ctx, "fresh", time.Hour))
		assert.Equal(t, 1, r.size())
	})

	t.Run("lookup drops the lapsed mark it misses on", func(t *testing.T) {
		t.Parallel()

		r := NewMemoryRevoker()
		require.NoError(t, r.Revoke(ctx, "user-1", time.Millisecond))
		time.Sleep(10 * time.Millisecond)

		_, revoked, err := r.RevokedAt(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, revoked)
		assert.Equal(t, 0, r.size())
	})
}
