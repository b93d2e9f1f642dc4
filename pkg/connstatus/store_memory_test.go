package connstatus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assistkit/pkg/connstatus"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	t.Run("unknown subject reads as default", func(t *testing.T) {
		store := connstatus.NewMemoryStore()
		defer store.Close()

		status, err := store.Get(context.Background(), "nobody")
		require.NoError(t, err)
		assert.False(t, status.Connected)
		assert.False(t, status.Onboarded)
	})

	t.Run("apply merges and stamps updated_at", func(t *testing.T) {
		store := connstatus.NewMemoryStore()
		defer store.Close()
		ctx := context.Background()

		_, err := store.Apply(ctx, "u1", connstatus.Patch{
			Connected: connstatus.Ptr(true),
			Email:     connstatus.Ptr("a@x"),
		})
		require.NoError(t, err)

		status, err := store.Apply(ctx, "u1", connstatus.Patch{
			Onboarded: connstatus.Ptr(true),
		})
		require.NoError(t, err)

		assert.True(t, status.Connected)
		assert.Equal(t, "a@x", status.Email)
		assert.True(t, status.Onboarded)
		assert.False(t, status.UpdatedAt.IsZero())
	})

	t.Run("subjects are isolated", func(t *testing.T) {
		store := connstatus.NewMemoryStore()
		defer store.Close()
		ctx := context.Background()

		_, err := store.Apply(ctx, "u1", connstatus.Patch{Connected: connstatus.Ptr(true)})
		require.NoError(t, err)

		other, err := store.Get(ctx, "u2")
		require.NoError(t, err)
		assert.False(t, other.Connected)
	})

	t.Run("subscribers receive applied patches", func(t *testing.T) {
		store := connstatus.NewMemoryStore()
		defer store.Close()
		ctx := context.Background()

		sub := store.Subscribe(ctx, "u1")
		defer sub.Close()

		_, err := store.Apply(ctx, "u1", connstatus.Patch{Connected: connstatus.Ptr(true)})
		require.NoError(t, err)

		select {
		case msg := <-sub.Receive():
			require.NotNil(t, msg.Data.Connected)
			assert.True(t, *msg.Data.Connected)
		case <-time.After(time.Second):
			t.Fatal("no patch delivered")
		}
	})

	t.Run("subscriber does not see other subjects", func(t *testing.T) {
		store := connstatus.NewMemoryStore()
		defer store.Close()
		ctx := context.Background()

		sub := store.Subscribe(ctx, "u1")
		defer sub.Close()

		_, err := store.Apply(ctx, "u2", connstatus.Patch{Connected: connstatus.Ptr(true)})
		require.NoError(t, err)

		select {
		case msg := <-sub.Receive():
			t.Fatalf("unexpected patch %+v", msg.Data)
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestTracker(t *testing.T) {
	t.Parallel()

	t.Run("full lifecycle", func(t *testing.T) {
		store := connstatus.NewMemoryStore()
		defer store.Close()
		ctx := context.Background()
		tracker := connstatus.NewTracker(store, "u1")

		require.NoError(t, tracker.Connected(ctx, connstatus.Identity{
			Email:       "a@x",
			DisplayName: "Ada",
		}))

		status, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, status.Connected)
		assert.Equal(t, "Ada", status.DisplayName)
		assert.True(t, status.ShowSetupBanner(), "not onboarded yet")

		require.NoError(t, tracker.SyncStarted(ctx, 200))
		status, err = store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, status.SyncInProgress())
		require.NotNil(t, status.ProgressPercent())
		assert.Equal(t, 0, *status.ProgressPercent())

		require.NoError(t, tracker.Progress(ctx, 50))
		status, err = store.Get(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, status.ProgressPercent())
		assert.Equal(t, 25, *status.ProgressPercent())

		require.NoError(t, tracker.SyncCompleted(ctx))
		require.NoError(t, tracker.OnboardingCompleted(ctx))
		status, err = store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, status.SyncInProgress())
		assert.False(t, status.ShowSetupBanner())

		require.NoError(t, tracker.Disconnected(ctx))
		status, err = store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, status.Connected)
		assert.False(t, status.ShowSetupBanner())
	})

	t.Run("new sync run clears completion marker", func(t *testing.T) {
		store := connstatus.NewMemoryStore()
		defer store.Close()
		ctx := context.Background()
		tracker := connstatus.NewTracker(store, "u1")

		require.NoError(t, tracker.SyncStarted(ctx, 10))
		require.NoError(t, tracker.SyncCompleted(ctx))
		require.NoError(t, tracker.SyncStarted(ctx, 20))

		status, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, status.SyncInProgress())
	})

	t.Run("disconnect is idempotent", func(t *testing.T) {
		store := connstatus.NewMemoryStore()
		defer store.Close()
		ctx := context.Background()
		tracker := connstatus.NewTracker(store, "u1")

		require.NoError(t, tracker.Disconnected(ctx))
		first, err := store.Get(ctx, "u1")
		require.NoError(t, err)

		require.NoError(t, tracker.Disconnected(ctx))
		second, err := store.Get(ctx, "u1")
		require.NoError(t, err)

		assert.Equal(t, first.Connected, second.Connected)
		assert.Equal(t, first.Onboarded, second.Onboarded)
	})
}
