package syncer_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assistkit/pkg/connstatus"
	"github.com/dmitrymomot/assistkit/pkg/syncer"
)

// statusServer is a controllable snapshot + stream backend.
type statusServer struct {
	srv *httptest.Server

	mu       sync.Mutex
	snapshot connstatus.ConnectionStatus
	snapFail bool
	snaps    atomic.Int64

	streams  atomic.Int64
	payloads chan string
	dropN    int64 // stream connections to fail immediately
}

func newStatusServer(t *testing.T, initial connstatus.ConnectionStatus) *statusServer {
	t.Helper()

	ss := &statusServer{
		snapshot: initial,
		payloads: make(chan string, 16),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		ss.snaps.Add(1)
		ss.mu.Lock()
		fail := ss.snapFail
		snap := ss.snapshot
		ss.mu.Unlock()

		if fail {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		writeJSON(t, w, snap)
	})
	mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		n := ss.streams.Add(1)
		if n <= ss.dropN {
			// Simulate a broken connection before any event arrives
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		f := w.(http.Flusher)
		f.Flush()

		for {
			select {
			case p := <-ss.payloads:
				fmt.Fprintf(w, "data: %s\n\n", p)
				f.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})

	ss.srv = httptest.NewServer(mux)
	t.Cleanup(ss.srv.Close)
	return ss
}

func (ss *statusServer) setSnapshot(s connstatus.ConnectionStatus) {
	ss.mu.Lock()
	ss.snapshot = s
	ss.mu.Unlock()
}

func (ss *statusServer) setSnapshotFailing(fail bool) {
	ss.mu.Lock()
	ss.snapFail = fail
	ss.mu.Unlock()
}

func (ss *statusServer) send(payload string) {
	ss.payloads <- payload
}

func (ss *statusServer) config() syncer.Config {
	return syncer.Config{
		SnapshotURL:    ss.srv.URL + "/status",
		StreamURL:      ss.srv.URL + "/stream",
		PollInterval:   30 * time.Millisecond,
		ReconnectDelay: 20 * time.Millisecond,
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestSyncer_New(t *testing.T) {
	t.Parallel()

	t.Run("requires endpoints", func(t *testing.T) {
		t.Parallel()

		_, err := syncer.New(syncer.Config{SnapshotURL: "http://localhost/status"})
		require.ErrorIs(t, err, syncer.ErrMissingEndpoints)

		_, err = syncer.New(syncer.Config{StreamURL: "http://localhost/stream"})
		require.ErrorIs(t, err, syncer.ErrMissingEndpoints)
	})

	t.Run("starts idle with zero status", func(t *testing.T) {
		t.Parallel()

		s, err := syncer.New(syncer.Config{
			SnapshotURL: "http://localhost/status",
			StreamURL:   "http://localhost/stream",
		})
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, syncer.StateIdle, s.State())
		assert.False(t, s.Status().Connected)
		assert.False(t, s.IsPolling())
	})
}

func TestSyncer_SignIn(t *testing.T) {
	t.Parallel()

	t.Run("snapshot populates cache and stream opens", func(t *testing.T) {
		t.Parallel()

		ss := newStatusServer(t, connstatus.ConnectionStatus{
			Connected: true,
			Email:     "ada@example.com",
			Onboarded: true,
		})

		s, err := syncer.New(ss.config())
		require.NoError(t, err)
		defer s.Close()

		s.SetAuthenticated(true)

		assert.Eventually(t, func() bool {
			st := s.Status()
			return st.Connected && st.Email == "ada@example.com"
		}, time.Second, 5*time.Millisecond)
		assert.Eventually(t, func() bool {
			return s.State() == syncer.StateStreaming
		}, time.Second, 5*time.Millisecond)

		// Onboarded with no sync in flight: the safety-net poll stays off
		assert.False(t, s.IsPolling())
	})

	t.Run("repeated sign-in is a no-op", func(t *testing.T) {
		t.Parallel()

		ss := newStatusServer(t, connstatus.ConnectionStatus{Connected: true, Onboarded: true})

		s, err := syncer.New(ss.config())
		require.NoError(t, err)
		defer s.Close()

		s.SetAuthenticated(true)
		assert.Eventually(t, func() bool {
			return s.State() == syncer.StateStreaming
		}, time.Second, 5*time.Millisecond)

		s.SetAuthenticated(true)
		time.Sleep(50 * time.Millisecond)
		assert.EqualValues(t, 1, ss.streams.Load())
	})

	t.Run("snapshot failure keeps the stream attempt going", func(t *testing.T) {
		t.Parallel()

		ss := newStatusServer(t, connstatus.ConnectionStatus{})
		ss.setSnapshotFailing(true)

		s, err := syncer.New(ss.config())
		require.NoError(t, err)
		defer s.Close()

		s.SetAuthenticated(true)

		assert.Eventually(t, func() bool {
			return s.State() == syncer.StateStreaming
		}, time.Second, 5*time.Millisecond)
		assert.Eventually(t, func() bool {
			return s.LastError() != nil
		}, time.Second, 5*time.Millisecond)
	})
}

func TestSyncer_StreamPatches(t *testing.T) {
	t.Parallel()

	t.Run("patches merge in receipt order", func(t *testing.T) {
		t.Parallel()

		ss := newStatusServer(t, connstatus.ConnectionStatus{Connected: true, Onboarded: true})

		s, err := syncer.New(ss.config())
		require.NoError(t, err)
		defer s.Close()

		s.SetAuthenticated(true)
		assert.Eventually(t, func() bool {
			return s.State() == syncer.StateStreaming && s.Status().Connected
		}, time.Second, 5*time.Millisecond)

		ss.send(`{"sync_synced_units": 10}`)
		ss.send(`{"sync_synced_units": 25, "email": "ada@example.com"}`)

		assert.Eventually(t, func() bool {
			st := s.Status()
			return st.SyncSyncedUnits != nil && *st.SyncSyncedUnits == 25 &&
				st.Email == "ada@example.com"
		}, time.Second, 5*time.Millisecond)

		// Fields absent from patches survived every merge
		assert.True(t, s.Status().Connected)
		assert.True(t, s.Status().Onboarded)
	})

	t.Run("malformed payload is dropped without losing the stream", func(t *testing.T) {
		t.Parallel()

		ss := newStatusServer(t, connstatus.ConnectionStatus{Connected: true, Onboarded: true})

		s, err := syncer.New(ss.config())
		require.NoError(t, err)
		defer s.Close()

		s.SetAuthenticated(true)
		assert.Eventually(t, func() bool {
			return s.State() == syncer.StateStreaming
		}, time.Second, 5*time.Millisecond)

		ss.send(`{not json`)
		ss.send(`{"email": "still.alive@example.com"}`)

		assert.Eventually(t, func() bool {
			return s.Status().Email == "still.alive@example.com"
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, syncer.StateStreaming, s.State())
		assert.EqualValues(t, 1, ss.streams.Load())
	})
}

func TestSyncer_Reconnect(t *testing.T) {
	t.Parallel()

	t.Run("single loss retries once", func(t *testing.T) {
		t.Parallel()

		ss := newStatusServer(t, connstatus.ConnectionStatus{Connected: true, Onboarded: true})
		ss.dropN = 1

		s, err := syncer.New(ss.config())
		require.NoError(t, err)
		defer s.Close()

		s.SetAuthenticated(true)

		// First connection drops immediately, a single timer drives the retry
		assert.Eventually(t, func() bool {
			return ss.streams.Load() >= 2 && s.State() == syncer.StateStreaming
		}, time.Second, 5*time.Millisecond)

		ss.send(`{"email": "back@example.com"}`)
		assert.Eventually(t, func() bool {
			return s.Status().Email == "back@example.com"
		}, time.Second, 5*time.Millisecond)

		// Exactly one retry happened: no timer pile-up
		assert.EqualValues(t, 2, ss.streams.Load())
	})

	t.Run("each loss schedules exactly one timer", func(t *testing.T) {
		t.Parallel()

		ss := newStatusServer(t, connstatus.ConnectionStatus{Connected: true, Onboarded: true})
		ss.dropN = 2

		cfg := ss.config()
		s, err := syncer.New(cfg)
		require.NoError(t, err)
		defer s.Close()

		s.SetAuthenticated(true)

		// Two losses in a row: attempts 1 and 2 fail, attempt 3 sticks
		assert.Eventually(t, func() bool {
			return ss.streams.Load() == 3 && s.State() == syncer.StateStreaming
		}, time.Second, 5*time.Millisecond)

		// Had any loss armed a second timer, its spurious fire would tear
		// down the live stream and open a fourth connection
		time.Sleep(4 * cfg.ReconnectDelay)
		assert.EqualValues(t, 3, ss.streams.Load())
		assert.Equal(t, syncer.StateStreaming, s.State())
	})
}

func TestSyncer_Polling(t *testing.T) {
	t.Parallel()

	t.Run("polls while connected and not onboarded", func(t *testing.T) {
		t.Parallel()

		ss := newStatusServer(t, connstatus.ConnectionStatus{Connected: true, Onboarded: false})

		s, err := syncer.New(ss.config())
		require.NoError(t, err)
		defer s.Close()

		s.SetAuthenticated(true)

		assert.Eventually(t, func() bool { return s.IsPolling() }, time.Second, 5*time.Millisecond)

		// Poll ticks hit the snapshot endpoint beyond the initial fetch
		assert.Eventually(t, func() bool {
			return ss.snaps.Load() >= 3
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("polling stops once onboarding completes", func(t *testing.T) {
		t.Parallel()

		ss := newStatusServer(t, connstatus.ConnectionStatus{Connected: true, Onboarded: false})

		s, err := syncer.New(ss.config())
		require.NoError(t, err)
		defer s.Close()

		s.SetAuthenticated(true)
		assert.Eventually(t, func() bool { return s.IsPolling() }, time.Second, 5*time.Millisecond)

		ss.setSnapshot(connstatus.ConnectionStatus{Connected: true, Onboarded: true})
		ss.send(`{"onboarded": true}`)

		assert.Eventually(t, func() bool { return !s.IsPolling() }, time.Second, 5*time.Millisecond)
	})

	t.Run("backgrounding pauses the poll, foregrounding refreshes", func(t *testing.T) {
		t.Parallel()

		ss := newStatusServer(t, connstatus.ConnectionStatus{Connected: true, Onboarded: false})

		s, err := syncer.New(ss.config())
		require.NoError(t, err)
		defer s.Close()

		s.SetAuthenticated(true)
		assert.Eventually(t, func() bool { return s.IsPolling() }, time.Second, 5*time.Millisecond)

		s.SetVisible(false)
		assert.Eventually(t, func() bool { return !s.IsPolling() }, time.Second, 5*time.Millisecond)

		before := ss.snaps.Load()
		s.SetVisible(true)

		// Foregrounding fetches an out-of-band snapshot and re-arms the poll
		assert.Eventually(t, func() bool {
			return ss.snaps.Load() > before && s.IsPolling()
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("failed poll fetch keeps the cached status", func(t *testing.T) {
		t.Parallel()

		ss := newStatusServer(t, connstatus.ConnectionStatus{
			Connected: true,
			Onboarded: false,
			Email:     "keep@example.com",
		})

		s, err := syncer.New(ss.config())
		require.NoError(t, err)
		defer s.Close()

		s.SetAuthenticated(true)
		assert.Eventually(t, func() bool {
			return s.Status().Email == "keep@example.com"
		}, time.Second, 5*time.Millisecond)

		ss.setSnapshotFailing(true)
		assert.Eventually(t, func() bool {
			return s.LastError() != nil
		}, time.Second, 5*time.Millisecond)

		assert.Equal(t, "keep@example.com", s.Status().Email)
		assert.True(t, s.Status().Connected)
	})
}

func TestSyncer_SignOut(t *testing.T) {
	t.Parallel()

	ss := newStatusServer(t, connstatus.ConnectionStatus{Connected: true, Onboarded: false})

	s, err := syncer.New(ss.config())
	require.NoError(t, err)
	defer s.Close()

	s.SetAuthenticated(true)
	assert.Eventually(t, func() bool {
		return s.State() == syncer.StateStreaming && s.Status().Connected && s.IsPolling()
	}, time.Second, 5*time.Millisecond)

	s.SetAuthenticated(false)

	// Teardown is synchronous: state is already reset on return
	assert.Equal(t, syncer.StateIdle, s.State())
	assert.False(t, s.Status().Connected)
	assert.False(t, s.IsPolling())
	assert.NoError(t, s.LastError())

	// Late stream payloads from the torn-down generation change nothing
	time.Sleep(50 * time.Millisecond)
	assert.False(t, s.Status().Connected)
}

func TestSyncer_TeardownCancelsInflightFetch(t *testing.T) {
	t.Parallel()

	var startedOnce, cancelledOnce sync.Once
	fetchStarted := make(chan struct{})
	fetchCancelled := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		startedOnce.Do(func() { close(fetchStarted) })
		// Never respond; the request ends only through client-side
		// cancellation
		<-r.Context().Done()
		cancelledOnce.Do(func() { close(fetchCancelled) })
	})
	mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s, err := syncer.New(syncer.Config{
		SnapshotURL:    srv.URL + "/status",
		StreamURL:      srv.URL + "/stream",
		PollInterval:   30 * time.Millisecond,
		ReconnectDelay: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	s.SetAuthenticated(true)

	select {
	case <-fetchStarted:
	case <-time.After(time.Second):
		t.Fatal("snapshot fetch never reached the server")
	}

	s.SetAuthenticated(false)
	require.NoError(t, s.Close())

	// Teardown must sever the hung request rather than leave its goroutine
	// and socket behind
	select {
	case <-fetchCancelled:
	case <-time.After(time.Second):
		t.Fatal("snapshot fetch survived teardown")
	}
}

func TestSyncer_Close(t *testing.T) {
	t.Parallel()

	ss := newStatusServer(t, connstatus.ConnectionStatus{Connected: true, Onboarded: true})

	s, err := syncer.New(ss.config())
	require.NoError(t, err)

	s.SetAuthenticated(true)
	assert.Eventually(t, func() bool {
		return s.State() == syncer.StateStreaming
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Equal(t, syncer.StateIdle, s.State())
}

func TestSyncer_OnChange(t *testing.T) {
	t.Parallel()

	ss := newStatusServer(t, connstatus.ConnectionStatus{Connected: true, Onboarded: true})

	var calls atomic.Int64
	s, err := syncer.New(ss.config(), syncer.WithOnChange(func(connstatus.ConnectionStatus) {
		calls.Add(1)
	}))
	require.NoError(t, err)
	defer s.Close()

	s.SetAuthenticated(true)
	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, 5*time.Millisecond)

	ss.send(`{"email": "notify@example.com"}`)
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
