// Package syncer maintains a client-side read model of a subject's
// connection status.
//
// A Syncer combines three transports over the same HTTP surface: a one-shot
// snapshot fetch for the full status, a long-lived text/event-stream of
// incremental patches, and a low-frequency safety-net poll that only runs
// while the status is actually transitioning (connecting, onboarding or an
// active sync) and the owner reports the UI as visible.
//
// All mutations funnel through a single event loop, so merges apply in
// receipt order and the package guarantees at most one live stream, one
// pending reconnection timer and one polling timer at any moment.
//
// Typical wiring:
//
//	s, err := syncer.New(syncer.Config{
//		SnapshotURL: "https://api.example.com/mailbox/status",
//		StreamURL:   "https://api.example.com/mailbox/status/stream",
//	}, syncer.WithRequestDecorator(func(r *http.Request) {
//		r.AddCookie(sessionCookie)
//	}))
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	s.SetAuthenticated(true)   // after sign-in
//	s.SetVisible(false)        // when the UI goes to background
//	current := s.Status()      // read the cached status at any time
package syncer
