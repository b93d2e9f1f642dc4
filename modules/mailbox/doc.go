// Package mailbox composes the account surface of the assistant: status
// snapshot and live-stream endpoints backed by a connstatus.Store, the
// OAuth flow that links a mailbox account, unlink, and session logout.
//
// Wiring follows the usual module pattern:
//
//	svc, err := mailbox.NewService(cfg, store, sessions, cookies)
//	if err != nil {
//		return err
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/", svc.Handle())
//
// The stream endpoint speaks text/event-stream: the first event carries the
// full current status, every later event an incremental patch, with comment
// heartbeats in between. pkg/syncer is the matching consumer.
package mailbox
