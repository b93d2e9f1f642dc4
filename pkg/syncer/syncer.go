package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/assistkit/pkg/connstatus"
	"github.com/dmitrymomot/assistkit/pkg/logger"
)

// State names the synchronizer's connection state.
type State string

const (
	// StateIdle: not authenticated, no stream, no timers, default status.
	StateIdle State = "idle"
	// StateInitializing: snapshot fetch dispatched, stream not yet attempted.
	StateInitializing State = "initializing"
	// StateStreaming: exactly one live stream open (or opening).
	StateStreaming State = "streaming"
	// StateReconnecting: stream lost, a single reconnection timer pending.
	StateReconnecting State = "reconnecting"
)

// RequestDecorator mutates outgoing requests, typically to attach the
// session credential.
type RequestDecorator func(*http.Request)

// Option configures optional Syncer collaborators.
type Option func(*Syncer)

// WithHTTPClient sets the HTTP client used for snapshots and streams.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Syncer) {
		if c != nil {
			s.client = c
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Syncer) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRequestDecorator registers a decorator applied to every outgoing
// request.
func WithRequestDecorator(d RequestDecorator) Option {
	return func(s *Syncer) {
		if d != nil {
			s.decorate = d
		}
	}
}

// WithOnChange registers a callback invoked after every cache change.
// It runs on the synchronizer's event loop: keep it fast and do not call
// back into the Syncer from it.
func WithOnChange(fn func(connstatus.ConnectionStatus)) Option {
	return func(s *Syncer) { s.onChange = fn }
}

type eventKind int

const (
	evSetAuth eventKind = iota
	evSetVisible
	evSnapshot
	evStreamPatch
	evStreamClosed
	evReconnectFire
	evPollFire
	evClose
)

type event struct {
	kind   eventKind
	gen    uint64
	flag   bool
	status connstatus.ConnectionStatus
	patch  connstatus.Patch
	err    error
	ack    chan struct{}
}

// Syncer keeps a local, read-only projection of a subject's ConnectionStatus
// in sync with the server through a live event stream, a snapshot endpoint
// and an adaptive safety-net poll.
//
// All state transitions run on a single event-loop goroutine, which makes
// the resource invariants mechanically checkable: at most one live stream,
// at most one pending reconnection timer and at most one polling timer exist
// at any moment. Public methods are non-blocking notifications into that
// loop (teardown paths wait for acknowledgment).
type Syncer struct {
	cfg      Config
	client   *http.Client
	log      *slog.Logger
	decorate RequestDecorator
	onChange func(connstatus.ConnectionStatus)

	events   chan event
	loopDone chan struct{}
	closed   sync.Once

	// Published snapshot of loop-owned state, guarded by mu
	mu      sync.RWMutex
	status  connstatus.ConnectionStatus
	state   State
	polling bool
	lastErr error

	// Loop-owned, never touched outside the loop goroutine
	gen           uint64
	genCtx        context.Context
	genCancel     context.CancelFunc
	authenticated bool
	visible       bool
	streamOpen    bool
	streamCancel  context.CancelFunc
	reconnectTmr  *time.Timer
	pollTmr       *time.Timer
}

// New creates a synchronizer and starts its event loop in Idle.
// Nothing is fetched until the owner reports authentication.
func New(cfg Config, opts ...Option) (*Syncer, error) {
	if cfg.SnapshotURL == "" || cfg.StreamURL == "" {
		return nil, ErrMissingEndpoints
	}

	s := &Syncer{
		cfg:      cfg.withDefaults(),
		client:   http.DefaultClient,
		log:      slog.Default(),
		events:   make(chan event, 64),
		loopDone: make(chan struct{}),
		state:    StateIdle,
		gen:      1, // zero marks ungated events, generations start above it
		visible:  true,
	}

	s.genCtx, s.genCancel = context.WithCancel(context.Background())

	for _, opt := range opts {
		opt(s)
	}

	go s.loop()

	return s, nil
}

// SetAuthenticated reports a sign-in or sign-out. Signing in fetches a
// snapshot and opens the stream; repeating it is a no-op. Signing out tears
// down the stream and both timers and resets the cache to the default
// status; the call returns only after teardown completed.
func (s *Syncer) SetAuthenticated(authed bool) {
	if authed {
		s.post(event{kind: evSetAuth, flag: true})
		return
	}
	// Teardown is synchronous: no stream or timer outlives the owner's
	// sign-out
	ack := make(chan struct{})
	s.post(event{kind: evSetAuth, flag: false, ack: ack})
	s.await(ack)
}

// SetVisible reports foreground/background transitions. Becoming visible
// triggers an immediate out-of-band refresh in addition to poll
// rescheduling.
func (s *Syncer) SetVisible(visible bool) {
	s.post(event{kind: evSetVisible, flag: visible})
}

// Status returns the current cached status.
func (s *Syncer) Status() connstatus.ConnectionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// State returns the current connection state.
func (s *Syncer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsPolling reports whether the safety-net poll timer is armed.
func (s *Syncer) IsPolling() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.polling
}

// LastError returns the most recent transport error, advisory only:
// the cached status stays serviceable through transport failures.
func (s *Syncer) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Close tears down the stream and timers and stops the event loop.
// Safe to call multiple times.
func (s *Syncer) Close() error {
	s.closed.Do(func() {
		ack := make(chan struct{})
		s.post(event{kind: evClose, ack: ack})
		s.await(ack)
	})
	return nil
}

func (s *Syncer) post(e event) {
	select {
	case s.events <- e:
	case <-s.loopDone:
	}
}

func (s *Syncer) await(ack chan struct{}) {
	select {
	case <-ack:
	case <-s.loopDone:
	}
}

func (s *Syncer) loop() {
	defer close(s.loopDone)

	for e := range s.events {
		// Async results from a previous generation (cancelled stream,
		// stale fetch, fired-but-orphaned timer) are ignored
		if e.gen != 0 && e.gen != s.gen {
			continue
		}

		switch e.kind {
		case evSetAuth:
			if e.flag {
				s.handleSignIn()
			} else {
				s.teardown(true)
			}
		case evSetVisible:
			s.handleVisibility(e.flag)
		case evSnapshot:
			s.handleSnapshot(e.status, e.err)
		case evStreamPatch:
			s.handlePatch(e.patch)
		case evStreamClosed:
			s.handleStreamClosed(e.err)
		case evReconnectFire:
			s.reconnectTmr = nil
			if s.authenticated && !s.streamOpen {
				s.startStream()
			}
		case evPollFire:
			s.handlePollFire()
		case evClose:
			s.teardown(false)
			if e.ack != nil {
				close(e.ack)
			}
			return
		}

		if e.ack != nil {
			close(e.ack)
		}
	}
}

// handleSignIn is idempotent: a second sign-in while active changes nothing.
func (s *Syncer) handleSignIn() {
	if s.authenticated {
		return
	}
	s.authenticated = true

	s.setState(StateInitializing)
	s.fetchSnapshot()

	// The stream attempt is independent of the snapshot outcome
	s.startStream()
	s.reevaluatePolling()
}

func (s *Syncer) handleVisibility(visible bool) {
	if s.visible == visible {
		return
	}
	s.visible = visible

	if visible && s.authenticated {
		// Catch up on anything missed while backgrounded
		s.fetchSnapshot()
	}
	s.reevaluatePolling()
}

func (s *Syncer) handleSnapshot(status connstatus.ConnectionStatus, err error) {
	if !s.authenticated {
		return
	}
	if err != nil {
		// Stale-but-present beats none: the previous cache survives
		s.log.LogAttrs(context.Background(), slog.LevelWarn, "status snapshot fetch failed", logger.Error(err))
		s.setLastError(err)
		return
	}

	s.setLastError(nil)
	s.setStatus(status)
	s.reevaluatePolling()
}

func (s *Syncer) handlePatch(p connstatus.Patch) {
	if !s.authenticated || p.IsZero() {
		return
	}
	s.setStatus(s.Status().Merge(p))
	s.reevaluatePolling()
}

func (s *Syncer) handleStreamClosed(err error) {
	if !s.authenticated {
		return
	}
	s.streamOpen = false
	if s.streamCancel != nil {
		s.streamCancel()
		s.streamCancel = nil
	}

	if err != nil {
		s.log.LogAttrs(context.Background(), slog.LevelWarn, "status stream lost", logger.Error(err))
		s.setLastError(err)
	}

	// At most one pending reconnection timer
	if s.reconnectTmr == nil {
		gen := s.gen
		s.reconnectTmr = time.AfterFunc(s.cfg.ReconnectDelay, func() {
			s.post(event{kind: evReconnectFire, gen: gen})
		})
	}
	s.setState(StateReconnecting)
}

func (s *Syncer) handlePollFire() {
	s.pollTmr = nil
	if !s.pollPredicate() {
		s.publishPolling(false)
		return
	}
	s.fetchSnapshot()
	s.reevaluatePolling()
}

// pollPredicate gates the safety-net poll: only while someone could be
// watching and the state is actually transitioning.
func (s *Syncer) pollPredicate() bool {
	status := s.Status()
	return s.authenticated && s.visible && status.Connected &&
		(!status.Onboarded || status.SyncInProgress())
}

func (s *Syncer) reevaluatePolling() {
	if s.pollPredicate() {
		if s.pollTmr == nil {
			gen := s.gen
			s.pollTmr = time.AfterFunc(s.cfg.PollInterval, func() {
				s.post(event{kind: evPollFire, gen: gen})
			})
		}
		s.publishPolling(true)
		return
	}

	if s.pollTmr != nil {
		s.pollTmr.Stop()
		s.pollTmr = nil
	}
	s.publishPolling(false)
}

// startStream opens the live stream. No-op when one is already open.
func (s *Syncer) startStream() {
	if s.streamOpen {
		return
	}
	s.streamOpen = true

	ctx, cancel := context.WithCancel(context.Background())
	s.streamCancel = cancel

	gen := s.gen
	go s.runStream(ctx, gen)
	s.setState(StateStreaming)
}

func (s *Syncer) runStream(ctx context.Context, gen uint64) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.StreamURL, nil)
	if err != nil {
		s.post(event{kind: evStreamClosed, gen: gen, err: err})
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if s.decorate != nil {
		s.decorate(req)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.post(event{kind: evStreamClosed, gen: gen, err: err})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.post(event{kind: evStreamClosed, gen: gen, err: fmt.Errorf("stream endpoint returned %d", resp.StatusCode)})
		return
	}

	err = readEvents(resp.Body, func(data []byte) {
		var p connstatus.Patch
		if uerr := json.Unmarshal(data, &p); uerr != nil {
			// One malformed payload is dropped, the stream stays up
			s.log.LogAttrs(ctx, slog.LevelDebug, "dropping malformed stream payload", logger.Error(uerr))
			return
		}
		s.post(event{kind: evStreamPatch, gen: gen, patch: p})
	})

	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		// Deliberate local close, not a remote failure
		return
	}
	s.post(event{kind: evStreamClosed, gen: gen, err: err})
}

// fetchSnapshot fetches the full status asynchronously; the result comes
// back into the loop as an event, preserving receipt-order merging. The
// request carries the generation context, so teardown severs an in-flight
// fetch instead of leaving its socket behind.
func (s *Syncer) fetchSnapshot() {
	gen := s.gen
	ctx := s.genCtx
	go func() {
		status, err := s.doFetch(ctx)
		s.post(event{kind: evSnapshot, gen: gen, status: status, err: err})
	}()
}

func (s *Syncer) doFetch(ctx context.Context) (connstatus.ConnectionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.SnapshotURL, nil)
	if err != nil {
		return connstatus.ConnectionStatus{}, err
	}
	req.Header.Set("Accept", "application/json")
	if s.decorate != nil {
		s.decorate(req)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return connstatus.ConnectionStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return connstatus.ConnectionStatus{}, fmt.Errorf("snapshot endpoint returned %d", resp.StatusCode)
	}

	var status connstatus.ConnectionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return connstatus.ConnectionStatus{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return status, nil
}

// teardown closes the stream, cancels in-flight fetches, clears both timers
// and resets to Idle. Bumping the generation orphans every async result that
// still manages to arrive.
func (s *Syncer) teardown(resetStatus bool) {
	s.gen++
	s.authenticated = false

	s.genCancel()
	s.genCtx, s.genCancel = context.WithCancel(context.Background())

	if s.streamCancel != nil {
		s.streamCancel()
		s.streamCancel = nil
	}
	s.streamOpen = false

	if s.reconnectTmr != nil {
		s.reconnectTmr.Stop()
		s.reconnectTmr = nil
	}
	if s.pollTmr != nil {
		s.pollTmr.Stop()
		s.pollTmr = nil
	}

	s.publishPolling(false)
	s.setState(StateIdle)
	if resetStatus {
		s.setStatus(connstatus.ConnectionStatus{})
	}
	s.setLastError(nil)
}

func (s *Syncer) setStatus(status connstatus.ConnectionStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(status)
	}
}

func (s *Syncer) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Syncer) publishPolling(polling bool) {
	s.mu.Lock()
	s.polling = polling
	s.mu.Unlock()
}

func (s *Syncer) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
