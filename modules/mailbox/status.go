package mailbox

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/assistkit/pkg/authsession"
	"github.com/dmitrymomot/assistkit/pkg/logger"
)

// handleStatus serves the full, current status as a JSON snapshot.
func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	subject, ok := authsession.SubjectFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	status, err := s.store.Get(r.Context(), subject)
	if err != nil {
		s.log.LogAttrs(r.Context(), slog.LevelError, "status read failed",
			logger.SubjectID(subject), logger.Error(err))
		s.respondError(w, http.StatusInternalServerError, "status unavailable")
		return
	}

	s.respondJSON(w, http.StatusOK, status)
}

// handleStream serves the live patch stream as text/event-stream. The first
// event is the full current status; every following event is an incremental
// patch. Heartbeat comments keep the connection alive through proxies.
func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	subject, ok := authsession.SubjectFromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()

	// Subscribe before the initial snapshot read: a patch applied between
	// the two is delivered rather than lost
	sub := s.store.Subscribe(ctx, subject)
	defer sub.Close()

	status, err := s.store.Get(ctx, subject)
	if err != nil {
		s.log.LogAttrs(ctx, slog.LevelError, "status read failed",
			logger.SubjectID(subject), logger.Error(err))
		s.respondError(w, http.StatusInternalServerError, "status unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, status); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(s.cfg.StreamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Receive():
			if !ok {
				// Hub dropped us as a slow consumer or shut down
				return
			}
			if err := writeEvent(w, msg.Data); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
