package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/assistkit/pkg/logger"
)

// HealthCheckHandler serves liveness and readiness probes. With no probe
// functions it always answers 200 "ALIVE". With probes it runs each one
// and answers 200 "READY", or 500 "NOT_READY" on the first failure.
//
// pkg/pg and pkg/redis export matching probe functions:
//
//	mux.Handle("/healthz", httpserver.HealthCheckHandler(log))
//	mux.Handle("/readyz", httpserver.HealthCheckHandler(log,
//		pg.Healthcheck(pool), redis.Healthcheck(client)))
func HealthCheckHandler(log *slog.Logger, probes ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(probes) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
			return
		}

		for _, probe := range probes {
			if err := probe(r.Context()); err != nil {
				log.LogAttrs(r.Context(), slog.LevelError, "readiness probe failed", logger.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
