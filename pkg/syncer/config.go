package syncer

import "time"

// Config holds synchronizer endpoints and cadences.
type Config struct {
	// SnapshotURL is the full-status endpoint, fetched on start, on
	// visibility changes and on every poll tick.
	SnapshotURL string

	// StreamURL is the live event-stream endpoint.
	StreamURL string

	// PollInterval is the safety-net poll cadence while the gating
	// predicate holds.
	PollInterval time.Duration `env:"STATUS_POLL_INTERVAL" envDefault:"15s"`

	// ReconnectDelay is the fixed wait before a stream reconnection attempt.
	ReconnectDelay time.Duration `env:"STATUS_RECONNECT_DELAY" envDefault:"5s"`
}

// withDefaults fills unset cadences.
func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 15 * time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 5 * time.Second
	}
	return c
}
